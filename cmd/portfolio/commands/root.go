package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Smart Portfolio - 보유/관심 종목 점수 대시보드",
	Long: `Smart Portfolio CLI

보유 종목의 매도/물타기 점수, 관심 종목의 매수 타이밍 점수를 계산하는
대시보드 백엔드.

Usage:
  go run ./cmd/portfolio [command]

Examples:
  go run ./cmd/portfolio api
  go run ./cmd/portfolio api --memory
  go run ./cmd/portfolio migrate
  go run ./cmd/portfolio score sell
  go run ./cmd/portfolio market 005930 --market KR`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug 로그 출력")
}
