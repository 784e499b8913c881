package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/internal/indicators"
	"github.com/wonny/smart-portfolio/pkg/config"
)

// marketCmd represents the market command
var marketCmd = &cobra.Command{
	Use:   "market <symbol>",
	Short: "시세 스냅샷 조회",
	Long: `한 종목의 시세 스냅샷을 조회합니다 (KR: Naver, US: Yahoo). DB 불필요.

Example:
  go run ./cmd/portfolio market 005930
  go run ./cmd/portfolio market AAPL --market US`,
	Args: cobra.ExactArgs(1),
	RunE: runMarket,
}

var marketFlag string

func init() {
	rootCmd.AddCommand(marketCmd)

	marketCmd.Flags().StringVar(&marketFlag, "market", "KR", "시장 (KR|US)")
}

func runMarket(cmd *cobra.Command, args []string) error {
	mkt, err := contracts.ParseMarket(marketFlag)
	if err != nil {
		return err
	}

	cfg, log, err := loadConfig(config.WithoutDatabase())
	if err != nil {
		return err
	}

	provider, closeProvider, err := newMarketProvider(cfg, log)
	if err != nil {
		return err
	}
	defer closeProvider()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	symbol := args[0]
	md := provider.Fetch(ctx, symbol, mkt)

	PrintDoubleSeparator()
	fmt.Printf("  %s (%s)\n", symbol, mkt)
	PrintDoubleSeparator()

	PrintKeyValue("현재가", formatAmount(md.CurrentPrice), 10)
	PrintKeyValue("전일종가", formatAmount(md.PreviousClose), 10)
	PrintKeyValue("등락률", fmt.Sprintf("%+.2f%%", md.ChangeRate), 10)
	PrintKeyValue("52주 고가", formatAmount(md.High52w), 10)
	PrintKeyValue("52주 저가", formatAmount(md.Low52w), 10)
	PrintKeyValue("시가총액", formatAmount(md.MarketCap), 10)
	PrintKeyValue("업종", md.SectorName, 10)
	PrintKeyValue("RSI(14)", fmt.Sprintf("%.1f", indicators.RSI(md.Closes(), indicators.DefaultRSIPeriod)), 10)
	PrintKeyValue("외국인 5일", formatAmount(md.ForeignNetBuy5d), 10)
	PrintKeyValue("기관 5일", formatAmount(md.InstNetBuy5d), 10)
	PrintKeyValue("일봉 수", fmt.Sprintf("%d", len(md.History)), 10)

	if md.CurrentPrice == 0 {
		fmt.Println("\n⚠️  시세를 가져오지 못했습니다 (로그 확인)")
	}
	return nil
}
