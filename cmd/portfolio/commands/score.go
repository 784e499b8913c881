package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/internal/dashboard"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score [sell|averaging|buy]",
	Short: "후보 종목 점수 계산",
	Long: `저장된 보유/관심 종목으로 점수를 계산해 표로 출력합니다.

  sell       매도 후보 (최소 수익률 이상, 일일 목표 배분 포함)
  averaging  물타기 후보 (손실 종목)
  buy        매수 관심 종목 타이밍

Example:
  go run ./cmd/portfolio score sell
  go run ./cmd/portfolio score buy --detail`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"sell", "averaging", "buy"},
	RunE:      runScore,
}

var scoreDetail bool

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().BoolVar(&scoreDetail, "detail", false, "항목별 점수 출력")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	repos, err := openRepositories(cfg, false)
	if err != nil {
		return err
	}
	defer repos.close()

	provider, closeProvider, err := newMarketProvider(cfg, log)
	if err != nil {
		return err
	}
	defer closeProvider()

	svc := dashboard.NewService(repos.stocks, repos.watchlist, repos.settings, provider, cfg.Market.ScoreConcurrency, log)

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	switch args[0] {
	case "buy":
		items, err := svc.BuyCandidates(ctx)
		if err != nil {
			return err
		}
		printWatchScores(items)
	case "averaging":
		stocks, err := svc.AveragingCandidates(ctx)
		if err != nil {
			return err
		}
		printStockScores("물타기 후보", stocks, false)
	default:
		stocks, err := svc.SellCandidates(ctx)
		if err != nil {
			return err
		}
		printStockScores("매도 후보", stocks, true)
	}
	return nil
}

func printStockScores(title string, stocks []contracts.ScoredStock, withAllocation bool) {
	PrintDoubleSeparator()
	fmt.Printf("  %s (%d)\n", title, len(stocks))
	PrintDoubleSeparator()

	columns := []string{"#", "종목", "점수", "상태", "수익률", "현재가"}
	widths := []int{3, 20, 5, 16, 9, 12}
	if withAllocation {
		columns = append(columns, "매도수량", "예상수익")
		widths = append(widths, 8, 14)
	}
	PrintTableHeader(columns, widths)

	for i, s := range stocks {
		row := []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%s %s", s.Symbol, s.Name),
			fmt.Sprintf("%d", s.TotalScore),
			string(s.Status),
			fmt.Sprintf("%+.2f%%", s.ProfitRate),
			formatAmount(s.CurrentPrice),
		}
		if withAllocation {
			row = append(row, formatAmount(s.SellQty), formatAmount(s.ExpectedProfit))
		}
		PrintTableRow(row, widths)

		if scoreDetail {
			printBreakdown(s.Breakdown)
		}
	}
}

func printWatchScores(items []contracts.ScoredWatchItem) {
	PrintDoubleSeparator()
	fmt.Printf("  매수 타이밍 (%d)\n", len(items))
	PrintDoubleSeparator()

	widths := []int{3, 20, 5, 10, 9, 9, 12}
	PrintTableHeader([]string{"#", "종목", "점수", "신호", "등락률", "목표괴리", "현재가"}, widths)

	for i, w := range items {
		PrintTableRow([]string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%s %s", w.Symbol, w.Name),
			fmt.Sprintf("%d", w.TotalScore),
			string(w.Signal),
			fmt.Sprintf("%+.2f%%", w.ChangeRate),
			fmt.Sprintf("%.1f%%", w.GapRate),
			formatAmount(w.CurrentPrice),
		}, widths)

		if scoreDetail {
			printBreakdown(w.Breakdown)
		}
	}
}

func printBreakdown(breakdown []contracts.ScoreBreakdown) {
	for _, b := range breakdown {
		PrintKeyValue(b.Name, fmt.Sprintf("%d/%g  %s", b.Score, b.MaxScore, b.Detail), 12)
	}
}

// formatAmount renders 1234567.5 as "1,234,568"
func formatAmount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := fmt.Sprintf("%.0f", v)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
