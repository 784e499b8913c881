// Package market assembles per-symbol MarketData snapshots from Naver (KR)
// and Yahoo (US), with a TTL cache in front.
package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/internal/external/naver"
	"github.com/wonny/smart-portfolio/internal/external/yahoo"
	"github.com/wonny/smart-portfolio/pkg/logger"
	"github.com/wonny/smart-portfolio/pkg/redis"
)

const (
	tradingDaysPerYear = 252
	mcapHistoryLen     = 20
	flowSessions       = 5
	// frgn.naver 는 휴장일 포함 달력 기준이라 5거래일을 덮도록 여유를 둠
	flowLookbackDays = 14

	// 공유 조회는 호출자 취소와 분리해서 이 시간 안에 끝냄
	sharedFetchTimeout = 30 * time.Second
)

// KRSource is the subset of the Naver client the provider needs
type KRSource interface {
	FetchBasic(ctx context.Context, stockCode string) (*naver.Basic, error)
	FetchPrices(ctx context.Context, stockCode string, from, to time.Time) ([]naver.PriceData, error)
	FetchInvestorFlow(ctx context.Context, stockCode string, from, to time.Time) ([]naver.InvestorFlowData, error)
}

// USSource is the subset of the Yahoo client the provider needs
type USSource interface {
	FetchChart(ctx context.Context, symbol string) (*yahoo.Chart, error)
}

// Provider implements contracts.MarketDataProvider
// ⭐ SSOT: 시세 스냅샷 조립은 여기서만
type Provider struct {
	kr     KRSource
	us     USSource
	remote *redis.Cache
	local  *SnapshotCache
	ttl    time.Duration
	group  singleflight.Group
	now    func() time.Time
	logger *logger.Logger
}

// NewProvider creates a provider. remote may be nil or disabled; the
// in-process cache is always used.
func NewProvider(kr KRSource, us USSource, remote *redis.Cache, ttl time.Duration, log *logger.Logger) *Provider {
	return &Provider{
		kr:     kr,
		us:     us,
		remote: remote,
		local:  NewSnapshotCache(ttl, log),
		ttl:    ttl,
		now:    time.Now,
		logger: log,
	}
}

var _ contracts.MarketDataProvider = (*Provider)(nil)

// Fetch returns the cached snapshot or fetches a fresh one.
// Any failure yields contracts.DefaultMarketData().
func (p *Provider) Fetch(ctx context.Context, symbol string, market contracts.Market) contracts.MarketData {
	key := redis.MarketDataKey(string(market), symbol)

	if data, ok := p.local.Get(key); ok {
		return data
	}

	if p.remote != nil && p.remote.Enabled() {
		var data contracts.MarketData
		found, err := p.remote.Get(ctx, key, &data)
		if err != nil {
			p.logger.WithError(err).WithField("key", key).Warn("Market cache read failed")
		}
		if found {
			p.local.Set(key, data)
			return data
		}
	}

	return p.load(ctx, key, symbol, market)
}

// Refresh fetches a fresh snapshot regardless of the cache and stores it
func (p *Provider) Refresh(ctx context.Context, symbol string, market contracts.Market) contracts.MarketData {
	key := redis.MarketDataKey(string(market), symbol)
	return p.load(ctx, key, symbol, market)
}

// load deduplicates concurrent fetches of the same key. The shared fetch runs
// detached from any single caller, so one caller going away does not hand the
// others a zero snapshot.
func (p *Provider) load(ctx context.Context, key, symbol string, market contracts.Market) contracts.MarketData {
	ch := p.group.DoChan(key, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		data, err := p.fetch(fctx, symbol, market)
		if err != nil {
			p.logger.WithSymbol(symbol, string(market)).WithError(err).Warn("Market data fetch failed")
			return contracts.DefaultMarketData(), nil
		}

		p.local.Set(key, data)
		if p.remote != nil && p.remote.Enabled() {
			if err := p.remote.Set(fctx, key, data, p.ttl); err != nil {
				p.logger.WithError(err).WithField("key", key).Warn("Market cache write failed")
			}
		}
		return data, nil
	})

	select {
	case res := <-ch:
		return res.Val.(contracts.MarketData)
	case <-ctx.Done():
		// 호출자만 빠지고 조회는 계속 진행되어 캐시에 남음
		return contracts.DefaultMarketData()
	}
}

func (p *Provider) fetch(ctx context.Context, symbol string, market contracts.Market) (contracts.MarketData, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return contracts.MarketData{}, fmt.Errorf("empty symbol")
	}

	switch market {
	case contracts.MarketKR:
		return p.fetchKR(ctx, symbol)
	case contracts.MarketUS:
		return p.fetchUS(ctx, strings.ToUpper(symbol))
	default:
		return contracts.MarketData{}, fmt.Errorf("unsupported market %q", market)
	}
}

// fetchKR: 현재가는 basic, 일봉/수급은 실패해도 빈 값으로 진행
func (p *Provider) fetchKR(ctx context.Context, symbol string) (contracts.MarketData, error) {
	basic, err := p.kr.FetchBasic(ctx, symbol)
	if err != nil {
		return contracts.MarketData{}, fmt.Errorf("failed to fetch basic quote: %w", err)
	}

	log := p.logger.WithSymbol(symbol, string(contracts.MarketKR))
	to := p.now()

	history := []contracts.DayCandle{}
	prices, err := p.kr.FetchPrices(ctx, symbol, to.AddDate(-1, 0, 0), to)
	if err != nil {
		log.WithError(err).Warn("Daily candles unavailable")
	} else {
		history = candlesFromNaver(prices)
	}

	var foreign, institution float64
	flows, err := p.kr.FetchInvestorFlow(ctx, symbol, to.AddDate(0, 0, -flowLookbackDays), to)
	if err != nil {
		log.WithError(err).Warn("Investor flow unavailable")
	} else {
		foreign, institution = naver.NetBuyValue(flows, flowSessions)
	}

	high, low := highLow(history)
	if high == 0 {
		high = basic.CurrentPrice * 1.1
	}
	if low == 0 {
		low = basic.CurrentPrice * 0.9
	}

	return contracts.MarketData{
		CurrentPrice:    basic.CurrentPrice,
		PreviousClose:   basic.PreviousClose,
		ChangeRate:      basic.ChangeRate,
		High52w:         high,
		Low52w:          low,
		Volume:          basic.Volume,
		MarketCap:       basic.MarketCap,
		History:         history,
		McapHistory:     mcapHistory(history, basic.MarketCap),
		SectorName:      basic.SectorName,
		ForeignNetBuy5d: foreign,
		InstNetBuy5d:    institution,
	}, nil
}

func (p *Provider) fetchUS(ctx context.Context, symbol string) (contracts.MarketData, error) {
	chart, err := p.us.FetchChart(ctx, symbol)
	if err != nil {
		return contracts.MarketData{}, fmt.Errorf("failed to fetch chart: %w", err)
	}

	history := candlesFromYahoo(chart.Candles)

	price := chart.RegularMarketPrice
	if price == 0 && len(history) > 0 {
		price = history[len(history)-1].Close
	}

	changeRate := 0.0
	if chart.PreviousClose != 0 {
		changeRate = (price - chart.PreviousClose) / chart.PreviousClose * 100
	}

	volume := 0.0
	if len(history) > 0 {
		volume = history[len(history)-1].Volume
	}

	high, low := highLow(history)

	return contracts.MarketData{
		CurrentPrice:  price,
		PreviousClose: chart.PreviousClose,
		ChangeRate:    changeRate,
		High52w:       high,
		Low52w:        low,
		Volume:        volume,
		MarketCap:     chart.MarketCap,
		History:       history,
		McapHistory:   mcapHistory(history, chart.MarketCap),
	}, nil
}

func candlesFromNaver(prices []naver.PriceData) []contracts.DayCandle {
	out := make([]contracts.DayCandle, 0, len(prices))
	for _, pd := range prices {
		if pd.ClosePrice <= 0 {
			continue
		}
		out = append(out, contracts.DayCandle{
			Date:   pd.TradeDate.Format("2006-01-02"),
			Open:   float64(pd.OpenPrice),
			High:   float64(pd.HighPrice),
			Low:    float64(pd.LowPrice),
			Close:  float64(pd.ClosePrice),
			Volume: float64(pd.Volume),
		})
	}
	return out
}

func candlesFromYahoo(candles []yahoo.Candle) []contracts.DayCandle {
	out := make([]contracts.DayCandle, 0, len(candles))
	for _, c := range candles {
		out = append(out, contracts.DayCandle{
			Date:   c.Date,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		})
	}
	return out
}

// highLow scans the trailing year. Non-positive lows are ignored.
func highLow(history []contracts.DayCandle) (high, low float64) {
	if len(history) > tradingDaysPerYear {
		history = history[len(history)-tradingDaysPerYear:]
	}
	for _, c := range history {
		if c.High > high {
			high = c.High
		}
		if c.Low > 0 && (low == 0 || c.Low < low) {
			low = c.Low
		}
	}
	return high, low
}

// mcapHistory scales today's market cap by each close relative to the last close
func mcapHistory(history []contracts.DayCandle, marketCap float64) []contracts.McapPoint {
	if len(history) == 0 {
		return []contracts.McapPoint{}
	}

	lastClose := history[len(history)-1].Close
	tail := history
	if len(tail) > mcapHistoryLen {
		tail = tail[len(tail)-mcapHistoryLen:]
	}

	out := make([]contracts.McapPoint, len(tail))
	for i, c := range tail {
		mcap := 0.0
		if lastClose > 0 {
			mcap = marketCap * c.Close / lastClose
		}
		out[i] = contracts.McapPoint{Date: c.Date, Mcap: mcap}
	}
	return out
}

// CleanExpired drops expired snapshots from the in-process cache
func (p *Provider) CleanExpired() int {
	return p.local.CleanExpired()
}
