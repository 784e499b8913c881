package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/internal/external/naver"
	"github.com/wonny/smart-portfolio/internal/external/yahoo"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

type fakeKR struct {
	basic     *naver.Basic
	basicErr  error
	prices    []naver.PriceData
	pricesErr error
	flows     []naver.InvestorFlowData
	flowsErr  error
	calls     int32
}

func (f *fakeKR) FetchBasic(ctx context.Context, code string) (*naver.Basic, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.basicErr != nil {
		return nil, f.basicErr
	}
	b := *f.basic
	return &b, nil
}

func (f *fakeKR) FetchPrices(ctx context.Context, code string, from, to time.Time) ([]naver.PriceData, error) {
	return f.prices, f.pricesErr
}

func (f *fakeKR) FetchInvestorFlow(ctx context.Context, code string, from, to time.Time) ([]naver.InvestorFlowData, error) {
	return f.flows, f.flowsErr
}

type fakeUS struct {
	chart   *yahoo.Chart
	err     error
	calls   int32
	release chan struct{}
}

func (f *fakeUS) FetchChart(ctx context.Context, symbol string) (*yahoo.Chart, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.chart, nil
}

func usChart(n int) *yahoo.Chart {
	chart := &yahoo.Chart{
		Symbol:             "AAPL",
		RegularMarketPrice: 110,
		PreviousClose:      100,
		MarketCap:          1000,
	}
	for i := 0; i < n; i++ {
		close := float64(50 + i)
		chart.Candles = append(chart.Candles, yahoo.Candle{
			Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("2006-01-02"),
			Open:   close,
			High:   close + 1,
			Low:    close - 1,
			Close:  close,
			Volume: float64(1000 + i),
		})
	}
	return chart
}

func TestFetchUS(t *testing.T) {
	us := &fakeUS{chart: usChart(300)}
	p := NewProvider(&fakeKR{}, us, nil, 5*time.Minute, logger.Nop())

	md := p.Fetch(context.Background(), "aapl", contracts.MarketUS)

	assert.Equal(t, 110.0, md.CurrentPrice)
	assert.Equal(t, 100.0, md.PreviousClose)
	assert.InDelta(t, 10.0, md.ChangeRate, 1e-9)
	assert.Len(t, md.History, 300)
	assert.Equal(t, 1299.0, md.Volume)

	// 최근 252봉: close 98..349
	assert.Equal(t, 350.0, md.High52w)
	assert.Equal(t, 97.0, md.Low52w)

	require.Len(t, md.McapHistory, 20)
	last := md.McapHistory[19]
	assert.Equal(t, md.History[299].Date, last.Date)
	assert.InDelta(t, 1000.0, last.Mcap, 1e-9)
	assert.InDelta(t, 1000.0*330/349, md.McapHistory[0].Mcap, 1e-9)
}

func TestFetchUSPriceFallsBackToLastClose(t *testing.T) {
	chart := usChart(3)
	chart.RegularMarketPrice = 0
	chart.PreviousClose = 0
	p := NewProvider(&fakeKR{}, &fakeUS{chart: chart}, nil, time.Minute, logger.Nop())

	md := p.Fetch(context.Background(), "AAPL", contracts.MarketUS)
	assert.Equal(t, 52.0, md.CurrentPrice)
	assert.Equal(t, 0.0, md.ChangeRate)
}

func TestFetchKR(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }
	kr := &fakeKR{
		basic: &naver.Basic{
			CurrentPrice:  72000,
			PreviousClose: 70000,
			ChangeRate:    2.857,
			Volume:        1e6,
			MarketCap:     4e14,
			SectorName:    "반도체",
		},
		prices: []naver.PriceData{
			{TradeDate: day(4), OpenPrice: 69000, HighPrice: 71000, LowPrice: 68000, ClosePrice: 70000, Volume: 10},
			{TradeDate: day(5), OpenPrice: 70000, HighPrice: 73000, LowPrice: 69500, ClosePrice: 72000, Volume: 20},
		},
		flows: []naver.InvestorFlowData{
			{ClosePrice: 72000, ForeignNet: 100, InstitutionNet: -50},
			{ClosePrice: 70000, ForeignNet: 10, InstitutionNet: 0},
		},
	}
	p := NewProvider(kr, &fakeUS{}, nil, time.Minute, logger.Nop())

	md := p.Fetch(context.Background(), "005930", contracts.MarketKR)

	assert.Equal(t, 72000.0, md.CurrentPrice)
	assert.Equal(t, "반도체", md.SectorName)
	assert.Equal(t, 73000.0, md.High52w)
	assert.Equal(t, 68000.0, md.Low52w)
	require.Len(t, md.History, 2)
	assert.Equal(t, "2024-03-04", md.History[0].Date)
	assert.Equal(t, 100.0*72000+10*70000, md.ForeignNetBuy5d)
	assert.Equal(t, -50.0*72000, md.InstNetBuy5d)
	require.Len(t, md.McapHistory, 2)
	assert.InDelta(t, 4e14*70000/72000, md.McapHistory[0].Mcap, 1)
}

func TestFetchKRPartialFailure(t *testing.T) {
	kr := &fakeKR{
		basic:     &naver.Basic{CurrentPrice: 10000},
		pricesErr: errors.New("chart down"),
		flowsErr:  errors.New("html changed"),
	}
	p := NewProvider(kr, &fakeUS{}, nil, time.Minute, logger.Nop())

	md := p.Fetch(context.Background(), "000660", contracts.MarketKR)

	assert.Equal(t, 10000.0, md.CurrentPrice)
	assert.InDelta(t, 11000.0, md.High52w, 1e-9)
	assert.InDelta(t, 9000.0, md.Low52w, 1e-9)
	assert.Empty(t, md.History)
	assert.NotNil(t, md.McapHistory)
	assert.Zero(t, md.NetFlow5d())
}

func TestFetchFailureReturnsZeroSnapshot(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		market contracts.Market
	}{
		{"kr basic error", "005930", contracts.MarketKR},
		{"us chart error", "AAPL", contracts.MarketUS},
		{"unknown market", "AAPL", contracts.Market("JP")},
		{"empty symbol", "  ", contracts.MarketUS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kr := &fakeKR{basicErr: errors.New("boom")}
			us := &fakeUS{err: errors.New("boom")}
			p := NewProvider(kr, us, nil, time.Minute, logger.Nop())

			md := p.Fetch(context.Background(), tt.symbol, tt.market)
			assert.Equal(t, contracts.DefaultMarketData(), md)
		})
	}
}

func TestFailuresAreNotCached(t *testing.T) {
	us := &fakeUS{err: errors.New("boom")}
	p := NewProvider(&fakeKR{}, us, nil, time.Minute, logger.Nop())

	p.Fetch(context.Background(), "AAPL", contracts.MarketUS)
	p.Fetch(context.Background(), "AAPL", contracts.MarketUS)
	assert.Equal(t, int32(2), atomic.LoadInt32(&us.calls))
}

func TestCacheTTL(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	us := &fakeUS{chart: usChart(5)}
	p := NewProvider(&fakeKR{}, us, nil, 5*time.Minute, logger.Nop())
	p.now = clock
	p.local.now = clock

	p.Fetch(context.Background(), "AAPL", contracts.MarketUS)
	p.Fetch(context.Background(), "aapl", contracts.MarketUS)
	assert.Equal(t, int32(1), atomic.LoadInt32(&us.calls), "same key within TTL")

	now = now.Add(5 * time.Minute)
	p.Fetch(context.Background(), "AAPL", contracts.MarketUS)
	assert.Equal(t, int32(2), atomic.LoadInt32(&us.calls), "expired at TTL")
}

func TestRefreshBypassesCache(t *testing.T) {
	us := &fakeUS{chart: usChart(5)}
	p := NewProvider(&fakeKR{}, us, nil, time.Hour, logger.Nop())

	p.Fetch(context.Background(), "AAPL", contracts.MarketUS)
	p.Refresh(context.Background(), "AAPL", contracts.MarketUS)
	assert.Equal(t, int32(2), atomic.LoadInt32(&us.calls))

	p.Fetch(context.Background(), "AAPL", contracts.MarketUS)
	assert.Equal(t, int32(2), atomic.LoadInt32(&us.calls))
}

func TestConcurrentFetchesShareOneRequest(t *testing.T) {
	us := &fakeUS{chart: usChart(5), release: make(chan struct{})}
	p := NewProvider(&fakeKR{}, us, nil, time.Hour, logger.Nop())

	var wg sync.WaitGroup
	results := make([]contracts.MarketData, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.Fetch(context.Background(), "AAPL", contracts.MarketUS)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(us.release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&us.calls))
	for i, md := range results {
		assert.Equal(t, 110.0, md.CurrentPrice, fmt.Sprintf("result %d", i))
	}
}

func TestSharedFetchSurvivesFirstCallerCancel(t *testing.T) {
	us := &fakeUS{chart: usChart(5), release: make(chan struct{})}
	p := NewProvider(&fakeKR{}, us, nil, time.Hour, logger.Nop())

	first, cancel := context.WithCancel(context.Background())
	firstDone := make(chan contracts.MarketData, 1)
	go func() { firstDone <- p.Fetch(first, "AAPL", contracts.MarketUS) }()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&us.calls) == 1 }, time.Second, time.Millisecond)

	secondDone := make(chan contracts.MarketData, 1)
	go func() { secondDone <- p.Fetch(context.Background(), "AAPL", contracts.MarketUS) }()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case md := <-firstDone:
		assert.Equal(t, 0.0, md.CurrentPrice)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(us.release)
	select {
	case md := <-secondDone:
		assert.Equal(t, 110.0, md.CurrentPrice)
		assert.Len(t, md.History, 5)
	case <-time.After(time.Second):
		t.Fatal("live caller did not return")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&us.calls))

	// 완료된 조회는 캐시에 남음
	md := p.Fetch(context.Background(), "AAPL", contracts.MarketUS)
	assert.Equal(t, 110.0, md.CurrentPrice)
	assert.Equal(t, int32(1), atomic.LoadInt32(&us.calls))
}

func TestHighLow(t *testing.T) {
	tests := []struct {
		name     string
		candles  []contracts.DayCandle
		wantHigh float64
		wantLow  float64
	}{
		{"empty", nil, 0, 0},
		{"ignores zero lows", []contracts.DayCandle{{High: 10, Low: 0}, {High: 12, Low: 8}}, 12, 8},
		{"all zero lows", []contracts.DayCandle{{High: 10, Low: 0}}, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			high, low := highLow(tt.candles)
			assert.Equal(t, tt.wantHigh, high)
			assert.Equal(t, tt.wantLow, low)
		})
	}
}

func TestSnapshotCacheCleanExpired(t *testing.T) {
	now := time.Now()
	c := NewSnapshotCache(time.Minute, logger.Nop())
	c.now = func() time.Time { return now }

	c.Set("a", contracts.MarketData{CurrentPrice: 1})
	now = now.Add(30 * time.Second)
	c.Set("b", contracts.MarketData{CurrentPrice: 2})
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 1, c.Len())

	md, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2.0, md.CurrentPrice)

	c.Delete("b")
	_, ok = c.Get("b")
	assert.False(t, ok)
}
