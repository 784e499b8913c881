package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/smart-portfolio/internal/contracts"
)

func candidate(id string, score int, avg, price, qty float64) contracts.ScoredStock {
	return contracts.ScoredStock{
		Stock:        contracts.Stock{ID: id, AvgPrice: avg, Quantity: qty},
		CurrentPrice: price,
		ProfitRate:   profitRate(price, avg),
		TotalScore:   score,
	}
}

func TestAllocateSellExample(t *testing.T) {
	got := AllocateSell([]contracts.ScoredStock{
		candidate("a", 95, 10000, 12000, 100),
	}, 200000)

	require.Len(t, got, 1)
	assert.Equal(t, 60.0, got[0].SellQty)
	assert.Equal(t, 120000.0, got[0].ExpectedProfit)
	assert.Equal(t, 720000.0, got[0].SellAmount)
}

func TestAllocateSellNonPositiveTarget(t *testing.T) {
	for _, target := range []float64{0, -1000} {
		got := AllocateSell([]contracts.ScoredStock{
			candidate("a", 95, 10000, 12000, 100),
			candidate("b", 75, 5000, 9000, 10),
		}, target)

		for _, c := range got {
			assert.Zero(t, c.SellQty)
			assert.Zero(t, c.SellAmount)
			assert.Zero(t, c.ExpectedProfit)
		}
	}
}

func TestAllocateSellStopsAtExactlyZeroRemaining(t *testing.T) {
	got := AllocateSell([]contracts.ScoredStock{
		candidate("a", 95, 10000, 12000, 100), // 60000 of 100000
		candidate("b", 95, 10000, 12000, 100), // min(40000, 60000) → 20 shares
		candidate("c", 95, 10000, 12000, 100), // remaining == 0
	}, 100000)

	assert.Equal(t, 30.0, got[0].SellQty)
	assert.Equal(t, 20.0, got[1].SellQty)
	assert.Equal(t, 40000.0, got[1].ExpectedProfit)
	assert.Zero(t, got[2].SellQty)
	assert.Zero(t, got[2].ExpectedProfit)
}

func TestAllocateSellCapsAtHeldQuantity(t *testing.T) {
	got := AllocateSell([]contracts.ScoredStock{
		candidate("a", 95, 1000, 1100, 10),
	}, 1000000)

	assert.Equal(t, 10.0, got[0].SellQty)
	assert.Equal(t, 1000.0, got[0].ExpectedProfit)
	assert.Equal(t, 11000.0, got[0].SellAmount)
}

func TestAllocateSellTiersUseOriginalTarget(t *testing.T) {
	got := AllocateSell([]contracts.ScoredStock{
		candidate("a", 75, 1000, 2000, 1000), // 0.3 → 30000
		candidate("b", 50, 1000, 2000, 1000), // 0.1 → 10000, not 0.1 of remaining
	}, 100000)

	assert.Equal(t, 30.0, got[0].SellQty)
	assert.Equal(t, 10.0, got[1].SellQty)
}

func TestAllocateSellCeilingOvershoot(t *testing.T) {
	got := AllocateSell([]contracts.ScoredStock{
		candidate("a", 50, 1000, 4000, 100), // 10000/3000 → ceil 4 → 12000
		candidate("b", 95, 1000, 2000, 100),
	}, 100000)

	assert.Equal(t, 4.0, got[0].SellQty)
	assert.Equal(t, 12000.0, got[0].ExpectedProfit)
	// remaining 88000 → min(88000, 60000)
	assert.Equal(t, 60.0, got[1].SellQty)
}

func TestAllocateSellSkipsLosersWithoutConsumingBudget(t *testing.T) {
	got := AllocateSell([]contracts.ScoredStock{
		candidate("loser", 95, 10000, 9000, 100),
		candidate("flat", 95, 10000, 10000, 100),
		candidate("winner", 95, 10000, 12000, 100),
	}, 200000)

	assert.Zero(t, got[0].SellQty)
	assert.Zero(t, got[1].SellQty)
	assert.Equal(t, 60.0, got[2].SellQty)
}

func TestAllocateSellDoesNotMutateInput(t *testing.T) {
	in := []contracts.ScoredStock{candidate("a", 95, 10000, 12000, 100)}
	in[0].SellQty = 999

	got := AllocateSell(in, 200000)

	assert.Equal(t, 999.0, in[0].SellQty)
	assert.Equal(t, 60.0, got[0].SellQty)
	assert.Equal(t, "a", got[0].ID)
}

func TestAllocateSellEmpty(t *testing.T) {
	assert.Empty(t, AllocateSell(nil, 100000))
}
