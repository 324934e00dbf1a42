package position

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"trade-journal-go/internal/models"
)

func buy(id uint, date string, price string, qty int64, fee string) models.TradeDetail {
	return models.TradeDetail{
		ID:              id,
		TransactionType: models.TransactionBuy,
		Price:           decimal.RequireFromString(price),
		Quantity:        qty,
		TransactionDate: date,
		TransactionFee:  decimal.RequireFromString(fee),
	}
}

func sell(id uint, date string, price string, qty int64, fee string) models.TradeDetail {
	return models.TradeDetail{
		ID:              id,
		TransactionType: models.TransactionSell,
		Price:           decimal.RequireFromString(price),
		Quantity:        qty,
		TransactionDate: date,
		TransactionFee:  decimal.RequireFromString(fee),
	}
}

func TestCompute_Empty(t *testing.T) {
	ov := Compute(nil)

	assert.Equal(t, int64(0), ov.TotalBuyQuantity)
	assert.Equal(t, int64(0), ov.RemainingQuantity)
	assert.True(t, ov.RealizedPnl.IsZero())
	assert.True(t, ov.AvgBuyPriceExFee.IsZero())
}

func TestCompute_SingleRoundTrip(t *testing.T) {
	details := []models.TradeDetail{
		buy(1, "2024-01-02", "100", 10, "1"),
		sell(2, "2024-02-01", "120", 10, "1"),
	}

	ov := Compute(details)

	assert.Equal(t, int64(10), ov.TotalBuyQuantity)
	assert.Equal(t, int64(10), ov.TotalSellQuantity)
	assert.Equal(t, int64(0), ov.RemainingQuantity)
	// (120-100)*10 - 1 sell fee - 1 buy fee fully allocated
	assert.True(t, ov.RealizedPnl.Equal(decimal.RequireFromString("198")),
		"got %s", ov.RealizedPnl)
	assert.True(t, ov.TotalFees.Equal(decimal.RequireFromString("2")))
	assert.True(t, ov.AvgBuyPriceExFee.Equal(decimal.RequireFromString("100")))
	assert.True(t, ov.AvgSellPriceExFee.Equal(decimal.RequireFromString("120")))
}

func TestCompute_FifoAcrossTwoBuys(t *testing.T) {
	details := []models.TradeDetail{
		buy(1, "2024-01-02", "100", 10, "0"),
		buy(2, "2024-01-05", "110", 10, "0"),
		sell(3, "2024-01-10", "130", 15, "0"),
	}

	ov := Compute(details)

	// (130-100)*10 + (130-110)*5 = 400
	assert.True(t, ov.RealizedPnl.Equal(decimal.RequireFromString("400")),
		"got %s", ov.RealizedPnl)
	assert.Equal(t, int64(5), ov.RemainingQuantity)

	residuals := RemainingMap(details)
	assert.Equal(t, int64(0), residuals[1])
	assert.Equal(t, int64(5), residuals[2])
}

func TestCompute_PartialBuyFeeAllocation(t *testing.T) {
	// Selling half the lot allocates half of its buy fee.
	details := []models.TradeDetail{
		buy(1, "2024-01-02", "100", 10, "2"),
		sell(2, "2024-01-20", "110", 5, "0.5"),
	}

	ov := Compute(details)

	// (110-100)*5 - 0.5 - 2*5/10 = 48.5
	assert.True(t, ov.RealizedPnl.Equal(decimal.RequireFromString("48.5")),
		"got %s", ov.RealizedPnl)
	assert.Equal(t, int64(5), ov.RemainingQuantity)
}

func TestCompute_OrdersByDateThenID(t *testing.T) {
	// The later-id buy has the earlier date and must be consumed first.
	details := []models.TradeDetail{
		buy(5, "2024-03-01", "200", 5, "0"),
		buy(9, "2024-01-01", "100", 5, "0"),
		sell(10, "2024-04-01", "150", 5, "0"),
	}

	ov := Compute(details)

	// consumes the 2024-01-01 buy at 100: (150-100)*5 = 250
	assert.True(t, ov.RealizedPnl.Equal(decimal.RequireFromString("250")),
		"got %s", ov.RealizedPnl)

	residuals := RemainingMap(details)
	assert.Equal(t, int64(5), residuals[5])
	assert.Equal(t, int64(0), residuals[9])
}

func TestRemainingMap_SumMatchesRemaining(t *testing.T) {
	details := []models.TradeDetail{
		buy(1, "2024-01-02", "100", 10, "0"),
		buy(2, "2024-01-03", "101", 7, "0"),
		buy(3, "2024-01-04", "102", 3, "0"),
		sell(4, "2024-01-10", "120", 12, "0"),
		sell(5, "2024-01-11", "125", 4, "0"),
	}

	ov := Compute(details)
	residuals := RemainingMap(details)

	var sum int64
	for _, r := range residuals {
		sum += r
	}
	assert.Equal(t, ov.RemainingQuantity, sum)
	assert.Equal(t, int64(4), sum)
}

func TestCompute_IgnoresInputOrderMutation(t *testing.T) {
	details := []models.TradeDetail{
		sell(2, "2024-02-01", "120", 10, "0"),
		buy(1, "2024-01-02", "100", 10, "0"),
	}
	Compute(details)

	// Compute must not reorder the caller's slice.
	assert.Equal(t, models.TransactionSell, details[0].TransactionType)
}
