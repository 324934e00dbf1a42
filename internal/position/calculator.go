// Package position derives aggregate metrics and FIFO allocations from the
// ordered detail history of one trade. Everything here is pure: callers load
// the non-deleted details and pass them in.
package position

import (
	"sort"

	"github.com/shopspring/decimal"

	"trade-journal-go/internal/models"
)

// Overview holds the aggregate metrics for one trade, recomputed from the
// non-deleted detail set. Monetary values keep full decimal precision;
// rounding happens only at presentation.
type Overview struct {
	TotalBuyQuantity  int64           `json:"total_buy_quantity"`
	TotalSellQuantity int64           `json:"total_sell_quantity"`
	RemainingQuantity int64           `json:"remaining_quantity"`
	GrossBuy          decimal.Decimal `json:"gross_buy"`
	GrossSell         decimal.Decimal `json:"gross_sell"`
	BuyFees           decimal.Decimal `json:"buy_fees"`
	SellFees          decimal.Decimal `json:"sell_fees"`
	TotalFees         decimal.Decimal `json:"total_fees"`
	RealizedPnl       decimal.Decimal `json:"realized_pnl"`
	AvgBuyPriceExFee  decimal.Decimal `json:"avg_buy_price_ex_fee"`
	AvgSellPriceExFee decimal.Decimal `json:"avg_sell_price_ex_fee"`
}

// lot is one buy detail inside the FIFO queue.
type lot struct {
	id        uint
	price     decimal.Decimal
	fee       decimal.Decimal
	quantity  int64
	remaining int64
}

// Sort orders details by (transaction_date asc, id asc), the canonical FIFO
// order. The slice is sorted in place.
func Sort(details []models.TradeDetail) {
	sort.SliceStable(details, func(i, j int) bool {
		if details[i].TransactionDate != details[j].TransactionDate {
			return details[i].TransactionDate < details[j].TransactionDate
		}
		return details[i].ID < details[j].ID
	})
}

// Compute derives the overview metrics for one trade from its detail history.
// Realized P&L is FIFO-based: each sell consumes the oldest remaining buy
// slices; the realized amount of a sell is
//
//	sum((sellPrice - buyPrice) * consumed) - sellFee - buyFee * consumed/buyQty
//
// and the trade-level figure is the sum over sells.
func Compute(details []models.TradeDetail) Overview {
	ordered := make([]models.TradeDetail, len(details))
	copy(ordered, details)
	Sort(ordered)

	ov := Overview{
		GrossBuy:          decimal.Zero,
		GrossSell:         decimal.Zero,
		BuyFees:           decimal.Zero,
		SellFees:          decimal.Zero,
		TotalFees:         decimal.Zero,
		RealizedPnl:       decimal.Zero,
		AvgBuyPriceExFee:  decimal.Zero,
		AvgSellPriceExFee: decimal.Zero,
	}

	var lots []*lot
	for i := range ordered {
		d := &ordered[i]
		qty := decimal.NewFromInt(d.Quantity)
		switch d.TransactionType {
		case models.TransactionBuy:
			ov.TotalBuyQuantity += d.Quantity
			ov.GrossBuy = ov.GrossBuy.Add(d.Price.Mul(qty))
			ov.BuyFees = ov.BuyFees.Add(d.TransactionFee)
			lots = append(lots, &lot{
				id:        d.ID,
				price:     d.Price,
				fee:       d.TransactionFee,
				quantity:  d.Quantity,
				remaining: d.Quantity,
			})
		case models.TransactionSell:
			ov.TotalSellQuantity += d.Quantity
			ov.GrossSell = ov.GrossSell.Add(d.Price.Mul(qty))
			ov.SellFees = ov.SellFees.Add(d.TransactionFee)
			ov.RealizedPnl = ov.RealizedPnl.Add(consume(lots, d))
		}
	}

	ov.RemainingQuantity = ov.TotalBuyQuantity - ov.TotalSellQuantity
	ov.TotalFees = ov.BuyFees.Add(ov.SellFees)
	if ov.TotalBuyQuantity > 0 {
		ov.AvgBuyPriceExFee = ov.GrossBuy.Div(decimal.NewFromInt(ov.TotalBuyQuantity))
	}
	if ov.TotalSellQuantity > 0 {
		ov.AvgSellPriceExFee = ov.GrossSell.Div(decimal.NewFromInt(ov.TotalSellQuantity))
	}
	return ov
}

// consume allocates one sell against the FIFO queue and returns its realized
// P&L net of the sell fee and the pro-rata share of consumed buy fees.
func consume(lots []*lot, sell *models.TradeDetail) decimal.Decimal {
	pnl := sell.TransactionFee.Neg()
	left := sell.Quantity
	for _, l := range lots {
		if left == 0 {
			break
		}
		if l.remaining == 0 {
			continue
		}
		take := l.remaining
		if take > left {
			take = left
		}
		takeDec := decimal.NewFromInt(take)
		pnl = pnl.Add(sell.Price.Sub(l.price).Mul(takeDec))
		// allocated buy fee for the consumed slice
		pnl = pnl.Sub(l.fee.Mul(takeDec).Div(decimal.NewFromInt(l.quantity)))
		l.remaining -= take
		left -= take
	}
	return pnl
}

// RemainingMap returns, for each buy detail id, the quantity still sellable
// after allocating every sell in FIFO order. A buy with residual 0 is no
// longer eligible for quick-sell.
func RemainingMap(details []models.TradeDetail) map[uint]int64 {
	ordered := make([]models.TradeDetail, len(details))
	copy(ordered, details)
	Sort(ordered)

	var lots []*lot
	for i := range ordered {
		d := &ordered[i]
		switch d.TransactionType {
		case models.TransactionBuy:
			lots = append(lots, &lot{id: d.ID, quantity: d.Quantity, remaining: d.Quantity})
		case models.TransactionSell:
			left := d.Quantity
			for _, l := range lots {
				if left == 0 {
					break
				}
				take := l.remaining
				if take > left {
					take = left
				}
				l.remaining -= take
				left -= take
			}
		}
	}

	remaining := make(map[uint]int64, len(lots))
	for _, l := range lots {
		if l.remaining < 0 {
			l.remaining = 0
		}
		remaining[l.id] = l.remaining
	}
	return remaining
}
