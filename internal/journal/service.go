// Package journal is the trade lifecycle manager: it creates buys, appends
// sells, edits details and drives the deletion state machine. Every mutating
// operation runs inside a single transaction and recomputes the parent's
// aggregates from the non-deleted detail set.
package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"trade-journal-go/internal/apperr"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/position"
	"trade-journal-go/internal/repository"
	"trade-journal-go/internal/strategy"
)

const dateLayout = "2006-01-02"

// Service orchestrates the trade lifecycle.
type Service struct {
	logger   *zap.Logger
	store    *repository.Store
	registry *strategy.Registry
}

// NewService creates a new lifecycle manager.
func NewService(logger *zap.Logger, store *repository.Store, registry *strategy.Registry) *Service {
	return &Service{logger: logger, store: store, registry: registry}
}

// BuyInput are the fields of an add-buy request.
type BuyInput struct {
	StrategyID      uint
	SymbolCode      string
	SymbolName      string
	Price           decimal.Decimal
	Quantity        int64
	TransactionDate string
	Fee             decimal.Decimal
	BuyReason       string
}

// SellInput are the fields of an add-sell request.
type SellInput struct {
	TradeID         uint
	Price           decimal.Decimal
	Quantity        int64
	TransactionDate string
	Fee             decimal.Decimal
	SellReason      string
	TradeLog        string
}

// DetailUpdate is a partial update of one detail row. Nil fields keep the
// stored value.
type DetailUpdate struct {
	DetailID   uint
	Price      *decimal.Decimal
	Quantity   *int64
	Fee        *decimal.Decimal
	BuyReason  *string
	SellReason *string
}

func validateTransaction(price decimal.Decimal, quantity int64, date string, fee decimal.Decimal) error {
	if !price.IsPositive() {
		return apperr.Validation("price must be greater than 0")
	}
	if quantity <= 0 {
		return apperr.Validation("quantity must be greater than 0")
	}
	if fee.IsNegative() {
		return apperr.Validation("transaction fee must not be negative")
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return apperr.Validation("transaction date must be YYYY-MM-DD")
	}
	return nil
}

// AddBuy records a buy. It appends to the open, non-deleted parent for
// (strategy name, symbol code) or creates a new parent, and returns the
// parent trade id.
func (s *Service) AddBuy(ctx context.Context, in BuyInput) (uint, error) {
	if in.SymbolCode == "" || in.SymbolName == "" {
		return 0, apperr.Validation("symbol code and name must not be empty")
	}
	if err := validateTransaction(in.Price, in.Quantity, in.TransactionDate, in.Fee); err != nil {
		return 0, err
	}

	st, err := s.registry.GetByID(ctx, in.StrategyID)
	if err != nil {
		return 0, apperr.Validation("strategy %d does not exist", in.StrategyID)
	}

	var tradeID uint
	err = s.store.InTx(ctx, func(tx *repository.Store) error {
		trade, err := tx.OpenTradeFor(ctx, st.Name, in.SymbolCode)
		if err != nil {
			return apperr.Internal(err, "failed to look up open trade")
		}

		created := trade == nil
		if created {
			trade = &models.Trade{
				StrategyID:    st.ID,
				StrategyName:  st.Name,
				SymbolCode:    in.SymbolCode,
				SymbolName:    in.SymbolName,
				Status:        models.StatusOpen,
				OpenDate:      in.TransactionDate,
				DeletionState: models.DeletionActive,
			}
			if err := tx.CreateTrade(ctx, trade); err != nil {
				return apperr.Internal(err, "failed to create trade")
			}
		}

		detail := &models.TradeDetail{
			TradeID:         trade.ID,
			TransactionType: models.TransactionBuy,
			Price:           in.Price,
			Quantity:        in.Quantity,
			Amount:          in.Price.Mul(decimal.NewFromInt(in.Quantity)),
			TransactionDate: in.TransactionDate,
			TransactionFee:  in.Fee,
			BuyReason:       in.BuyReason,
		}
		if err := tx.CreateDetail(ctx, detail); err != nil {
			return apperr.Internal(err, "failed to insert buy detail")
		}

		if err := s.recompute(ctx, tx, trade); err != nil {
			return err
		}

		kind := models.ModAppendBuy
		if created {
			kind = models.ModCreate
		}
		mod := &models.TradeModification{
			TradeID:  trade.ID,
			DetailID: &detail.ID,
			Kind:     kind,
			Description: fmt.Sprintf("buy %d @ %s on %s",
				in.Quantity, in.Price.String(), in.TransactionDate),
		}
		if err := tx.AppendModification(ctx, mod); err != nil {
			return apperr.Internal(err, "failed to record modification")
		}

		tradeID = trade.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Buy recorded",
		zap.Uint("trade_id", tradeID),
		zap.String("symbol", in.SymbolCode),
		zap.Int64("quantity", in.Quantity))
	return tradeID, nil
}

// AddSell records a sell against an existing trade. The sell quantity must
// not exceed the remaining position; when it brings the position to zero the
// trade closes with close date = transaction date.
func (s *Service) AddSell(ctx context.Context, in SellInput) error {
	if err := validateTransaction(in.Price, in.Quantity, in.TransactionDate, in.Fee); err != nil {
		return err
	}

	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		trade, err := tx.TradeByID(ctx, in.TradeID, false)
		if err != nil {
			return apperr.Internal(err, "failed to load trade")
		}
		if trade == nil {
			return apperr.NotFound("trade %d does not exist", in.TradeID)
		}
		if trade.Status == models.StatusClosed {
			return apperr.Validation("trade %d is already closed", in.TradeID)
		}
		if trade.RemainingQuantity < in.Quantity {
			return apperr.Validation("sell quantity (%d) exceeds remaining position (%d)",
				in.Quantity, trade.RemainingQuantity)
		}

		detail := &models.TradeDetail{
			TradeID:         trade.ID,
			TransactionType: models.TransactionSell,
			Price:           in.Price,
			Quantity:        in.Quantity,
			Amount:          in.Price.Mul(decimal.NewFromInt(in.Quantity)),
			TransactionDate: in.TransactionDate,
			TransactionFee:  in.Fee,
			SellReason:      in.SellReason,
			TradeLog:        in.TradeLog,
		}
		if err := tx.CreateDetail(ctx, detail); err != nil {
			return apperr.Internal(err, "failed to insert sell detail")
		}

		if in.TradeLog != "" {
			trade.TradeLog = in.TradeLog
		}
		if err := s.recompute(ctx, tx, trade); err != nil {
			return err
		}

		mod := &models.TradeModification{
			TradeID:  trade.ID,
			DetailID: &detail.ID,
			Kind:     models.ModAppendSell,
			Description: fmt.Sprintf("sell %d @ %s on %s",
				in.Quantity, in.Price.String(), in.TransactionDate),
		}
		if err := tx.AppendModification(ctx, mod); err != nil {
			return apperr.Internal(err, "failed to record modification")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Sell recorded", zap.Uint("trade_id", in.TradeID), zap.Int64("quantity", in.Quantity))
	return nil
}

// EditDetails applies partial updates to detail rows of one trade and
// recomputes the aggregates. An edit that would drive the remaining quantity
// negative is rejected without mutation.
func (s *Service) EditDetails(ctx context.Context, tradeID uint, updates []DetailUpdate, reason string) error {
	if len(updates) == 0 {
		return apperr.Validation("no detail updates provided")
	}

	return s.store.InTx(ctx, func(tx *repository.Store) error {
		trade, err := tx.TradeByID(ctx, tradeID, false)
		if err != nil {
			return apperr.Internal(err, "failed to load trade")
		}
		if trade == nil {
			return apperr.NotFound("trade %d does not exist", tradeID)
		}

		for _, upd := range updates {
			detail, err := tx.DetailByID(ctx, tradeID, upd.DetailID)
			if err != nil {
				return apperr.Internal(err, "failed to load detail")
			}
			if detail == nil {
				return apperr.NotFound("detail %d does not belong to trade %d", upd.DetailID, tradeID)
			}

			before := fmt.Sprintf("%s %d @ %s fee %s",
				detail.TransactionType, detail.Quantity, detail.Price.String(), detail.TransactionFee.String())

			if upd.Price != nil {
				detail.Price = *upd.Price
			}
			if upd.Quantity != nil {
				detail.Quantity = *upd.Quantity
			}
			if upd.Fee != nil {
				detail.TransactionFee = *upd.Fee
			}
			if upd.BuyReason != nil {
				detail.BuyReason = *upd.BuyReason
			}
			if upd.SellReason != nil {
				detail.SellReason = *upd.SellReason
			}
			if err := validateTransaction(detail.Price, detail.Quantity, detail.TransactionDate, detail.TransactionFee); err != nil {
				return err
			}
			detail.Amount = detail.Price.Mul(decimal.NewFromInt(detail.Quantity))
			if err := tx.SaveDetail(ctx, detail); err != nil {
				return apperr.Internal(err, "failed to update detail")
			}

			after := fmt.Sprintf("%s %d @ %s fee %s",
				detail.TransactionType, detail.Quantity, detail.Price.String(), detail.TransactionFee.String())
			mod := &models.TradeModification{
				TradeID:      tradeID,
				DetailID:     &upd.DetailID,
				Kind:         models.ModEdit,
				Description:  fmt.Sprintf("%s -> %s (%s)", before, after, reason),
				OperatorNote: reason,
			}
			if err := tx.AppendModification(ctx, mod); err != nil {
				return apperr.Internal(err, "failed to record modification")
			}
		}

		if err := s.recompute(ctx, tx, trade); err != nil {
			return err
		}
		if trade.RemainingQuantity < 0 {
			return apperr.Validation("edit would make sold quantity exceed bought quantity")
		}
		return nil
	})
}

// recompute rebuilds the denormalised aggregate columns of the parent from
// the current non-deleted detail set and saves the trade row.
func (s *Service) recompute(ctx context.Context, tx *repository.Store, trade *models.Trade) error {
	details, err := tx.Details(ctx, trade.ID, false)
	if err != nil {
		return apperr.Internal(err, "failed to load details")
	}
	ov := position.Compute(details)

	trade.TotalBuyQuantity = ov.TotalBuyQuantity
	trade.TotalSellQuantity = ov.TotalSellQuantity
	trade.RemainingQuantity = ov.RemainingQuantity
	trade.TotalBuyAmount = ov.GrossBuy
	trade.TotalSellAmount = ov.GrossSell
	trade.TotalFees = ov.TotalFees
	trade.RealizedPnl = ov.RealizedPnl

	if ov.RemainingQuantity == 0 && ov.TotalSellQuantity > 0 {
		trade.Status = models.StatusClosed
		closeDate := lastSellDate(details)
		trade.CloseDate = &closeDate
		trade.HoldingDays = holdingDays(trade.OpenDate, closeDate)
	} else {
		trade.Status = models.StatusOpen
		trade.CloseDate = nil
		trade.HoldingDays = 0
	}

	if err := tx.SaveTrade(ctx, trade); err != nil {
		return apperr.Internal(err, "failed to update trade")
	}
	return nil
}

func lastSellDate(details []models.TradeDetail) string {
	position.Sort(details)
	last := ""
	for _, d := range details {
		if d.TransactionType == models.TransactionSell {
			last = d.TransactionDate
		}
	}
	return last
}

func holdingDays(openDate, closeDate string) int {
	open, err1 := time.Parse(dateLayout, openDate)
	closed, err2 := time.Parse(dateLayout, closeDate)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(closed.Sub(open).Hours() / 24)
}
