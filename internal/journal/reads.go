package journal

import (
	"context"

	"trade-journal-go/internal/apperr"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/position"
	"trade-journal-go/internal/repository"
)

// DetailView augments a detail row with its FIFO residual for the details
// page: buys carry the quantity still sellable, sells carry zero.
type DetailView struct {
	models.TradeDetail
	RemainingForQuickSell int64 `json:"remaining_for_quick_sell"`
	CanQuickSell          bool  `json:"can_quick_sell"`
}

// TradeByID returns one trade or not_found. Soft-deleted trades are only
// visible when includeDeleted is set.
func (s *Service) TradeByID(ctx context.Context, id uint, includeDeleted bool) (*models.Trade, error) {
	trade, err := s.store.TradeByID(ctx, id, includeDeleted)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load trade")
	}
	if trade == nil {
		return nil, apperr.NotFound("trade %d does not exist", id)
	}
	return trade, nil
}

// List returns trades matching the filters.
func (s *Service) List(ctx context.Context, params repository.ListTradesParams) ([]models.Trade, error) {
	trades, err := s.store.ListTrades(ctx, params)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list trades")
	}
	return trades, nil
}

// DeletedTrades returns the soft-deleted trades.
func (s *Service) DeletedTrades(ctx context.Context) ([]models.Trade, error) {
	trades, err := s.store.DeletedTrades(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list deleted trades")
	}
	return trades, nil
}

// Details returns the ordered detail rows of one trade augmented with their
// FIFO residuals and quick-sell eligibility.
func (s *Service) Details(ctx context.Context, tradeID uint) ([]DetailView, error) {
	trade, err := s.TradeByID(ctx, tradeID, true)
	if err != nil {
		return nil, err
	}
	details, err := s.store.Details(ctx, tradeID, false)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load details")
	}

	remaining := position.RemainingMap(details)
	views := make([]DetailView, 0, len(details))
	for _, d := range details {
		view := DetailView{TradeDetail: d}
		if d.TransactionType == models.TransactionBuy {
			view.RemainingForQuickSell = remaining[d.ID]
			view.CanQuickSell = trade.Status == models.StatusOpen &&
				trade.RemainingQuantity > 0 && view.RemainingForQuickSell > 0
		}
		views = append(views, view)
	}
	return views, nil
}

// Overview computes the aggregate metrics of one trade from its non-deleted
// detail set.
func (s *Service) Overview(ctx context.Context, tradeID uint) (position.Overview, error) {
	if _, err := s.TradeByID(ctx, tradeID, true); err != nil {
		return position.Overview{}, err
	}
	details, err := s.store.Details(ctx, tradeID, false)
	if err != nil {
		return position.Overview{}, apperr.Internal(err, "failed to load details")
	}
	return position.Compute(details), nil
}

// RemainingMap returns the FIFO residual per buy detail id.
func (s *Service) RemainingMap(ctx context.Context, tradeID uint) (map[uint]int64, error) {
	if _, err := s.TradeByID(ctx, tradeID, true); err != nil {
		return nil, err
	}
	details, err := s.store.Details(ctx, tradeID, false)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load details")
	}
	return position.RemainingMap(details), nil
}

// Modifications returns the modification history of one trade, newest first.
func (s *Service) Modifications(ctx context.Context, tradeID uint) ([]models.TradeModification, error) {
	mods, err := s.store.Modifications(ctx, tradeID)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load modifications")
	}
	return mods, nil
}
