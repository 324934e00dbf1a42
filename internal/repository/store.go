// Package repository is the persistence gateway over gorm. Services run every
// mutating operation inside one InTx block; reads outside transactions observe
// only committed state.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trade-journal-go/internal/models"
)

// Store wraps a gorm DB handle. Inside InTx the handle is the transaction.
type Store struct {
	db *gorm.DB
}

// New creates a Store over an opened database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// InTx runs fn inside a single transaction: commit on nil, rollback on any
// error. Each public lifecycle operation is one such block.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// --- trades -----------------------------------------------------------------

// ListTradesParams are the filters for ListTrades. Nil/empty fields are
// ignored.
type ListTradesParams struct {
	Status         string // open | closed
	StrategyID     uint
	StrategyName   string
	SymbolCodes    []string
	DateFrom       string
	DateTo         string
	IncludeDeleted bool
}

// TradeByID fetches one trade, nil when absent. Soft-deleted trades are
// excluded unless includeDeleted is set.
func (s *Store) TradeByID(ctx context.Context, id uint, includeDeleted bool) (*models.Trade, error) {
	query := s.db.WithContext(ctx).Where("id = ?", id)
	if !includeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	var trade models.Trade
	if err := query.First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trade, nil
}

// OpenTradeFor returns the open, non-deleted parent for (strategy name,
// symbol code), or nil when a new parent must be created.
func (s *Store) OpenTradeFor(ctx context.Context, strategyName, symbolCode string) (*models.Trade, error) {
	var trade models.Trade
	err := s.db.WithContext(ctx).
		Where("strategy_name = ? AND symbol_code = ? AND status = ? AND is_deleted = ?",
			strategyName, symbolCode, models.StatusOpen, false).
		First(&trade).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trade, nil
}

func (s *Store) CreateTrade(ctx context.Context, trade *models.Trade) error {
	return s.db.WithContext(ctx).Create(trade).Error
}

// SaveTrade persists the full trade row, including zero-valued columns.
func (s *Store) SaveTrade(ctx context.Context, trade *models.Trade) error {
	return s.db.WithContext(ctx).Save(trade).Error
}

// ListTrades returns trades matching the filters, newest opened first.
func (s *Store) ListTrades(ctx context.Context, params ListTradesParams) ([]models.Trade, error) {
	query := s.db.WithContext(ctx).Model(&models.Trade{})
	if !params.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.StrategyID != 0 {
		query = query.Where("strategy_id = ?", params.StrategyID)
	}
	if params.StrategyName != "" {
		query = query.Where("strategy_name = ?", params.StrategyName)
	}
	if len(params.SymbolCodes) > 0 {
		query = query.Where("symbol_code IN ?", params.SymbolCodes)
	}
	if params.DateFrom != "" {
		query = query.Where("open_date >= ?", params.DateFrom)
	}
	if params.DateTo != "" {
		query = query.Where("open_date <= ?", params.DateTo)
	}
	var trades []models.Trade
	if err := query.Order("open_date DESC, id DESC").Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

// DeletedTrades returns soft-deleted trades, most recently deleted first.
func (s *Store) DeletedTrades(ctx context.Context) ([]models.Trade, error) {
	var trades []models.Trade
	err := s.db.WithContext(ctx).
		Where("is_deleted = ?", true).
		Order("deleted_at DESC").
		Find(&trades).Error
	if err != nil {
		return nil, err
	}
	return trades, nil
}

// PurgeTrade physically removes the trade, its details and its modification
// history. Only reachable from the soft_deleted state.
func (s *Store) PurgeTrade(ctx context.Context, tradeID uint) error {
	db := s.db.WithContext(ctx)
	if err := db.Where("trade_id = ?", tradeID).Delete(&models.TradeDetail{}).Error; err != nil {
		return err
	}
	if err := db.Where("trade_id = ?", tradeID).Delete(&models.TradeModification{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", tradeID).Delete(&models.Trade{}).Error
}

// --- details ----------------------------------------------------------------

// Details returns the detail rows of one trade in FIFO order
// (transaction_date asc, id asc).
func (s *Store) Details(ctx context.Context, tradeID uint, includeDeleted bool) ([]models.TradeDetail, error) {
	query := s.db.WithContext(ctx).Where("trade_id = ?", tradeID)
	if !includeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	var details []models.TradeDetail
	if err := query.Order("transaction_date, id").Find(&details).Error; err != nil {
		return nil, err
	}
	return details, nil
}

// DetailByID fetches one detail row belonging to the given trade, nil when
// absent.
func (s *Store) DetailByID(ctx context.Context, tradeID, detailID uint) (*models.TradeDetail, error) {
	var detail models.TradeDetail
	err := s.db.WithContext(ctx).
		Where("id = ? AND trade_id = ? AND is_deleted = ?", detailID, tradeID, false).
		First(&detail).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &detail, nil
}

func (s *Store) CreateDetail(ctx context.Context, detail *models.TradeDetail) error {
	return s.db.WithContext(ctx).Create(detail).Error
}

func (s *Store) SaveDetail(ctx context.Context, detail *models.TradeDetail) error {
	return s.db.WithContext(ctx).Save(detail).Error
}

// SetDetailsDeleted flips the soft-delete flag on every detail of a trade,
// cascading the parent's transition.
func (s *Store) SetDetailsDeleted(ctx context.Context, tradeID uint, deleted bool, at *time.Time) error {
	return s.db.WithContext(ctx).
		Model(&models.TradeDetail{}).
		Where("trade_id = ?", tradeID).
		Updates(map[string]any{"is_deleted": deleted, "deleted_at": at}).Error
}

// --- modification log -------------------------------------------------------

func (s *Store) AppendModification(ctx context.Context, mod *models.TradeModification) error {
	return s.db.WithContext(ctx).Create(mod).Error
}

// Modifications returns the modification history of one trade, newest first.
func (s *Store) Modifications(ctx context.Context, tradeID uint) ([]models.TradeModification, error) {
	var mods []models.TradeModification
	err := s.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("created_at DESC, id DESC").
		Find(&mods).Error
	if err != nil {
		return nil, err
	}
	return mods, nil
}

// --- strategies -------------------------------------------------------------

func (s *Store) Strategies(ctx context.Context) ([]models.Strategy, error) {
	var strategies []models.Strategy
	if err := s.db.WithContext(ctx).Order("name").Find(&strategies).Error; err != nil {
		return nil, err
	}
	return strategies, nil
}

func (s *Store) StrategyByID(ctx context.Context, id uint) (*models.Strategy, error) {
	var strategy models.Strategy
	if err := s.db.WithContext(ctx).First(&strategy, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &strategy, nil
}

func (s *Store) StrategyByName(ctx context.Context, name string) (*models.Strategy, error) {
	var strategy models.Strategy
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&strategy).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &strategy, nil
}

func (s *Store) CreateStrategy(ctx context.Context, strategy *models.Strategy) error {
	return s.db.WithContext(ctx).Create(strategy).Error
}

func (s *Store) SaveStrategy(ctx context.Context, strategy *models.Strategy) error {
	return s.db.WithContext(ctx).Save(strategy).Error
}

// --- macro observations -----------------------------------------------------

// UpsertObservation inserts or refreshes one (economy, indicator, date) point.
func (s *Store) UpsertObservation(ctx context.Context, obs *models.MacroObservation) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "economy"}, {Name: "indicator"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "fetched_at"}),
	}).Create(obs).Error
}

// Observations returns macro points filtered by economies and indicators,
// newest date first.
func (s *Store) Observations(ctx context.Context, economies, indicators []string) ([]models.MacroObservation, error) {
	query := s.db.WithContext(ctx).Model(&models.MacroObservation{})
	if len(economies) > 0 {
		query = query.Where("economy IN ?", economies)
	}
	if len(indicators) > 0 {
		query = query.Where("indicator IN ?", indicators)
	}
	var observations []models.MacroObservation
	if err := query.Order("economy, indicator, date DESC").Find(&observations).Error; err != nil {
		return nil, err
	}
	return observations, nil
}
