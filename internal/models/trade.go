package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade statuses.
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Deletion states of a trade.
const (
	DeletionActive      = "active"
	DeletionSoftDeleted = "soft_deleted"
	DeletionPurged      = "purged"
)

// Transaction types of a trade detail.
const (
	TransactionBuy  = "buy"
	TransactionSell = "sell"
)

// Trade is the parent record for one symbol under one strategy. The aggregate
// columns are denormalised for read speed; the detail set is authoritative and
// every mutation recomputes them inside the same transaction.
type Trade struct {
	ID           uint    `gorm:"primarykey" json:"id"`
	StrategyID   uint    `gorm:"index" json:"strategy_id"`
	StrategyName string  `gorm:"not null" json:"strategy_name"` // name snapshot, survives renames
	SymbolCode   string  `gorm:"index;not null" json:"symbol_code"`
	SymbolName   string  `gorm:"not null" json:"symbol_name"`
	Status       string  `gorm:"not null;default:open" json:"status"`
	OpenDate     string  `gorm:"not null" json:"open_date"` // YYYY-MM-DD
	CloseDate    *string `json:"close_date"`

	TotalBuyQuantity  int64           `json:"total_buy_quantity"`
	TotalSellQuantity int64           `json:"total_sell_quantity"`
	RemainingQuantity int64           `json:"remaining_quantity"`
	TotalBuyAmount    decimal.Decimal `gorm:"type:decimal(15,3)" json:"total_buy_amount"`  // gross, ex-fee
	TotalSellAmount   decimal.Decimal `gorm:"type:decimal(15,3)" json:"total_sell_amount"` // gross, ex-fee
	TotalFees         decimal.Decimal `gorm:"type:decimal(15,3)" json:"total_fees"`
	RealizedPnl       decimal.Decimal `gorm:"type:decimal(15,3)" json:"realized_pnl"`
	HoldingDays       int             `json:"holding_days"`
	TradeLog          string          `json:"trade_log"`

	IsDeleted     bool       `gorm:"index;default:false" json:"is_deleted"`
	DeletionState string     `gorm:"not null;default:active" json:"deletion_state"`
	DeleteReason  string     `json:"delete_reason"`
	OperatorNote  string     `json:"operator_note"`
	DeletedAt     *time.Time `json:"deleted_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TradeDetail is a single buy or sell row. Order within a trade is
// (transaction_date asc, id asc) and is the sole input to FIFO allocation.
type TradeDetail struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	TradeID         uint            `gorm:"index;not null" json:"trade_id"`
	TransactionType string          `gorm:"not null" json:"transaction_type"`
	Price           decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"price"`
	Quantity        int64           `gorm:"not null" json:"quantity"`
	Amount          decimal.Decimal `gorm:"type:decimal(15,3)" json:"amount"` // price * quantity, ex-fee
	TransactionDate string          `gorm:"index;not null" json:"transaction_date"`
	TransactionFee  decimal.Decimal `gorm:"type:decimal(10,3)" json:"transaction_fee"`
	BuyReason       string          `json:"buy_reason"`
	SellReason      string          `json:"sell_reason"`
	TradeLog        string          `json:"trade_log"`

	IsDeleted bool       `gorm:"index;default:false" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at"`
	CreatedAt time.Time  `json:"created_at"`
}
