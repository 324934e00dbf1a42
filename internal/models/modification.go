package models

import "time"

// Modification kinds.
const (
	ModCreate     = "create"
	ModAppendBuy  = "append_buy"
	ModAppendSell = "append_sell"
	ModEdit       = "edit"
	ModSoftDelete = "soft_delete"
	ModRestore    = "restore"
	ModPurge      = "purge"
)

// TradeModification is an append-only audit row describing one change to a
// trade. Destructive kinds carry the confirmation code the caller submitted.
type TradeModification struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	TradeID          uint      `gorm:"index;not null" json:"trade_id"`
	DetailID         *uint     `json:"detail_id"`
	Kind             string    `gorm:"not null" json:"kind"`
	Description      string    `json:"description"`
	ConfirmationCode string    `json:"confirmation_code"`
	OperatorNote     string    `json:"operator_note"`
	CreatedAt        time.Time `json:"created_at"`
}
