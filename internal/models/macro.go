package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MacroObservation is one data point of a macro indicator for one economy,
// e.g. (US, FP.CPI.TOTL.ZG, 2023) -> 4.1. Populated by the macro refresh and
// served read-only.
type MacroObservation struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	Economy   string          `gorm:"uniqueIndex:idx_macro_point;not null" json:"economy"`
	Indicator string          `gorm:"uniqueIndex:idx_macro_point;not null" json:"indicator"`
	Date      string          `gorm:"uniqueIndex:idx_macro_point;not null" json:"date"`
	Value     decimal.Decimal `gorm:"type:decimal(20,6)" json:"value"`
	FetchedAt time.Time       `json:"fetched_at"`
}
