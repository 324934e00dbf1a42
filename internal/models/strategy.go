package models

import "time"

// Strategy is a named investment strategy. Trades reference strategies by a
// name snapshot, so renaming a strategy never rewrites history.
type Strategy struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
