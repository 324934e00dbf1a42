package journal

import (
	"fmt"
	"time"

	"trade-journal-go/internal/apperr"
)

// PeriodRange resolves a reporting period to an inclusive (from, to) date
// range. Supported period types:
//
//	year    "2024"
//	quarter "2024-Q1"
//	month   "2024-02"
//
// Month ends are computed from the calendar, so February respects leap years.
func PeriodRange(period, periodType string) (string, string, error) {
	switch periodType {
	case "year":
		var year int
		if _, err := fmt.Sscanf(period, "%4d", &year); err != nil || len(period) != 4 {
			return "", "", apperr.Validation("year period must look like 2024")
		}
		return fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year), nil

	case "quarter":
		var year, quarter int
		if _, err := fmt.Sscanf(period, "%4d-Q%d", &year, &quarter); err != nil || quarter < 1 || quarter > 4 {
			return "", "", apperr.Validation("quarter period must look like 2024-Q1")
		}
		startMonth := time.Month((quarter-1)*3 + 1)
		start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 3, -1)
		return start.Format(dateLayout), end.Format(dateLayout), nil

	case "month":
		start, err := time.Parse("2006-01", period)
		if err != nil {
			return "", "", apperr.Validation("month period must look like 2024-02")
		}
		end := start.AddDate(0, 1, -1)
		return start.Format(dateLayout), end.Format(dateLayout), nil

	default:
		return "", "", apperr.Validation("period type must be year, quarter or month")
	}
}
