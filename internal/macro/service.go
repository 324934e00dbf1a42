// Package macro serves the read-only macro observation API: a snapshot of the
// latest indicator values per economy, per-indicator freshness, and a refresh
// that pulls from the configured data provider.
package macro

import (
	"context"
	"time"

	"go.uber.org/zap"

	"trade-journal-go/internal/apperr"
	"trade-journal-go/internal/config"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/repository"
)

// Service answers macro observation queries from the local store.
type Service struct {
	logger   *zap.Logger
	store    *repository.Store
	provider ProviderInterface
	cfg      *config.Macro
}

// NewService creates a new macro service.
func NewService(logger *zap.Logger, store *repository.Store, provider ProviderInterface, cfg *config.Macro) *Service {
	return &Service{logger: logger, store: store, provider: provider, cfg: cfg}
}

// SnapshotEntry is the latest observation of one indicator for one economy.
type SnapshotEntry struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// Snapshot is the latest value per (economy, indicator).
type Snapshot struct {
	Economies []string                            `json:"economies"`
	Matrix    map[string]map[string]SnapshotEntry `json:"matrix"`
}

// IndicatorStatus reports freshness of one indicator series.
type IndicatorStatus struct {
	Economy    string `json:"economy"`
	Indicator  string `json:"indicator"`
	LatestDate string `json:"latest_date"`
	Count      int    `json:"count"`
}

// GetSnapshot returns the latest observation per (economy, indicator),
// optionally filtered.
func (s *Service) GetSnapshot(ctx context.Context, economies, indicators []string) (Snapshot, error) {
	observations, err := s.store.Observations(ctx, economies, indicators)
	if err != nil {
		return Snapshot{}, apperr.Internal(err, "failed to load observations")
	}

	snap := Snapshot{Matrix: make(map[string]map[string]SnapshotEntry)}
	for _, obs := range observations {
		row, ok := snap.Matrix[obs.Economy]
		if !ok {
			row = make(map[string]SnapshotEntry)
			snap.Matrix[obs.Economy] = row
			snap.Economies = append(snap.Economies, obs.Economy)
		}
		// Observations arrive date-descending per series; keep the first.
		if _, seen := row[obs.Indicator]; !seen {
			row[obs.Indicator] = SnapshotEntry{Date: obs.Date, Value: obs.Value.String()}
		}
	}
	return snap, nil
}

// GetStatus reports the latest date and point count per series.
func (s *Service) GetStatus(ctx context.Context) ([]IndicatorStatus, error) {
	observations, err := s.store.Observations(ctx, nil, nil)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load observations")
	}

	var statuses []IndicatorStatus
	index := make(map[string]int)
	for _, obs := range observations {
		key := obs.Economy + "/" + obs.Indicator
		i, ok := index[key]
		if !ok {
			index[key] = len(statuses)
			statuses = append(statuses, IndicatorStatus{
				Economy:    obs.Economy,
				Indicator:  obs.Indicator,
				LatestDate: obs.Date,
			})
			i = index[key]
		}
		statuses[i].Count++
		if obs.Date > statuses[i].LatestDate {
			statuses[i].LatestDate = obs.Date
		}
	}
	return statuses, nil
}

// RefreshResult counts the outcome of one refresh run.
type RefreshResult struct {
	Fetched int `json:"fetched"`
	Failed  int `json:"failed"`
}

// Refresh pulls every configured (economy, indicator) series from the
// provider and upserts the observations. Series failures are counted, not
// fatal.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	var result RefreshResult
	now := time.Now()
	for _, economy := range s.cfg.Economies {
		for _, indicator := range s.cfg.Indicators {
			points, err := s.provider.Indicator(ctx, economy, indicator)
			if err != nil {
				s.logger.Warn("Macro series fetch failed",
					zap.String("economy", economy),
					zap.String("indicator", indicator),
					zap.Error(err))
				result.Failed++
				continue
			}
			for _, point := range points {
				obs := &models.MacroObservation{
					Economy:   point.Economy,
					Indicator: point.Indicator,
					Date:      point.Date,
					Value:     point.Value,
					FetchedAt: now,
				}
				if err := s.store.UpsertObservation(ctx, obs); err != nil {
					return result, apperr.Internal(err, "failed to store observation")
				}
				result.Fetched++
			}
		}
	}
	return result, nil
}
