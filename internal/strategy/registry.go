// Package strategy manages the named strategies trades are journaled under.
package strategy

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"trade-journal-go/internal/apperr"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/repository"
)

// Registry is the CRUD service over strategies. Renaming a strategy never
// touches trades: they carry a name snapshot taken at buy time.
type Registry struct {
	logger *zap.Logger
	store  *repository.Store
}

// NewRegistry creates a new strategy registry.
func NewRegistry(logger *zap.Logger, store *repository.Store) *Registry {
	return &Registry{logger: logger, store: store}
}

// GetAll returns every strategy ordered by name.
func (r *Registry) GetAll(ctx context.Context) ([]models.Strategy, error) {
	strategies, err := r.store.Strategies(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load strategies")
	}
	return strategies, nil
}

// GetByID returns one strategy or not_found.
func (r *Registry) GetByID(ctx context.Context, id uint) (*models.Strategy, error) {
	strategy, err := r.store.StrategyByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err, "failed to load strategy")
	}
	if strategy == nil {
		return nil, apperr.NotFound("strategy %d does not exist", id)
	}
	return strategy, nil
}

// Create adds a strategy with a unique, non-empty name.
func (r *Registry) Create(ctx context.Context, name, description string) (*models.Strategy, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("strategy name must not be empty")
	}

	existing, err := r.store.StrategyByName(ctx, name)
	if err != nil {
		return nil, apperr.Internal(err, "failed to check strategy name")
	}
	if existing != nil {
		return nil, apperr.Conflict("strategy %q already exists", name)
	}

	strategy := &models.Strategy{Name: name, Description: description}
	if err := r.store.CreateStrategy(ctx, strategy); err != nil {
		return nil, apperr.Internal(err, "failed to create strategy")
	}
	r.logger.Info("Strategy created", zap.Uint("id", strategy.ID), zap.String("name", name))
	return strategy, nil
}

// Rename updates a strategy's name and description. Historical trades keep
// the old name snapshot.
func (r *Registry) Rename(ctx context.Context, id uint, name, description string) (*models.Strategy, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("strategy name must not be empty")
	}

	strategy, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	conflict, err := r.store.StrategyByName(ctx, name)
	if err != nil {
		return nil, apperr.Internal(err, "failed to check strategy name")
	}
	if conflict != nil && conflict.ID != id {
		return nil, apperr.Conflict("strategy %q already exists", name)
	}

	strategy.Name = name
	strategy.Description = description
	if err := r.store.SaveStrategy(ctx, strategy); err != nil {
		return nil, apperr.Internal(err, "failed to update strategy")
	}
	r.logger.Info("Strategy renamed", zap.Uint("id", id), zap.String("name", name))
	return strategy, nil
}
