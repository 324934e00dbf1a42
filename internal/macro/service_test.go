package macro

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/repository"
)

// MockProvider is a mock implementation of the ProviderInterface.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Indicator(ctx context.Context, economy, indicator string) ([]ProviderPoint, error) {
	args := m.Called(economy, indicator)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ProviderPoint), args.Error(1)
}

func setupTest(t *testing.T, cfg *config.Macro) (*Service, *MockProvider, *repository.Store) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.MacroObservation{})
	assert.NoError(t, err)

	store := repository.New(db)
	provider := new(MockProvider)
	return NewService(zap.NewNop(), store, provider, cfg), provider, store
}

func seed(t *testing.T, store *repository.Store, economy, indicator, date, value string) {
	err := store.UpsertObservation(context.Background(), &models.MacroObservation{
		Economy:   economy,
		Indicator: indicator,
		Date:      date,
		Value:     decimal.RequireFromString(value),
		FetchedAt: time.Now(),
	})
	assert.NoError(t, err)
}

func TestGetSnapshot_LatestPerSeries(t *testing.T) {
	service, _, store := setupTest(t, &config.Macro{})
	ctx := context.Background()

	seed(t, store, "US", "CPI", "2023", "4.12")
	seed(t, store, "US", "CPI", "2024", "2.95")
	seed(t, store, "US", "GDP", "2024", "2.8")
	seed(t, store, "CN", "CPI", "2024", "0.2")

	snap, err := service.GetSnapshot(ctx, nil, nil)

	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"US", "CN"}, snap.Economies)
	assert.Equal(t, "2024", snap.Matrix["US"]["CPI"].Date)
	assert.Equal(t, "2.95", snap.Matrix["US"]["CPI"].Value)
	assert.Equal(t, "2.8", snap.Matrix["US"]["GDP"].Value)
	assert.Equal(t, "0.2", snap.Matrix["CN"]["CPI"].Value)
}

func TestGetSnapshot_Filtered(t *testing.T) {
	service, _, store := setupTest(t, &config.Macro{})

	seed(t, store, "US", "CPI", "2024", "2.95")
	seed(t, store, "CN", "CPI", "2024", "0.2")
	seed(t, store, "US", "GDP", "2024", "2.8")

	snap, err := service.GetSnapshot(context.Background(), []string{"US"}, []string{"CPI"})

	assert.NoError(t, err)
	assert.Equal(t, []string{"US"}, snap.Economies)
	assert.Len(t, snap.Matrix["US"], 1)
}

func TestGetStatus(t *testing.T) {
	service, _, store := setupTest(t, &config.Macro{})

	seed(t, store, "US", "CPI", "2023", "4.12")
	seed(t, store, "US", "CPI", "2024", "2.95")
	seed(t, store, "CN", "CPI", "2024", "0.2")

	statuses, err := service.GetStatus(context.Background())

	assert.NoError(t, err)
	assert.Len(t, statuses, 2)
	for _, st := range statuses {
		assert.Equal(t, "2024", st.LatestDate)
		if st.Economy == "US" {
			assert.Equal(t, 2, st.Count)
		}
	}
}

func TestRefresh_CountsFailuresPerSeries(t *testing.T) {
	cfg := &config.Macro{
		Economies:  []string{"US", "CN"},
		Indicators: []string{"CPI"},
	}
	service, provider, store := setupTest(t, cfg)

	provider.On("Indicator", "US", "CPI").Return([]ProviderPoint{
		{Economy: "US", Indicator: "CPI", Date: "2024", Value: decimal.RequireFromString("2.95")},
		{Economy: "US", Indicator: "CPI", Date: "2023", Value: decimal.RequireFromString("4.12")},
	}, nil)
	provider.On("Indicator", "CN", "CPI").Return(nil, errors.New("upstream timeout"))

	result, err := service.Refresh(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 1, result.Failed)
	provider.AssertExpectations(t)

	observations, err := store.Observations(context.Background(), nil, nil)
	assert.NoError(t, err)
	assert.Len(t, observations, 2)
}

func TestRefresh_UpsertIsIdempotent(t *testing.T) {
	cfg := &config.Macro{
		Economies:  []string{"US"},
		Indicators: []string{"CPI"},
	}
	service, provider, store := setupTest(t, cfg)

	provider.On("Indicator", "US", "CPI").Return([]ProviderPoint{
		{Economy: "US", Indicator: "CPI", Date: "2024", Value: decimal.RequireFromString("2.95")},
	}, nil).Twice()

	_, err := service.Refresh(context.Background())
	assert.NoError(t, err)
	_, err = service.Refresh(context.Background())
	assert.NoError(t, err)

	observations, err := store.Observations(context.Background(), nil, nil)
	assert.NoError(t, err)
	assert.Len(t, observations, 1, "re-fetching the same point must not duplicate it")
}
