package journal

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"trade-journal-go/internal/apperr"
	"trade-journal-go/internal/models"
	"trade-journal-go/internal/repository"
	"trade-journal-go/internal/strategy"
)

// setupTest creates a service over a fresh in-memory database. The DSN is
// named after the test so pooled connections share one database without
// leaking state across tests.
func setupTest(t *testing.T) (*Service, *strategy.Registry, *repository.Store) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.Strategy{}, &models.Trade{}, &models.TradeDetail{}, &models.TradeModification{})
	assert.NoError(t, err)

	store := repository.New(db)
	registry := strategy.NewRegistry(zap.NewNop(), store)
	service := NewService(zap.NewNop(), store, registry)
	return service, registry, store
}

func mustStrategy(t *testing.T, registry *strategy.Registry, name string) *models.Strategy {
	st, err := registry.Create(context.Background(), name, "")
	assert.NoError(t, err)
	return st
}

func buyInput(strategyID uint, price string, qty int64, fee, date string) BuyInput {
	return BuyInput{
		StrategyID:      strategyID,
		SymbolCode:      "AAPL",
		SymbolName:      "Apple",
		Price:           decimal.RequireFromString(price),
		Quantity:        qty,
		TransactionDate: date,
		Fee:             decimal.RequireFromString(fee),
	}
}

func sellInput(tradeID uint, price string, qty int64, fee, date string) SellInput {
	return SellInput{
		TradeID:         tradeID,
		Price:           decimal.RequireFromString(price),
		Quantity:        qty,
		TransactionDate: date,
		Fee:             decimal.RequireFromString(fee),
	}
}

func TestAddBuy_CreatesParentThenAppends(t *testing.T) {
	service, registry, _ := setupTest(t)
	ctx := context.Background()
	st := mustStrategy(t, registry, "Core")

	firstID, err := service.AddBuy(ctx, buyInput(st.ID, "100", 10, "0", "2024-01-02"))
	assert.NoError(t, err)

	secondID, err := service.AddBuy(ctx, buyInput(st.ID, "110", 10, "0", "2024-01-05"))
	assert.NoError(t, err)
	assert.Equal(t, firstID, secondID, "same open strategy+symbol must share one parent")

	trade, err := service.TradeByID(ctx, firstID, false)
	assert.NoError(t, err)
	assert.Equal(t, int64(20), trade.TotalBuyQuantity)
	assert.Equal(t, int64(20), trade.RemainingQuantity)
	assert.Equal(t, models.StatusOpen, trade.Status)
	assert.Equal(t, "Core", trade.StrategyName)
	assert.Equal(t, "2024-01-02", trade.OpenDate)
}

func TestAddBuy_UnknownStrategy(t *testing.T) {
	service, _, _ := setupTest(t)

	_, err := service.AddBuy(context.Background(), buyInput(42, "100", 10, "0", "2024-01-02"))

	assert.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.From(err).Code)
}

func TestAddBuy_RejectsBadInput(t *testing.T) {
	service, registry, _ := setupTest(t)
	st := mustStrategy(t, registry, "Core")

	cases := []BuyInput{
		buyInput(st.ID, "0", 10, "0", "2024-01-02"),
		buyInput(st.ID, "100", 0, "0", "2024-01-02"),
		buyInput(st.ID, "100", 10, "-1", "2024-01-02"),
		buyInput(st.ID, "100", 10, "0", "02/01/2024"),
	}
	for _, in := range cases {
		_, err := service.AddBuy(context.Background(), in)
		assert.Error(t, err)
		assert.Equal(t, apperr.CodeValidation, apperr.From(err).Code)
	}
}

func TestAddSell_SingleRoundTripClosesTrade(t *testing.T) {
	service, registry, _ := setupTest(t)
	ctx := context.Background()
	st := mustStrategy(t, registry, "Core")

	tradeID, err := service.AddBuy(ctx, buyInput(st.ID, "100", 10, "1", "2024-01-02"))
	assert.NoError(t, err)

	err = service.AddSell(ctx, sellInput(tradeID, "120", 10, "1", "2024-02-01"))
	assert.NoError(t, err)

	trade, err := service.TradeByID(ctx, tradeID, false)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusClosed, trade.Status)
	assert.Equal(t, int64(0), trade.RemainingQuantity)
	assert.True(t, trade.RealizedPnl.Equal(decimal.RequireFromString("198")),
		"got %s", trade.RealizedPnl)
	if assert.NotNil(t, trade.CloseDate) {
		assert.Equal(t, "2024-02-01", *trade.CloseDate)
	}
	assert.Equal(t, 30, trade.HoldingDays)
}

func TestAddSell_FifoAcrossTwoBuys(t *testing.T) {
	service, registry, _ := setupTest(t)
	ctx := context.Background()
	st := mustStrategy(t, registry, "Core")

	tradeID, _ := service.AddBuy(ctx, buyInput(st.ID, "100", 10, "0", "2024-01-02"))
	_, err := service.AddBuy(ctx, buyInput(st.ID, "110", 10, "0", "2024-01-05"))
	assert.NoError(t, err)

	err = service.AddSell(ctx, sellInput(tradeID, "130", 15, "0", "2024-01-10"))
	assert.NoError(t, err)

	trade, err := service.TradeByID(ctx, tradeID, false)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusOpen, trade.Status)
	assert.Equal(t, int64(5), trade.RemainingQuantity)
	assert.True(t, trade.RealizedPnl.Equal(decimal.RequireFromString("400")),
		"got %s", trade.RealizedPnl)

	residuals, err := service.RemainingMap(ctx, tradeID)
	assert.NoError(t, err)
	var sum int64
	for _, r := range residuals {
		sum += r
	}
	assert.Equal(t, trade.RemainingQuantity, sum)
}

func TestAddSell_OversellRejectedWithoutMutation(t *testing.T) {
	service, registry, _ := setupTest(t)
	ctx := context.Background()
	st := mustStrategy(t, registry, "Core")

	tradeID, _ := service.AddBuy(ctx, buyInput(st.ID, "100", 10, "0", "2024-01-02"))
	err := service.AddSell(ctx, sellInput(tradeID, "130", 5, "0", "2024-01-10"))
	assert.NoError(t, err)

	err = service.AddSell(ctx, sellInput(tradeID, "130", 6, "0", "2024-01-11"))
	assert.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.From(err).Code)

	trade, err := service.TradeByID(ctx, tradeID, false)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), trade.RemainingQuantity)
	assert.Equal(t, int64(5), trade.TotalSellQuantity)

	details, err := service.Details(ctx, tradeID)
	assert.NoError(t, err)
	assert.Len(t, details, 2, "rejected sell must not leave a detail row")
}

func TestAddSell_ClosedTradeRejected(t *testing.T) {
	service, registry, _ := setupTest(t)
	ctx := context.Background()
	st := mustStrategy(t, registry, "Core")

	tradeID, _ := service.AddBuy(ctx, buyInput(st.ID, "100", 10, "0", "2024-01-02"))
	assert.NoError(t, service.AddSell(ctx, sellInput(tradeID, "120", 10, "0", "2024-01-10")))

	err := service.AddSell(ctx, sellInput(tradeID, "120", 1, "0", "2024-01-11"))
	assert.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.From(err).Code)
}

func TestAddSell_UnknownTrade(t *testing.T) {
	service, _, _ := setupTest(t)

	err := service.AddSell(context.Background(), sellInput(99, "120", 1, "0", "2024-01-11"))

	assert.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)
}

func TestSellReopensViaEdit(t *testing.T) {
	service, registry, _ := setupTest(t)
	ctx := context.Background()
	st := mustStrategy(t, registry, "Core")

	tradeID, _ := service.AddBuy(ctx, buyInput(st.ID, "100", 10, "0", "2024-01-02"))
	assert.NoError(t, service.AddSell(ctx, sellInput(tradeID, "120", 10, "0", "2024-01-10")))

	details, err := service.Details(ctx, tradeID)
	assert.NoError(t, err)
	var sellID uint
	for _, d := range details {
		if d.TransactionType == models.TransactionSell {
			sellID = d.ID
		}
	}

	// Shrinking the sell reopens the position and clears the close date.
	qty := int64(6)
	err = service.EditDetails(ctx, tradeID, []DetailUpdate{{DetailID: sellID, Quantity: &qty}}, "fat finger")
	assert.NoError(t, err)

	trade, err := service.TradeByID(ctx, tradeID, false)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusOpen, trade.Status)
	assert.Equal(t, int64(4), trade.RemainingQuantity)
	assert.Nil(t, trade.CloseDate)
}

func TestEditDetails_RejectsNegativeRemaining(t *testing.T) {
	service, registry, _ := setupTest(t)
	ctx := context.Background()
	st := mustStrategy(t, registry, "Core")

	tradeID, _ := service.AddBuy(ctx, buyInput(st.ID, "100", 10, "0", "2024-01-02"))
	assert.NoError(t, service.AddSell(ctx, sellInput(tradeID, "120", 10, "0", "2024-01-10")))

	details, _ := service.Details(ctx, tradeID)
	var buyID uint
	for _, d := range details {
		if d.TransactionType == models.TransactionBuy {
			buyID = d.ID
		}
	}

	qty := int64(8)
	err := service.EditDetails(ctx, tradeID, []DetailUpdate{{DetailID: buyID, Quantity: &qty}}, "oops")
	assert.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.From(err).Code)

	// rolled back: the buy keeps its original quantity
	trade, err := service.TradeByID(ctx, tradeID, false)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), trade.TotalBuyQuantity)
	assert.Equal(t, int64(0), trade.RemainingQuantity)
}

func TestSoftDeleteRestore_Lifecycle(t *testing.T) {
	service, registry, store := setupTest(t)
	ctx := context.Background()
	st := mustStrategy(t, registry, "Core")

	tradeID, _ := service.AddBuy(ctx, buyInput(st.ID, "100", 10, "0", "2024-01-02"))

	assert.NoError(t, service.SoftDelete(ctx, tradeID, "ABC123", "mistake", ""))
	// idempotent: second delete is a no-op success
	assert.NoError(t, service.SoftDelete(ctx, tradeID, "ABC123", "mistake", ""))

	trade, err := store.TradeByID(ctx, tradeID, true)
	assert.NoError(t, err)
	assert.True(t, trade.IsDeleted)
	assert.Equal(t, models.DeletionSoftDeleted, trade.DeletionState)
	assert.NotNil(t, trade.DeletedAt)

	// hidden from the normal read path
	_, err = service.TradeByID(ctx, tradeID, false)
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)

	deleted, err := service.DeletedTrades(ctx)
	assert.NoError(t, err)
	assert.Len(t, deleted, 1)

	assert.NoError(t, service.Restore(ctx, tradeID, "ABC123", ""))
	assert.NoError(t, service.Restore(ctx, tradeID, "ABC123", ""))

	trade, err = store.TradeByID(ctx, tradeID, false)
	assert.NoError(t, err)
	assert.False(t, trade.IsDeleted)
	assert.Equal(t, models.DeletionActive, trade.DeletionState)
	assert.Nil(t, trade.DeletedAt)

	// create + soft_delete + restore; the two no-ops append nothing
	mods, err := service.Modifications(ctx, tradeID)
	assert.NoError(t, err)
	assert.Len(t, mods, 3)
	assert.Equal(t, models.ModRestore, mods[0].Kind)
	assert.Equal(t, models.ModSoftDelete, mods[1].Kind)
	assert.Equal(t, models.ModCreate, mods[2].Kind)
}

func TestSoftDelete_RequiresConfirmationCode(t *testing.T) {
	service, registry, store := setupTest(t)
	ctx := context.Background()
	st := mustStrategy(t, registry, "Core")

	tradeID, _ := service.AddBuy(ctx, buyInput(st.ID, "100", 10, "0", "2024-01-02"))

	err := service.SoftDelete(ctx, tradeID, "", "mistake", "")
	assert.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.From(err).Code)

	trade, err := store.TradeByID(ctx, tradeID, true)
	assert.NoError(t, err)
	assert.False(t, trade.IsDeleted)
}

func TestPermanentlyDelete_GuardsAndPurges(t *testing.T) {
	service, registry, store := setupTest(t)
	ctx := context.Background()
	st := mustStrategy(t, registry, "Core")

	tradeID, _ := service.AddBuy(ctx, buyInput(st.ID, "100", 10, "0", "2024-01-02"))

	// active trade: must be soft-deleted first
	err := service.PermanentlyDelete(ctx, tradeID, "ABC123", PurgeConfirmationText, "", "")
	assert.Error(t, err)
	assert.Equal(t, apperr.CodeDomain, apperr.From(err).Code)

	assert.NoError(t, service.SoftDelete(ctx, tradeID, "ABC123", "", ""))

	// wrong confirmation text
	err = service.PermanentlyDelete(ctx, tradeID, "ABC123", "delete", "", "")
	assert.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.From(err).Code)

	assert.NoError(t, service.PermanentlyDelete(ctx, tradeID, "ABC123", PurgeConfirmationText, "gone", ""))

	// no row referencing the trade survives in trades or trade_details
	trade, err := store.TradeByID(ctx, tradeID, true)
	assert.NoError(t, err)
	assert.Nil(t, trade)
	details, err := store.Details(ctx, tradeID, true)
	assert.NoError(t, err)
	assert.Empty(t, details)

	// only the purge record remains, keyed by the dead id
	mods, err := service.Modifications(ctx, tradeID)
	assert.NoError(t, err)
	assert.Len(t, mods, 1)
	assert.Equal(t, models.ModPurge, mods[0].Kind)

	// a second purge of the same id is not_found
	err = service.PermanentlyDelete(ctx, tradeID, "ABC123", PurgeConfirmationText, "", "")
	assert.Equal(t, apperr.CodeNotFound, apperr.From(err).Code)
}

func TestBatchSoftDelete_PartialSuccess(t *testing.T) {
	service, registry, _ := setupTest(t)
	ctx := context.Background()
	st := mustStrategy(t, registry, "Core")

	var ids []uint
	for i, symbol := range []string{"AAPL", "MSFT", "NVDA"} {
		in := buyInput(st.ID, "100", 10, "0", "2024-01-02")
		in.SymbolCode = symbol
		in.SymbolName = symbol
		id, err := service.AddBuy(ctx, in)
		assert.NoError(t, err, "buy %d", i)
		ids = append(ids, id)
	}

	// purge the middle trade so the batch has one unresolvable id
	assert.NoError(t, service.SoftDelete(ctx, ids[1], "ABC123", "", ""))
	assert.NoError(t, service.PermanentlyDelete(ctx, ids[1], "ABC123", PurgeConfirmationText, "", ""))

	result := service.BatchSoftDelete(ctx, ids, "ABC123", "cleanup", "")

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 3, result.Total)

	deleted, err := service.DeletedTrades(ctx)
	assert.NoError(t, err)
	assert.Len(t, deleted, 2)
}

func TestBatchRestore_AllSucceed(t *testing.T) {
	service, registry, _ := setupTest(t)
	ctx := context.Background()
	st := mustStrategy(t, registry, "Core")

	var ids []uint
	for _, symbol := range []string{"AAPL", "MSFT"} {
		in := buyInput(st.ID, "100", 10, "0", "2024-01-02")
		in.SymbolCode = symbol
		in.SymbolName = symbol
		id, _ := service.AddBuy(ctx, in)
		ids = append(ids, id)
		assert.NoError(t, service.SoftDelete(ctx, id, "ABC123", "", ""))
	}

	result := service.BatchRestore(ctx, ids, "ABC123", "")

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 2, result.Total)
}

func TestDetails_QuickSellResiduals(t *testing.T) {
	service, registry, _ := setupTest(t)
	ctx := context.Background()
	st := mustStrategy(t, registry, "Core")

	tradeID, _ := service.AddBuy(ctx, buyInput(st.ID, "100", 10, "0", "2024-01-02"))
	_, err := service.AddBuy(ctx, buyInput(st.ID, "110", 10, "0", "2024-01-05"))
	assert.NoError(t, err)
	assert.NoError(t, service.AddSell(ctx, sellInput(tradeID, "130", 15, "0", "2024-01-10")))

	details, err := service.Details(ctx, tradeID)
	assert.NoError(t, err)
	assert.Len(t, details, 3)

	// first buy fully consumed, second buy has 5 left
	assert.Equal(t, int64(0), details[0].RemainingForQuickSell)
	assert.False(t, details[0].CanQuickSell)
	assert.Equal(t, int64(5), details[1].RemainingForQuickSell)
	assert.True(t, details[1].CanQuickSell)
	assert.False(t, details[2].CanQuickSell)
}
