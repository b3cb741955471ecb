package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/rxguard-backend/pkg/db"
	"github.com/angelmondragon/rxguard-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/rxguard-backend/pkg/errors"
	"github.com/angelmondragon/rxguard-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:ledger_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn), db.Wrap(conn), nil, nil)
	require.NoError(t, err)
	return svc, conn
}

func mustCreateMedication(t *testing.T, conn *gorm.DB, name string, minimum int) *models.Medication {
	t.Helper()
	med := &models.Medication{Name: name, MinimumStockLevel: minimum}
	require.NoError(t, conn.Create(med).Error)
	return med
}

func stockOf(t *testing.T, conn *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var med models.Medication
	require.NoError(t, conn.First(&med, "id = ?", id).Error)
	return med.StockQuantity
}

func entryCount(t *testing.T, conn *gorm.DB, id uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, conn.Model(&models.InventoryLogEntry{}).Where("medication_id = ?", id).Count(&count).Error)
	return count
}

func TestAdjustStockRoundTrip(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	med := mustCreateMedication(t, conn, "Ibuprofen", 10)
	actor := uuid.New()

	up, err := svc.AdjustStock(ctx, AdjustStockInput{MedicationID: med.ID, Delta: 50, Reason: "restock", ActorID: &actor})
	require.NoError(t, err)
	assert.Equal(t, 50, up.StockQuantity)
	require.NotNil(t, up.Entry.RecordedByID)
	assert.Equal(t, actor, *up.Entry.RecordedByID)

	down, err := svc.AdjustStock(ctx, AdjustStockInput{MedicationID: med.ID, Delta: -50, Reason: "dispensed"})
	require.NoError(t, err)
	assert.Equal(t, 0, down.StockQuantity)

	assert.Equal(t, 0, stockOf(t, conn, med.ID))
	assert.EqualValues(t, 2, entryCount(t, conn, med.ID))
}

func TestAdjustStockRejectsNegativeResult(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	med := mustCreateMedication(t, conn, "Warfarin", 10)
	_, err := svc.AdjustStock(ctx, AdjustStockInput{MedicationID: med.ID, Delta: 5, Reason: "opening balance"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = svc.AdjustStock(ctx, AdjustStockInput{MedicationID: med.ID, Delta: -6, Reason: "dispensed"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInsufficientStock))
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		details, ok := typed.Details().(map[string]any)
		require.True(t, ok)
		assert.Equal(t, 5, details["stock_quantity"])
		assert.Equal(t, -6, details["delta"])
		assert.Equal(t, med.ID, details["medication_id"])

		assert.Equal(t, 5, stockOf(t, conn, med.ID))
		assert.EqualValues(t, 1, entryCount(t, conn, med.ID))
	}
}

func TestAdjustStockValidation(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	med := mustCreateMedication(t, conn, "Aspirin", 10)

	cases := []AdjustStockInput{
		{MedicationID: uuid.Nil, Delta: 1, Reason: "x"},
		{MedicationID: med.ID, Delta: 0, Reason: "x"},
		{MedicationID: med.ID, Delta: 1, Reason: "  "},
	}
	for _, input := range cases {
		_, err := svc.AdjustStock(ctx, input)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation), "input %+v gave %v", input, err)
	}

	_, err := svc.AdjustStock(ctx, AdjustStockInput{MedicationID: uuid.New(), Delta: 1, Reason: "x"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestAdjustStockInTxRollsBackWithCaller(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	med := mustCreateMedication(t, conn, "Lisinopril", 10)

	err := db.Wrap(conn).WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := svc.AdjustStockInTx(ctx, tx, AdjustStockInput{MedicationID: med.ID, Delta: 20, Reason: "restock"}); err != nil {
			return err
		}
		return errors.New("later step failed")
	})
	require.Error(t, err)
	assert.Equal(t, 0, stockOf(t, conn, med.ID))
	assert.EqualValues(t, 0, entryCount(t, conn, med.ID))
}

func TestLowStock(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	a := mustCreateMedication(t, conn, "Alpha", 10)
	b := mustCreateMedication(t, conn, "Bravo", 30)
	c := mustCreateMedication(t, conn, "Charlie", 5)
	for med, qty := range map[uuid.UUID]int{a.ID: 9, b.ID: 25, c.ID: 5} {
		_, err := svc.AdjustStock(ctx, AdjustStockInput{MedicationID: med, Delta: qty, Reason: "opening balance"})
		require.NoError(t, err)
	}

	own, err := svc.LowStock(ctx, nil)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, "Alpha", own[0].Name)
	assert.Equal(t, "Bravo", own[1].Name)

	threshold := 20
	uniform, err := svc.LowStock(ctx, &threshold)
	require.NoError(t, err)
	require.Len(t, uniform, 2)
	assert.Equal(t, "Charlie", uniform[0].Name)
	assert.Equal(t, "Alpha", uniform[1].Name)

	negative := -1
	_, err = svc.LowStock(ctx, &negative)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestRecentEntriesPaginates(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	med := mustCreateMedication(t, conn, "Acetaminophen", 10)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		entry := &models.InventoryLogEntry{
			MedicationID:   med.ID,
			QuantityChange: i,
			Reason:         "restock",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, conn.Create(entry).Error)
	}

	first, err := svc.RecentEntries(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, 3, first.Items[0].QuantityChange)
	assert.Equal(t, 2, first.Items[1].QuantityChange)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.RecentEntries(ctx, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, 1, second.Items[0].QuantityChange)
	assert.Empty(t, second.NextCursor)

	_, err = svc.RecentEntries(ctx, pagination.Params{Cursor: "%%%"})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestHistoryAndReconcile(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	med := mustCreateMedication(t, conn, "Warfarin", 10)
	other := mustCreateMedication(t, conn, "Aspirin", 10)

	_, err := svc.AdjustStock(ctx, AdjustStockInput{MedicationID: med.ID, Delta: 30, Reason: "opening balance"})
	require.NoError(t, err)
	_, err = svc.AdjustStock(ctx, AdjustStockInput{MedicationID: med.ID, Delta: -4, Reason: "dispensed"})
	require.NoError(t, err)

	history, err := svc.History(ctx, med.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 30, history[0].QuantityChange)

	_, err = svc.History(ctx, uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	drift, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, drift)

	// Simulate an out-of-band write that bypassed the ledger.
	require.NoError(t, conn.Model(&models.Medication{}).Where("id = ?", other.ID).Update("stock_quantity", 7).Error)
	drift, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, drift, 1)
	assert.Equal(t, other.ID, drift[0].MedicationID)
	assert.Equal(t, 7, drift[0].StockQuantity)
	assert.Equal(t, 0, drift[0].LedgerTotal)
}
