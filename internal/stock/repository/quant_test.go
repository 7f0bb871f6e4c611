package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/pkg/errors"
	"github.com/quantscan/quantscan-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quantRow(rows *sqlmock.Rows, id int64, qty float64, barcode, lot interface{}) *sqlmock.Rows {
	now := time.Now()
	var lotID interface{}
	if lot != nil {
		lotID = int64(7)
	}
	return rows.AddRow(
		id, int64(10), int64(20), lotID, int64(1), qty,
		barcode, 0.0, 0.0, now, now,
		int64(3), "Widget", "Widget", "WH/Stock", domain.UsageInternal, lot,
	)
}

func TestQuantRepository_FindByBarcode(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := NewQuantRepository(mockDB.DB)

	mockDB.ExpectQuery("WHERE q.scan_barcode = $1 AND q.quantity > 0 AND p.product_tmpl_id = $2 ORDER BY q.id LIMIT 1").
		WithArgs("PKG0000005", int64(3)).
		WillReturnRows(quantRow(testutil.QuantRows(), 5, 10, "PKG0000005", "LOT42"))

	q, err := repo.FindByBarcode(context.Background(), "PKG0000005", 3)
	require.NoError(t, err)

	assert.Equal(t, int64(5), q.ID)
	assert.Equal(t, 10.0, q.Quantity)
	assert.Equal(t, "PKG0000005", q.Barcode())
	assert.Equal(t, "LOT42", q.Lot())
	assert.Equal(t, int64(3), q.ProductTmplID)
	mockDB.ExpectationsWereMet(t)
}

func TestQuantRepository_FindByLotName_NoProductFilter(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := NewQuantRepository(mockDB.DB)

	mockDB.ExpectQuery("WHERE lot.name = $1 AND q.quantity > 0 ORDER BY q.id LIMIT 1").
		WithArgs("LOT42").
		WillReturnError(sql.ErrNoRows)

	q, err := repo.FindByLotName(context.Background(), "LOT42", 0)
	assert.Nil(t, q)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestQuantRepository_List_BuildsFilter(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := NewQuantRepository(mockDB.DB)

	mockDB.ExpectQuery("WHERE q.quantity > 0 AND p.product_tmpl_id = $1 AND q.company_id = $2 AND q.lot_id = $3 AND l.usage = 'internal' AND q.lot_id IS NOT NULL ORDER BY q.location_id, q.lot_id, q.id").
		WithArgs(int64(3), int64(1), int64(7)).
		WillReturnRows(quantRow(quantRow(testutil.QuantRows(), 1, 4, nil, "LOT42"), 2, 6, "PKG0000002", "LOT42"))

	quants, err := repo.List(context.Background(), domain.QuantFilter{
		ProductTmplID: 3,
		CompanyID:     1,
		LotID:         7,
		InternalOnly:  true,
		RequireLot:    true,
	})
	require.NoError(t, err)
	require.Len(t, quants, 2)
	assert.False(t, quants[0].HasBarcode())
	assert.True(t, quants[1].HasBarcode())
	mockDB.ExpectationsWereMet(t)
}

func TestQuantRepository_GetByIDs_Empty(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := NewQuantRepository(mockDB.DB)

	quants, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quants)
	mockDB.ExpectationsWereMet(t)
}

func TestQuantRepository_SetBarcode(t *testing.T) {
	t.Run("assigns when empty", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		repo := NewQuantRepository(mockDB.DB)

		mockDB.ExpectExec("WHERE id = $1 AND scan_barcode IS NULL").
			WithArgs(int64(5), "PKG0000005").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SetBarcode(context.Background(), 5, "PKG0000005"))
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("already barcoded", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		repo := NewQuantRepository(mockDB.DB)

		mockDB.ExpectExec("WHERE id = $1 AND scan_barcode IS NULL").
			WithArgs(int64(5), "PKG0000005").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.SetBarcode(context.Background(), 5, "PKG0000005")
		assert.True(t, errors.Is(err, errors.ErrConflict))
		mockDB.ExpectationsWereMet(t)
	})

	t.Run("duplicate code", func(t *testing.T) {
		mockDB := testutil.NewMockDB(t)
		repo := NewQuantRepository(mockDB.DB)

		mockDB.ExpectExec("WHERE id = $1 AND scan_barcode IS NULL").
			WithArgs(int64(5), "PKG0000001").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "stock_quants_scan_barcode_key"})

		err := repo.SetBarcode(context.Background(), 5, "PKG0000001")

		var appErr *errors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "CONFLICT", appErr.Code)
		assert.Equal(t, "a quant with this barcode already exists", appErr.Message)
		mockDB.ExpectationsWereMet(t)
	})
}

func TestQuantRepository_BarcodeExists(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := NewQuantRepository(mockDB.DB)

	mockDB.ExpectQuery("SELECT EXISTS(SELECT 1 FROM stock_quants WHERE scan_barcode = $1)").
		WithArgs("PKG0000001").
		WillReturnRows(testutil.MockRows("exists").AddRow(true))

	exists, err := repo.BarcodeExists(context.Background(), "PKG0000001")
	require.NoError(t, err)
	assert.True(t, exists)
	mockDB.ExpectationsWereMet(t)
}

func TestQuantRepository_EligibleLots(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := NewQuantRepository(mockDB.DB)

	mockDB.ExpectQuery("GROUP BY lot.id, lot.name").
		WithArgs(int64(3), int64(1)).
		WillReturnRows(testutil.MockRows("id", "name", "quant_count", "quantity").
			AddRow(int64(7), "LOT42", int64(2), 10.0).
			AddRow(int64(8), "LOT43", int64(1), 1.5))

	lots, err := repo.EligibleLots(context.Background(), 3, 1)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, domain.EligibleLot{ID: 7, Name: "LOT42", QuantCount: 2, Quantity: 10}, lots[0])
	mockDB.ExpectationsWereMet(t)
}

func TestQuantRepository_Delete_NotFound(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := NewQuantRepository(mockDB.DB)

	mockDB.ExpectExec("DELETE FROM stock_quants WHERE id = $1").
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 9)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	mockDB.ExpectationsWereMet(t)
}

func TestQuantRepository_GetQuantity(t *testing.T) {
	mockDB := testutil.NewMockDB(t)
	repo := NewQuantRepository(mockDB.DB)

	mockDB.ExpectQuery("SELECT quantity FROM stock_quants WHERE id = $1").
		WithArgs(int64(5)).
		WillReturnRows(testutil.MockRows("quantity").AddRow(7.0))

	qty, err := repo.GetQuantity(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 7.0, qty)
	mockDB.ExpectationsWereMet(t)
}
