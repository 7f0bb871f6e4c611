package service

import (
	"context"
	"testing"

	"github.com/quantscan/quantscan-backend/internal/stock/domain"
	"github.com/quantscan/quantscan-backend/pkg/errors"
	"github.com/quantscan/quantscan-backend/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureBarcode_AssignsAndAdvancesSequence(t *testing.T) {
	s := newTestServices(t)
	q := s.stock.addQuant(domain.Quant{ProductID: productWidget, LocationID: locStock, LotID: ptr(lot42), Quantity: 5})

	assigned, err := s.barcodes.EnsureBarcode(context.Background(), q)
	require.NoError(t, err)

	assert.True(t, assigned)
	assert.Equal(t, "PKG0000001", q.Barcode())
	assert.Equal(t, "PKG0000001", s.stock.quant(q.ID).Barcode())
	assert.Equal(t, int64(2), s.stock.numberNext())
	s.published.AssertEventPublished(t, messaging.EventQuantBarcodeAssigned)
}

func TestEnsureBarcode_SkipsCodesInUse(t *testing.T) {
	s := newTestServices(t)
	s.stock.addQuant(domain.Quant{ProductID: productWidget, LocationID: locStock, Quantity: 1, ScanBarcode: ptr("PKG0000001")})
	s.stock.addQuant(domain.Quant{ProductID: productWidget, LocationID: locStock, Quantity: 1, ScanBarcode: ptr("PKG0000002")})
	q := s.stock.addQuant(domain.Quant{ProductID: productWidget, LocationID: locStock, LotID: ptr(lot42), Quantity: 5})

	_, err := s.barcodes.EnsureBarcode(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, "PKG0000003", q.Barcode())
	assert.Equal(t, int64(4), s.stock.numberNext())
}

func TestEnsureBarcode_NoopWhenNotEligible(t *testing.T) {
	cases := map[string]domain.Quant{
		"no lot":            {ProductID: productWidget, LocationID: locStock, Quantity: 5},
		"customer location": {ProductID: productWidget, LocationID: locCustomer, LotID: ptr(lot42), Quantity: 5},
		"zero quantity":     {ProductID: productWidget, LocationID: locStock, LotID: ptr(lot42), Quantity: 0},
		"already barcoded":  {ProductID: productWidget, LocationID: locStock, LotID: ptr(lot42), Quantity: 5, ScanBarcode: ptr("X1")},
	}

	for name, seed := range cases {
		t.Run(name, func(t *testing.T) {
			s := newTestServices(t)
			q := s.stock.addQuant(seed)

			assigned, err := s.barcodes.EnsureBarcode(context.Background(), q)
			require.NoError(t, err)
			assert.False(t, assigned)
			assert.Equal(t, int64(1), s.stock.numberNext())
			s.published.AssertNoEventsPublished(t)
		})
	}
}

func TestGenerateBarcode_UserErrors(t *testing.T) {
	s := newTestServices(t)
	barcoded := s.stock.addQuant(domain.Quant{ProductID: productWidget, LocationID: locStock, LotID: ptr(lot42), Quantity: 5, ScanBarcode: ptr("PKG0000009")})
	noLot := s.stock.addQuant(domain.Quant{ProductID: productWidget, LocationID: locStock, Quantity: 5})

	_, err := s.barcodes.GenerateBarcode(context.Background(), barcoded.ID)
	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.MsgAlreadyBarcoded, appErr.Message)

	_, err = s.barcodes.GenerateBarcode(context.Background(), noLot.ID)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, domain.MsgNotEligible, appErr.Message)

	assert.Equal(t, int64(1), s.stock.numberNext())
}

func TestGenerateBarcode_Assigns(t *testing.T) {
	s := newTestServices(t)
	q := s.stock.addQuant(domain.Quant{ProductID: productWidget, LocationID: locStock, LotID: ptr(lot42), Quantity: 5})

	got, err := s.barcodes.GenerateBarcode(context.Background(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, "PKG0000001", got.Barcode())
}

func TestForceBarcode_IgnoresEligibility(t *testing.T) {
	s := newTestServices(t)
	q := s.stock.addQuant(domain.Quant{ProductID: productWidget, LocationID: locCustomer, Quantity: 5})

	require.NoError(t, s.barcodes.ForceBarcode(context.Background(), q))
	assert.Equal(t, "PKG0000001", s.stock.quant(q.ID).Barcode())

	// second call keeps the code
	require.NoError(t, s.barcodes.ForceBarcode(context.Background(), q))
	assert.Equal(t, int64(2), s.stock.numberNext())
}

func TestAssign_MissingSequence(t *testing.T) {
	s := newTestServices(t)
	s.stock.seq.Code = "other"
	q := s.stock.addQuant(domain.Quant{ProductID: productWidget, LocationID: locStock, LotID: ptr(lot42), Quantity: 5})

	_, err := s.barcodes.EnsureBarcode(context.Background(), q)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.False(t, s.stock.quant(q.ID).HasBarcode())
}
