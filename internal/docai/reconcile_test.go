package docai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svedin/kontera/pkg/models"
)

func TestReconcileFillsMissingFields(t *testing.T) {
	r := NewReconciler()

	data := &models.ExtractedData{
		SupplierName: "unknown",
		Currency:     "SEK",
	}
	fields := &Fields{
		SupplierName:   "Kontorsgrossisten AB",
		DocumentNumber: "F-1187",
		DocumentDate:   "2024-03-01",
		DueDate:        "2024-03-31",
		TotalAmount:    1250,
		VATAmount:      250,
	}

	warnings := r.Reconcile(fields, data)
	assert.Empty(t, warnings)
	assert.Equal(t, "Kontorsgrossisten AB", data.SupplierName)
	assert.Equal(t, "F-1187", data.DocumentNumber)
	assert.Equal(t, "2024-03-01", data.DocumentDate)
	assert.InDelta(t, 1250, data.TotalAmount, 1e-9)
	assert.InDelta(t, 250, data.VATAmount, 1e-9)
}

func TestReconcileKeepsPrimaryWithinTolerance(t *testing.T) {
	r := NewReconciler()

	data := &models.ExtractedData{SupplierName: "Acme", TotalAmount: 1000}
	fields := &Fields{TotalAmount: 1020} // 2% off, inside tolerance

	warnings := r.Reconcile(fields, data)
	assert.Empty(t, warnings)
	assert.InDelta(t, 1000, data.TotalAmount, 1e-9, "primary value wins")
}

func TestReconcileWarnsOnDiscrepancy(t *testing.T) {
	r := NewReconciler()

	data := &models.ExtractedData{SupplierName: "Acme", TotalAmount: 1000}
	fields := &Fields{TotalAmount: 1200} // ~16.7% off

	warnings := r.Reconcile(fields, data)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "total amount discrepancy")
	assert.Contains(t, warnings[0], "1000.00")
	assert.Contains(t, warnings[0], "1200.00")
	assert.InDelta(t, 1000, data.TotalAmount, 1e-9, "primary value is kept on disagreement")
}

func TestReconcileCurrencyDisagreement(t *testing.T) {
	r := NewReconciler()

	data := &models.ExtractedData{SupplierName: "Acme", Currency: "SEK"}
	fields := &Fields{Currency: "EUR"}

	warnings := r.Reconcile(fields, data)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "SEK")
	assert.Contains(t, warnings[0], "EUR")
}

func TestReconcileNilInputs(t *testing.T) {
	r := NewReconciler()
	assert.Nil(t, r.Reconcile(nil, &models.ExtractedData{}))
	assert.Nil(t, r.Reconcile(&Fields{}, nil))
}

func TestDiscrepancyPct(t *testing.T) {
	assert.InDelta(t, 0, discrepancyPct(100, 100), 1e-9)
	assert.InDelta(t, 50, discrepancyPct(100, 50), 1e-9)
	assert.InDelta(t, 50, discrepancyPct(50, 100), 1e-9)
}
