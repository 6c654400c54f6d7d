package pricehistory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fjacquet/ticket-tracker/internal/models"
	"fjacquet/ticket-tracker/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2025, 1, n, 12, 0, 0, 0, time.UTC)
}

func obs(n int, price string) models.PriceObservation {
	return models.PriceObservation{Date: day(n), UnitPrice: decimal.RequireFromString(price)}
}

func tenPctAnalyzer() *Analyzer {
	a := NewAnalyzer(nil)
	a.ThresholdPct = decimal.NewFromInt(10)
	return a
}

func TestEvaluate_AlertAboveThreshold(t *testing.T) {
	history := []models.PriceObservation{obs(1, "1.00"), obs(2, "1.00"), obs(3, "1.00")}

	v := tenPctAnalyzer().Evaluate(history, obs(10, "1.15"), false)
	assert.Equal(t, VerdictAlert, v.Kind)
	assert.True(t, v.Mean.Equal(decimal.RequireFromString("1.00")))
	assert.True(t, v.IncreasePct.Equal(decimal.RequireFromString("15")), "got %s", v.IncreasePct)
	assert.Equal(t, 3, v.Samples)
}

func TestEvaluate_NoAlertWithinThreshold(t *testing.T) {
	history := []models.PriceObservation{obs(1, "1.00"), obs(2, "1.00"), obs(3, "1.00")}

	v := tenPctAnalyzer().Evaluate(history, obs(10, "1.05"), false)
	assert.Equal(t, VerdictOK, v.Kind)

	// the exact boundary does not alert
	v = tenPctAnalyzer().Evaluate(history, obs(10, "1.10"), false)
	assert.Equal(t, VerdictOK, v.Kind)
}

func TestEvaluate_InsufficientHistory(t *testing.T) {
	history := []models.PriceObservation{obs(1, "1.00"), obs(2, "1.00")}

	v := tenPctAnalyzer().Evaluate(history, obs(10, "2.00"), false)
	assert.Equal(t, VerdictInsufficientHistory, v.Kind, "two priors is not a verdict either way")
	assert.Equal(t, 2, v.Samples)
}

func TestEvaluate_OnlyPriorObservationsCount(t *testing.T) {
	history := []models.PriceObservation{
		obs(1, "1.00"), obs(2, "1.00"), obs(3, "1.00"),
		obs(20, "9.00"), // later than the candidate, must be ignored
	}

	v := tenPctAnalyzer().Evaluate(history, obs(10, "1.05"), false)
	assert.Equal(t, VerdictOK, v.Kind)
	assert.Equal(t, 3, v.Samples)
}

func TestEvaluate_KindsNotComparable(t *testing.T) {
	weight := func(n int, price string) models.PriceObservation {
		o := obs(n, price)
		o.Weight = true
		return o
	}
	history := []models.PriceObservation{
		weight(1, "1.00"), weight(2, "1.00"), weight(3, "1.00"),
	}

	// unit-kind candidate sees no comparable history
	v := tenPctAnalyzer().Evaluate(history, obs(10, "5.00"), false)
	assert.Equal(t, VerdictInsufficientHistory, v.Kind)

	v = tenPctAnalyzer().Evaluate(history, weight(10, "1.30"), false)
	assert.Equal(t, VerdictAlert, v.Kind)
}

func TestEvaluate_SeasonalThreshold(t *testing.T) {
	a := NewAnalyzer(nil) // 15% normal, 25% seasonal
	history := []models.PriceObservation{obs(1, "1.00"), obs(2, "1.00"), obs(3, "1.00")}
	candidate := obs(10, "1.20")

	v := a.Evaluate(history, candidate, false)
	assert.Equal(t, VerdictAlert, v.Kind, "20% rise trips the normal threshold")

	v = a.Evaluate(history, candidate, true)
	assert.Equal(t, VerdictOK, v.Kind, "20% rise is within the seasonal threshold")
}

func TestEvaluate_MeanOfPriors(t *testing.T) {
	history := []models.PriceObservation{obs(1, "0.90"), obs(2, "1.00"), obs(3, "1.10")}

	v := tenPctAnalyzer().Evaluate(history, obs(10, "1.09"), false)
	assert.Equal(t, VerdictOK, v.Kind)
	assert.True(t, v.Mean.Equal(decimal.RequireFromString("1.00")))

	v = tenPctAnalyzer().Evaluate(history, obs(10, "1.11"), false)
	assert.Equal(t, VerdictAlert, v.Kind)
}

func TestAlerts_EndToEnd(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "tickets.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	prices := []string{"1.00", "1.00", "1.00", "1.40"}
	for i, price := range prices {
		p := decimal.RequireFromString(price)
		receipt := &models.Receipt{
			InvoiceNumber: "inv-alert-" + price + string(rune('a'+i)),
			Date:          day(i + 1),
			Total:         p,
			Source:        models.SourceScanned,
			Lines: []models.LineItem{{
				Description: "ACEITE OLIVA",
				Kind:        models.LineKindUnit,
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   p,
				Total:       p,
			}},
		}
		_, err := s.PersistReceipt(ctx, receipt)
		require.NoError(t, err)
	}

	alerts, err := NewAnalyzer(nil).Alerts(ctx, s)
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	alert := alerts[0]
	assert.Equal(t, "ACEITE OLIVA", alert.Product.Key)
	assert.True(t, alert.Price.Equal(decimal.RequireFromString("1.40")))
	assert.True(t, alert.Mean.Equal(decimal.RequireFromString("1.00")))
	assert.True(t, alert.IncreasePct.Equal(decimal.RequireFromString("40")))
	assert.False(t, alert.Seasonal)
}
