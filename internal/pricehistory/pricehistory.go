// Package pricehistory flags anomalous unit prices against a product's own
// history. It is read-only over storage and produces no side effects; the
// reporting path invokes it, never ingestion.
package pricehistory

import (
	"context"
	"time"

	"fjacquet/ticket-tracker/internal/logging"
	"fjacquet/ticket-tracker/internal/models"
	"fjacquet/ticket-tracker/internal/store"

	"github.com/shopspring/decimal"
)

// Verdict kinds. Insufficient history is a distinct outcome from "no alert":
// a product with too few observations supports no judgement either way.
type VerdictKind int

const (
	VerdictInsufficientHistory VerdictKind = iota
	VerdictOK
	VerdictAlert
)

// Verdict is the evaluation of one candidate observation.
type Verdict struct {
	Kind        VerdictKind
	Mean        decimal.Decimal
	IncreasePct decimal.Decimal
	Samples     int
}

// Alert is one flagged price rise, for the reporting path.
type Alert struct {
	Product     models.Product
	Date        time.Time
	Price       decimal.Decimal
	Mean        decimal.Decimal
	IncreasePct decimal.Decimal
	Weight      bool
	Seasonal    bool
}

// Analyzer holds the alert tunables. Seasonal products (fresh fruit and
// vegetables) get the wider threshold since their prices legitimately swing
// with the calendar.
type Analyzer struct {
	MinSamples           int
	ThresholdPct         decimal.Decimal
	SeasonalThresholdPct decimal.Decimal
	Logger               logging.Logger
}

// NewAnalyzer returns an Analyzer with the default tunables: three prior
// observations minimum, 15% threshold, 25% for seasonal products.
func NewAnalyzer(logger logging.Logger) *Analyzer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Analyzer{
		MinSamples:           3,
		ThresholdPct:         decimal.NewFromInt(15),
		SeasonalThresholdPct: decimal.NewFromInt(25),
		Logger:               logger,
	}
}

// Evaluate judges a candidate observation against the prior history. Only
// observations strictly before the candidate's date and of the candidate's
// kind (per-unit vs per-kilogram) count as history. The verdict is an alert
// when the candidate exceeds the arithmetic mean of the priors by more than
// the applicable threshold.
func (a *Analyzer) Evaluate(history []models.PriceObservation, candidate models.PriceObservation, seasonal bool) Verdict {
	var prior []decimal.Decimal
	for _, obs := range history {
		if obs.Weight == candidate.Weight && obs.Date.Before(candidate.Date) {
			prior = append(prior, obs.UnitPrice)
		}
	}

	if len(prior) < a.MinSamples {
		return Verdict{Kind: VerdictInsufficientHistory, Samples: len(prior)}
	}

	sum := decimal.Zero
	for _, p := range prior {
		sum = sum.Add(p)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(prior))))

	verdict := Verdict{Kind: VerdictOK, Mean: mean, Samples: len(prior)}
	if mean.IsPositive() {
		verdict.IncreasePct = candidate.UnitPrice.Sub(mean).Div(mean).Mul(decimal.NewFromInt(100)).Round(1)
	}

	threshold := a.ThresholdPct
	if seasonal {
		threshold = a.SeasonalThresholdPct
	}
	limit := mean.Mul(decimal.NewFromInt(1).Add(threshold.Div(decimal.NewFromInt(100))))
	if candidate.UnitPrice.GreaterThan(limit) {
		verdict.Kind = VerdictAlert
	}
	return verdict
}

// Alerts evaluates the latest observation of every product in the catalog
// and returns the flagged ones, most recent first within the catalog order.
func (a *Analyzer) Alerts(ctx context.Context, s *store.Store) ([]Alert, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return nil, err
	}

	var alerts []Alert
	for _, p := range products {
		history, err := s.PriceObservations(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if len(history) == 0 {
			continue
		}

		seasonal := p.FamilyID != nil && *p.FamilyID == store.FamilyFruitsVegetables
		latest := history[len(history)-1]

		verdict := a.Evaluate(history, latest, seasonal)
		if verdict.Kind != VerdictAlert {
			continue
		}

		a.Logger.WithFields(
			logging.Field{Key: "product", Value: p.Key},
			logging.Field{Key: "increase_pct", Value: verdict.IncreasePct.String()},
		).Debug("Price alert")

		alerts = append(alerts, Alert{
			Product:     p,
			Date:        latest.Date,
			Price:       latest.UnitPrice,
			Mean:        verdict.Mean,
			IncreasePct: verdict.IncreasePct,
			Weight:      latest.Weight,
			Seasonal:    seasonal,
		})
	}
	return alerts, nil
}
