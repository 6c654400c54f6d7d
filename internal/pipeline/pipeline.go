// Package pipeline runs the per-document ingestion sequence: parse,
// validate, persist. Documents in a batch are processed sequentially and in
// isolation: one document's failure never aborts the batch, and every
// document yields a structured outcome for the caller to act on.
package pipeline

import (
	"context"

	"fjacquet/ticket-tracker/internal/logging"
	"fjacquet/ticket-tracker/internal/models"
	"fjacquet/ticket-tracker/internal/parsererror"
	"fjacquet/ticket-tracker/internal/store"
	"fjacquet/ticket-tracker/internal/ticketparser"
	"fjacquet/ticket-tracker/internal/validation"

	"github.com/shopspring/decimal"
)

// Status is the per-document result class.
type Status string

const (
	StatusStored        Status = "stored"
	StatusStoredFlagged Status = "stored_flagged"
	StatusDuplicate     Status = "duplicate"
	StatusFailed        Status = "failed"
)

// Document is one source document entering the batch.
type Document struct {
	Name string
	Text string
}

// Outcome is the structured per-document result. Err is set for failures and
// for duplicates (a DuplicateInvoiceError, which is benign and not counted
// as a failure); Findings carries the validator's soft findings.
type Outcome struct {
	Name      string
	Status    Status
	Invoice   string
	ReceiptID int64
	Findings  []validation.Finding
	Err       error
}

// Failed reports whether the document was not stored and is not a benign
// duplicate.
func (o Outcome) Failed() bool {
	return o.Status == StatusFailed
}

// Pipeline wires the parsing stages to a store.
type Pipeline struct {
	store   *store.Store
	epsilon decimal.Decimal
	logger  logging.Logger
}

// New creates a Pipeline with the given reconciliation epsilon.
func New(s *store.Store, epsilon decimal.Decimal, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Default()
	}
	return &Pipeline{store: s, epsilon: epsilon, logger: logger}
}

// IngestText runs the full sequence on one raw extracted text.
func (p *Pipeline) IngestText(ctx context.Context, name, raw string) Outcome {
	receipt, err := ticketparser.ParseText(raw, p.logger)
	if err != nil {
		p.logger.WithError(err).WithField("document", name).Error("Parse failed")
		return Outcome{Name: name, Status: StatusFailed, Err: err}
	}
	return p.IngestDraft(ctx, name, receipt)
}

// IngestDraft validates and persists an already-built draft receipt. Manual
// entry hands its field-by-field drafts to this entry point.
func (p *Pipeline) IngestDraft(ctx context.Context, name string, receipt *models.Receipt) Outcome {
	outcome := Outcome{Name: name, Invoice: receipt.InvoiceNumber}

	report, err := validation.ValidateReceipt(receipt, p.epsilon, p.logger)
	if err != nil {
		p.logger.WithError(err).WithField("document", name).Error("Validation failed")
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}
	outcome.Findings = report.Findings

	result, err := p.store.PersistReceipt(ctx, receipt)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}
	outcome.ReceiptID = result.ReceiptID

	if result.Duplicate {
		outcome.Status = StatusDuplicate
		outcome.Err = &parsererror.DuplicateInvoiceError{InvoiceNumber: receipt.InvoiceNumber}
		return outcome
	}
	if receipt.NeedsReview {
		outcome.Status = StatusStoredFlagged
		return outcome
	}
	outcome.Status = StatusStored
	return outcome
}

// IngestBatch processes documents sequentially, one isolated outcome each.
func (p *Pipeline) IngestBatch(ctx context.Context, docs []Document) []Outcome {
	outcomes := make([]Outcome, 0, len(docs))
	for _, doc := range docs {
		outcomes = append(outcomes, p.IngestText(ctx, doc.Name, doc.Text))
	}

	var stored, flagged, duplicates, failed int
	for _, o := range outcomes {
		switch o.Status {
		case StatusStored:
			stored++
		case StatusStoredFlagged:
			flagged++
		case StatusDuplicate:
			duplicates++
		case StatusFailed:
			failed++
		}
	}
	p.logger.WithFields(
		logging.Field{Key: "stored", Value: stored},
		logging.Field{Key: "flagged", Value: flagged},
		logging.Field{Key: "duplicates", Value: duplicates},
		logging.Field{Key: "failed", Value: failed},
	).Info("Batch finished")

	return outcomes
}
