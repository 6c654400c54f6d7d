package categorizer

import (
	"context"
	"fmt"

	"fjacquet/ticket-tracker/internal/logging"
	"fjacquet/ticket-tracker/internal/models"
	"fjacquet/ticket-tracker/internal/store"
)

// Action is the operator's choice for one product in the interactive flow.
type Action int

const (
	ActionAssign Action = iota
	ActionSkip
	ActionUndo
	ActionQuit
)

// Decision carries the chosen action; FamilyID is meaningful only for
// ActionAssign.
type Decision struct {
	Action   Action
	FamilyID int64
}

// DecisionProvider supplies operator decisions to the interactive flow. The
// suggestion may be nil when no strategy produced one.
type DecisionProvider interface {
	Decide(product models.ProductStats, families []models.Family, suggestion *models.Family) (Decision, error)
}

// Assigner runs the two categorization modes over the store.
type Assigner struct {
	store   *store.Store
	keyword *KeywordStrategy
	ai      Strategy
	logger  logging.Logger
}

// NewAssigner creates an Assigner. ai is optional; when nil the interactive
// flow falls back to keyword suggestions only.
func NewAssigner(s *store.Store, table *RuleTable, ai Strategy, logger logging.Logger) *Assigner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Assigner{
		store:   s,
		keyword: &KeywordStrategy{Table: table},
		ai:      ai,
		logger:  logger,
	}
}

// Assign is the single assignment primitive both modes go through.
func (a *Assigner) Assign(ctx context.Context, productID, familyID int64) error {
	return a.store.AssignFamily(ctx, productID, familyID)
}

// AutoAssign applies the keyword rules to every currently uncategorized
// product and returns the number of assignments made. Already-categorized
// products are never touched, so running it repeatedly is idempotent: a
// second run over an unchanged catalog assigns nothing.
func (a *Assigner) AutoAssign(ctx context.Context) (int, error) {
	products, err := a.store.UncategorizedProducts(ctx)
	if err != nil {
		return 0, err
	}

	assigned := 0
	for _, p := range products {
		familyID, ok := a.keyword.Table.Match(p.Key)
		if !ok {
			continue
		}
		if err := a.Assign(ctx, p.ID, familyID); err != nil {
			return assigned, fmt.Errorf("auto-assigning product %d: %w", p.ID, err)
		}
		a.logger.WithFields(
			logging.Field{Key: "product", Value: p.Key},
			logging.Field{Key: "family", Value: familyID},
		).Debug("Auto-assigned")
		assigned++
	}

	a.logger.WithFields(
		logging.Field{Key: "assigned", Value: assigned},
		logging.Field{Key: "remaining", Value: len(products) - assigned},
	).Info("Automatic categorization finished")
	return assigned, nil
}

// ReEvaluate re-runs the keyword rules over the whole catalog, categorized
// products included, and returns the number of products whose family changed.
// Intended for after a rule-table edit. Products matching no rule keep
// whatever assignment they have; manual work is only overridden where a rule
// now says otherwise.
func (a *Assigner) ReEvaluate(ctx context.Context) (int, error) {
	products, err := a.store.Products(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, p := range products {
		familyID, ok := a.keyword.Table.Match(p.Key)
		if !ok {
			continue
		}
		if p.FamilyID != nil && *p.FamilyID == familyID {
			continue
		}
		if err := a.Assign(ctx, p.ID, familyID); err != nil {
			return changed, fmt.Errorf("re-evaluating product %d: %w", p.ID, err)
		}
		a.logger.WithFields(
			logging.Field{Key: "product", Value: p.Key},
			logging.Field{Key: "family", Value: familyID},
		).Debug("Reassigned by rule")
		changed++
	}

	a.logger.WithFields(
		logging.Field{Key: "changed", Value: changed},
		logging.Field{Key: "catalog", Value: len(products)},
	).Info("Rule re-evaluation finished")
	return changed, nil
}

// Suggest produces the advisory suggestion shown in the interactive flow:
// the keyword table first, then the AI strategy when configured. Returns nil
// when neither has one.
func (a *Assigner) Suggest(ctx context.Context, product models.ProductStats, families []models.Family) (*models.Family, error) {
	if id, ok, err := a.keyword.Suggest(ctx, product, families); err == nil && ok {
		return familyByID(families, id), nil
	}

	if a.ai == nil {
		return nil, nil
	}
	id, ok, err := a.ai.Suggest(ctx, product, families)
	if err != nil {
		// A failing suggestion service degrades to no suggestion; the
		// operator decides unaided.
		a.logger.WithError(err).Warn("Suggestion strategy failed")
		return nil, nil
	}
	if !ok {
		return nil, nil
	}
	return familyByID(families, id), nil
}

// RunInteractive offers each uncategorized product in turn and applies the
// operator's decisions. Undo reverts the most recent assignment of this
// session and re-offers that product. Returns the number of assignments that
// remain applied.
func (a *Assigner) RunInteractive(ctx context.Context, provider DecisionProvider) (int, error) {
	products, err := a.store.UncategorizedProducts(ctx)
	if err != nil {
		return 0, err
	}
	return a.runQueue(ctx, products, provider)
}

// RunSearch offers every product matching the query, categorized ones
// included, for assignment or re-assignment. This is the find-and-edit path:
// a miscategorized product is located by substring and handed to the same
// decision flow. Undo restores the family the product had before this
// session touched it.
func (a *Assigner) RunSearch(ctx context.Context, query string, provider DecisionProvider) (int, error) {
	products, err := a.store.SearchProducts(ctx, query)
	if err != nil {
		return 0, err
	}
	if len(products) == 0 {
		a.logger.WithField("query", query).Info("No products match")
		return 0, nil
	}
	return a.runQueue(ctx, products, provider)
}

// undoEntry remembers the family a product had before a session assignment,
// so undo can restore it rather than blanket-unassign.
type undoEntry struct {
	product models.ProductStats
	prev    *int64
}

func (a *Assigner) runQueue(ctx context.Context, products []models.ProductStats, provider DecisionProvider) (int, error) {
	families, err := a.store.Families(ctx)
	if err != nil {
		return 0, err
	}

	queue := make([]models.ProductStats, len(products))
	copy(queue, products)
	var undoStack []undoEntry

	assigned := 0
	for len(queue) > 0 {
		product := queue[0]

		suggestion, err := a.Suggest(ctx, product, families)
		if err != nil {
			return assigned, err
		}

		decision, err := provider.Decide(product, families, suggestion)
		if err != nil {
			return assigned, err
		}

		switch decision.Action {
		case ActionAssign:
			if familyByID(families, decision.FamilyID) == nil {
				return assigned, fmt.Errorf("unknown family id %d", decision.FamilyID)
			}
			if err := a.Assign(ctx, product.ID, decision.FamilyID); err != nil {
				return assigned, err
			}
			undoStack = append(undoStack, undoEntry{product: product, prev: product.FamilyID})
			assigned++
			queue = queue[1:]

		case ActionSkip:
			queue = queue[1:]

		case ActionUndo:
			if len(undoStack) == 0 {
				continue
			}
			last := undoStack[len(undoStack)-1]
			undoStack = undoStack[:len(undoStack)-1]
			if last.prev != nil {
				err = a.store.AssignFamily(ctx, last.product.ID, *last.prev)
			} else {
				err = a.store.UnassignFamily(ctx, last.product.ID)
			}
			if err != nil {
				return assigned, err
			}
			assigned--
			queue = append([]models.ProductStats{last.product}, queue...)

		case ActionQuit:
			return assigned, nil

		default:
			return assigned, fmt.Errorf("unknown action %d", decision.Action)
		}
	}

	return assigned, nil
}

func familyByID(families []models.Family, id int64) *models.Family {
	for i := range families {
		if families[i].ID == id {
			return &families[i]
		}
	}
	return nil
}
