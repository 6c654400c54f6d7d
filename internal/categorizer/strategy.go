package categorizer

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/ticket-tracker/internal/logging"
	"fjacquet/ticket-tracker/internal/models"
	"fjacquet/ticket-tracker/internal/productkey"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Strategy produces a family suggestion for an uncategorized product. A
// suggestion is advisory: only the assignment primitive writes to storage.
type Strategy interface {
	Name() string
	Suggest(ctx context.Context, product models.ProductStats, families []models.Family) (int64, bool, error)
}

// KeywordStrategy suggests via the ordered rule table. Deterministic and
// offline; this is the only strategy the automatic pass uses.
type KeywordStrategy struct {
	Table *RuleTable
}

// Name implements Strategy.
func (s *KeywordStrategy) Name() string { return "keyword" }

// Suggest implements Strategy.
func (s *KeywordStrategy) Suggest(_ context.Context, product models.ProductStats, _ []models.Family) (int64, bool, error) {
	id, ok := s.Table.Match(product.Key)
	return id, ok, nil
}

// GeminiStrategy asks a Gemini model for a family suggestion when the rule
// table has none. Used only in the interactive flow, where the operator
// confirms or overrides every suggestion.
type GeminiStrategy struct {
	client *genai.Client
	model  string
	logger logging.Logger
}

// NewGeminiStrategy creates a Gemini-backed strategy. The caller owns the
// returned strategy and must Close it.
func NewGeminiStrategy(ctx context.Context, apiKey, model string, logger logging.Logger) (*GeminiStrategy, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key not set")
	}
	if logger == nil {
		logger = logging.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiStrategy{client: client, model: model, logger: logger}, nil
}

// Name implements Strategy.
func (s *GeminiStrategy) Name() string { return "gemini" }

// Close releases the underlying client.
func (s *GeminiStrategy) Close() error {
	return s.client.Close()
}

// Suggest implements Strategy. The model is constrained to answer with one
// family name from the list; an answer outside the list yields no suggestion
// rather than a guess.
func (s *GeminiStrategy) Suggest(ctx context.Context, product models.ProductStats, families []models.Family) (int64, bool, error) {
	model := s.client.GenerativeModel(s.model)

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(product, families)))
	if err != nil {
		return 0, false, fmt.Errorf("gemini request: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return 0, false, nil
	}

	var answer strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			answer.WriteString(string(text))
		}
	}

	id, ok := matchFamilyName(answer.String(), families)
	if !ok {
		s.logger.WithFields(
			logging.Field{Key: "product", Value: product.Key},
			logging.Field{Key: "answer", Value: strings.TrimSpace(answer.String())},
		).Debug("Gemini answer matched no family")
	}
	return id, ok, nil
}

func buildPrompt(product models.ProductStats, families []models.Family) string {
	var b strings.Builder
	b.WriteString("You classify Spanish supermarket products into grocery categories.\n")
	b.WriteString("Product name: ")
	b.WriteString(product.Name)
	b.WriteString("\nAnswer with exactly one category name from this list and nothing else:\n")
	for _, f := range families {
		b.WriteString("- ")
		b.WriteString(f.Name)
		b.WriteString("\n")
	}
	return b.String()
}

// matchFamilyName resolves a free-text answer to a family id, accent- and
// case-insensitively. The answer must contain exactly one family name.
func matchFamilyName(answer string, families []models.Family) (int64, bool) {
	folded := productkey.Fold(answer)
	var id int64
	matches := 0
	for _, f := range families {
		if strings.Contains(folded, productkey.Fold(f.Name)) {
			id = f.ID
			matches++
		}
	}
	if matches != 1 {
		return 0, false
	}
	return id, true
}
