// Package categorize contains the categorize command: automatic keyword
// categorization or an interactive session over the uncategorized products.
package categorize

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"fjacquet/ticket-tracker/cmd/root"
	"fjacquet/ticket-tracker/internal/categorizer"
	"fjacquet/ticket-tracker/internal/models"

	"github.com/spf13/cobra"
)

var (
	autoMode    bool
	reEvaluate  bool
	searchQuery string

	// Cmd is the categorize command
	Cmd = &cobra.Command{
		Use:   "categorize",
		Short: "Assign products to spending families",
		Long: `Categorize assigns uncategorized products to families. With --auto it
applies the keyword rules and stops; --auto --re-evaluate re-runs the rules
over the whole catalog, reassigning categorized products where a rule now
disagrees. With --search it offers the products matching a substring for
re-assignment instead of the uncategorized ones. Otherwise it runs an
interactive session offering one product at a time with a suggestion.

Interactive keys: a family number assigns, Enter accepts the suggestion,
s skips, u undoes the last assignment, q quits.`,
		RunE: runCategorize,
	}
)

// Init initializes the categorize command flags.
func Init() {
	Cmd.Flags().BoolVar(&autoMode, "auto", false, "Apply keyword rules without prompting")
	Cmd.Flags().BoolVar(&reEvaluate, "re-evaluate", false, "With --auto, re-run the rules over categorized products too")
	Cmd.Flags().StringVar(&searchQuery, "search", "", "Offer the products matching this substring for re-assignment")
}

func runCategorize(cmd *cobra.Command, args []string) error {
	if autoMode && searchQuery != "" {
		return fmt.Errorf("--auto and --search cannot be combined")
	}
	if reEvaluate && !autoMode {
		return fmt.Errorf("--re-evaluate requires --auto")
	}

	s, err := root.OpenStore()
	if err != nil {
		return err
	}
	defer s.Close()

	table, err := categorizer.LoadRuleTable(root.Cfg.Rules.Path, root.Log)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var ai categorizer.Strategy
	if !autoMode && root.Cfg.AI.Enabled {
		gemini, err := categorizer.NewGeminiStrategy(ctx, root.Cfg.AI.APIKey, root.Cfg.AI.Model, root.Log)
		if err != nil {
			root.Log.WithError(err).Warn("AI suggestions unavailable")
		} else {
			defer gemini.Close()
			ai = gemini
		}
	}

	assigner := categorizer.NewAssigner(s, table, ai, root.Log)

	if autoMode {
		if reEvaluate {
			changed, err := assigner.ReEvaluate(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("✅ %d product(s) reassigned\n", changed)
			return nil
		}
		assigned, err := assigner.AutoAssign(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("✅ %d product(s) categorized\n", assigned)
		return nil
	}

	provider := &terminalProvider{in: bufio.NewReader(os.Stdin), out: os.Stdout}
	var assigned int
	if searchQuery != "" {
		assigned, err = assigner.RunSearch(ctx, searchQuery, provider)
	} else {
		assigned, err = assigner.RunInteractive(ctx, provider)
	}
	if err != nil {
		return err
	}
	fmt.Printf("\n✅ %d product(s) categorized this session\n", assigned)
	return nil
}

// terminalProvider drives the interactive flow over stdin/stdout.
type terminalProvider struct {
	in  *bufio.Reader
	out io.Writer
}

func (p *terminalProvider) Decide(product models.ProductStats, families []models.Family, suggestion *models.Family) (categorizer.Decision, error) {
	fmt.Fprintf(p.out, "\n%s  (%s € across %d ticket(s))\n",
		product.Name, product.TotalSpend.StringFixed(2), product.ReceiptCount)
	for _, f := range families {
		fmt.Fprintf(p.out, "  %2d  %s %s\n", f.ID, f.Emoji, f.Name)
	}
	if suggestion != nil {
		fmt.Fprintf(p.out, "Suggestion: %s %s (Enter to accept)\n", suggestion.Emoji, suggestion.Name)
	}
	fmt.Fprint(p.out, "Family number · s skip · u undo · q quit: ")

	for {
		line, err := p.in.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return categorizer.Decision{Action: categorizer.ActionQuit}, nil
			}
			return categorizer.Decision{}, err
		}

		switch answer := strings.ToLower(strings.TrimSpace(line)); answer {
		case "":
			if suggestion != nil {
				return categorizer.Decision{Action: categorizer.ActionAssign, FamilyID: suggestion.ID}, nil
			}
			return categorizer.Decision{Action: categorizer.ActionSkip}, nil
		case "s":
			return categorizer.Decision{Action: categorizer.ActionSkip}, nil
		case "u":
			return categorizer.Decision{Action: categorizer.ActionUndo}, nil
		case "q":
			return categorizer.Decision{Action: categorizer.ActionQuit}, nil
		default:
			id, err := strconv.ParseInt(answer, 10, 64)
			if err == nil && familyExists(families, id) {
				return categorizer.Decision{Action: categorizer.ActionAssign, FamilyID: id}, nil
			}
			fmt.Fprint(p.out, "Not a valid choice, try again: ")
		}
	}
}

func familyExists(families []models.Family, id int64) bool {
	for _, f := range families {
		if f.ID == id {
			return true
		}
	}
	return false
}
