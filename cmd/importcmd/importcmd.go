// Package importcmd contains the import command: it feeds extracted ticket
// text files through the ingestion pipeline.
package importcmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fjacquet/ticket-tracker/cmd/root"
	"fjacquet/ticket-tracker/internal/pipeline"

	"github.com/spf13/cobra"
)

// Cmd is the import command
var Cmd = &cobra.Command{
	Use:   "import <file-or-dir> [more...]",
	Short: "Import ticket text files into the database",
	Long: `Import parses each ticket text file, validates it and stores it.
Directories are expanded to their .txt files. Re-importing an already stored
ticket is a no-op: the invoice number makes ingestion idempotent.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no ticket files found")
	}

	docs := make([]pipeline.Document, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		docs = append(docs, pipeline.Document{Name: filepath.Base(path), Text: string(data)})
	}

	s, err := root.OpenStore()
	if err != nil {
		return err
	}
	defer s.Close()

	p := pipeline.New(s, root.Cfg.Epsilon(), root.Log)
	outcomes := p.IngestBatch(context.Background(), docs)

	failed := 0
	for _, o := range outcomes {
		switch o.Status {
		case pipeline.StatusStored:
			fmt.Printf("✅ %s: stored (%s)\n", o.Name, o.Invoice)
		case pipeline.StatusStoredFlagged:
			fmt.Printf("⚠️  %s: stored, flagged for review (%s)\n", o.Name, o.Invoice)
			for _, f := range o.Findings {
				fmt.Printf("    - %s\n", f.Detail)
			}
		case pipeline.StatusDuplicate:
			fmt.Printf("↩️  %s: %v\n", o.Name, o.Err)
		case pipeline.StatusFailed:
			fmt.Printf("❌ %s: %v\n", o.Name, o.Err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(outcomes))
	}
	return nil
}

// expandPaths expands directory arguments into their .txt files, sorted, and
// passes file arguments through as-is.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".txt") {
				continue
			}
			paths = append(paths, filepath.Join(arg, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
