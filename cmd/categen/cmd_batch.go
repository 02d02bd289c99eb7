package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trondarild/categen/internal/directive"
	"github.com/trondarild/categen/internal/pipeline"
	"github.com/trondarild/categen/internal/render"
)

var (
	batchConcurrency int
	batchOutDir      string
)

var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Extract categories from many documents concurrently",
	Long: `Batch runs document-mode extraction over every given text file, and
over every .txt/.md file inside given directories. Each input is an
independent pipeline invocation; a bounded number run at a time. A failed
input does not stop the batch.

Documents are written to --out-dir (default: alongside each input) as
<name>.category.md, or .category.wiki with --wiki.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptions()
		if err != nil {
			return err
		}
		opts.Mode = directive.Document

		inputs, err := collectInputs(args)
		if err != nil {
			return err
		}

		p, _, err := buildPipeline()
		if err != nil {
			return err
		}

		results, err := p.RunAll(cmd.Context(), inputs, opts, batchConcurrency)
		if err != nil {
			return err
		}

		failed := 0
		for _, item := range results {
			if item.Err != nil {
				failed++
				logger.Error("batch item failed",
					zap.String("input", item.Name), zap.Error(item.Err))
				fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", item.Name, item.Err)
				continue
			}
			path, err := writeBatchResult(item)
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", item.Name, err)
				continue
			}
			fmt.Printf("ok   %s -> %s\n", item.Name, path)
			printReport(item.Result.Report, nil)
		}

		if failed > 0 {
			return fmt.Errorf("batch: %d of %d inputs failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 4, "max concurrent extractions")
	batchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "directory for generated documents (default: next to each input)")
	batchCmd.Flags().StringVarP(&templateFile, "template", "t", "", "template file with named placeholders")
	batchCmd.Flags().BoolVar(&strictLaws, "strict", false, "flag missing identities instead of synthesizing them")
	batchCmd.Flags().BoolVar(&asWiki, "wiki", false, "convert markdown headings to MediaWiki markup")
	batchCmd.Flags().BoolVar(&withReport, "report", false, "emit each validation report as JSON on stderr")
}

// collectInputs expands the argument list into named batch inputs,
// descending one level into directories.
func collectInputs(args []string) ([]pipeline.Input, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("batch: %w", err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("batch: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() || !textFile(e.Name()) {
				continue
			}
			paths = append(paths, filepath.Join(arg, e.Name()))
		}
	}
	sort.Strings(paths)

	inputs := make([]pipeline.Input, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("batch: %w", err)
		}
		inputs = append(inputs, pipeline.Input{Name: path, Text: string(data)})
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("batch: no text files found")
	}
	return inputs, nil
}

func textFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".text":
		return true
	}
	return false
}

// writeBatchResult writes one generated document and returns its path.
func writeBatchResult(item pipeline.Input) (string, error) {
	doc := item.Result.Document
	ext := ".category.md"
	if asWiki {
		doc = render.ToMediaWiki(doc)
		ext = ".category.wiki"
	}

	base := strings.TrimSuffix(filepath.Base(item.Name), filepath.Ext(item.Name))
	dir := filepath.Dir(item.Name)
	if batchOutDir != "" {
		if err := os.MkdirAll(batchOutDir, 0o755); err != nil {
			return "", err
		}
		dir = batchOutDir
	}

	path := filepath.Join(dir, base+ext)
	if err := os.WriteFile(path, []byte(doc+"\n"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
