package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trondarild/categen/internal/directive"
	"github.com/trondarild/categen/internal/pipeline"
)

var (
	extractMode   string
	extractName   string
	templateFile  string
	strictLaws    bool
	keepRawOutput string
)

var extractCmd = &cobra.Command{
	Use:   "extract [subject text | file]",
	Short: "Extract and validate a category from a subject or document",
	Long: `Extract runs the full pipeline: normalize the input, ask the backend
for a category, validate it against the category laws, analyze composition
chains (document mode), and render the presentation document.

In subject mode the argument is the subject itself:

  categen extract "predictive coding in cortical circuits"

In document mode the argument is a text file, and "-" reads stdin:

  categen extract --mode document paper.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptions()
		if err != nil {
			return err
		}

		text := args[0]
		if opts.Mode == directive.Document {
			text, err = readInput(args[0])
			if err != nil {
				return err
			}
			if opts.Name == "" {
				opts.Name = documentName(args[0])
			}
		} else if opts.Name == "" {
			opts.Name = args[0]
		}

		p, _, err := buildPipeline()
		if err != nil {
			return err
		}

		res, err := p.Run(cmd.Context(), text, opts)
		if err != nil {
			return err
		}

		if keepRawOutput != "" {
			if err := os.WriteFile(keepRawOutput, []byte(res.Raw+"\n"), 0o644); err != nil {
				return fmt.Errorf("write raw output: %w", err)
			}
		}
		return emit(res)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractMode, "mode", "subject", "analysis mode (subject, document)")
	extractCmd.Flags().StringVar(&extractName, "name", "", "category name when the backend does not declare one")
	extractCmd.Flags().StringVarP(&templateFile, "template", "t", "", "template file with named placeholders")
	extractCmd.Flags().BoolVar(&strictLaws, "strict", false, "flag missing identities instead of synthesizing them")
	extractCmd.Flags().StringVar(&keepRawOutput, "keep-raw", "", "also save the raw backend response to a file")
	addOutputFlags(extractCmd.Flags())
}

// runOptions folds the shared extraction flags into pipeline options.
func runOptions() (pipeline.Options, error) {
	opts := pipeline.Options{Name: extractName, Strict: strictLaws}

	switch extractMode {
	case "subject", "":
		opts.Mode = directive.Subject
	case "document", "doc":
		opts.Mode = directive.Document
	default:
		return opts, fmt.Errorf("unknown mode: %s (valid: subject, document)", extractMode)
	}

	if templateFile != "" {
		data, err := os.ReadFile(templateFile)
		if err != nil {
			return opts, fmt.Errorf("read template: %w", err)
		}
		opts.Template = string(data)
	}
	return opts, nil
}

// readInput loads the document text; "-" reads stdin.
func readInput(arg string) (string, error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

// documentName derives a category name from the source filename.
func documentName(arg string) string {
	if arg == "-" {
		return "stdin"
	}
	base := filepath.Base(arg)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
