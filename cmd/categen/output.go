package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/trondarild/categen/internal/pipeline"
	"github.com/trondarild/categen/internal/render"
	"github.com/trondarild/categen/internal/validate"
)

// Shared output flags, registered by the commands that emit documents.
var (
	outputFile string
	pretty     bool
	asWiki     bool
	withReport bool
)

func addOutputFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&outputFile, "output", "o", "", "write the document to a file instead of stdout")
	flags.BoolVar(&pretty, "pretty", false, "render markdown for the terminal")
	flags.BoolVar(&asWiki, "wiki", false, "convert markdown headings to MediaWiki markup")
	flags.BoolVar(&withReport, "report", false, "emit the validation report as JSON on stderr")
}

var (
	violationStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	synthesisStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	reportOkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	diagnosticStyle = lipgloss.NewStyle().Faint(true)
)

// emit writes the rendered document and surfaces the validation report.
// Violations are non-fatal: the best-effort document is always produced.
func emit(res *pipeline.Result) error {
	doc := res.Document
	if asWiki {
		doc = render.ToMediaWiki(doc)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(doc+"\n"), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	} else if pretty && !asWiki {
		out, err := glamour.Render(doc, "auto")
		if err != nil {
			// Fall back to the plain document rather than failing the run.
			fmt.Println(doc)
		} else {
			fmt.Print(out)
		}
	} else {
		fmt.Println(doc)
	}

	printReport(res.Report, res.Unparsed)
	return nil
}

// printReport writes the human-readable report to stderr, plus the JSON
// form when requested.
func printReport(report validate.Report, unparsed []string) {
	if report.OK() {
		fmt.Fprintln(os.Stderr, reportOkStyle.Render("validation: ok"))
	}
	for _, v := range report.Violations {
		fmt.Fprintln(os.Stderr, violationStyle.Render(
			fmt.Sprintf("violation [%s] %s: %s", v.Kind, v.Entity, v.Message)))
	}
	for _, name := range report.Synthesized {
		fmt.Fprintln(os.Stderr, synthesisStyle.Render("synthesized identity: "+name))
	}
	for _, line := range unparsed {
		fmt.Fprintln(os.Stderr, diagnosticStyle.Render("unparsed "+line))
	}

	if withReport {
		data, err := json.Marshal(report)
		if err == nil {
			fmt.Fprintln(os.Stderr, string(data))
		}
	}
}
