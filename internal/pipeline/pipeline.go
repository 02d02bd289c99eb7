// Package pipeline composes the extraction stages: normalize the input,
// compile the generation directive, call the backend, parse the response
// into a category graph, validate it, analyze composition chains, and
// render the presentation document. Data flows strictly forward; each
// invocation owns its category exclusively and shares no state with other
// invocations, so independent runs may execute concurrently.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/trondarild/categen/internal/backend"
	"github.com/trondarild/categen/internal/chains"
	"github.com/trondarild/categen/internal/config"
	"github.com/trondarild/categen/internal/directive"
	"github.com/trondarild/categen/internal/normalize"
	"github.com/trondarild/categen/internal/parser"
	"github.com/trondarild/categen/internal/render"
	"github.com/trondarild/categen/internal/validate"
)

// Mode-default sampling parameters. Subject modeling benefits from a freer
// temperature; document analysis stays focused.
const (
	subjectTemperature  = 0.7
	documentTemperature = 0.3
	subjectMaxTokens    = 4096
	documentMaxTokens   = 8192
)

// Options tunes one invocation.
type Options struct {
	// Mode selects subject or document analysis.
	Mode directive.Mode
	// Name overrides the category name when the backend does not declare
	// one (typically the subject text or source filename).
	Name string
	// Template overrides the configured template; empty selects it.
	Template string
	// Strict disables identity synthesis during validation.
	Strict bool
}

// Result is the outcome of one invocation: the rendered document plus the
// machine-readable validation report and the intermediate artifacts callers
// may want to surface.
type Result struct {
	RunID    string
	Document string
	Report   validate.Report
	Chains   []chains.Chain
	Raw      string
	Unparsed []string
}

// Input names one batch item.
type Input struct {
	Name string
	Text string
	// Result and Err are filled by RunAll.
	Result *Result
	Err    error
}

// Pipeline wires the stages together. Construct with New; a Pipeline is
// safe for concurrent use because every Run owns its data exclusively.
type Pipeline struct {
	client backend.Client
	cfg    *config.Config
	logger *zap.Logger
}

// New assembles a pipeline. A nil logger is replaced with a no-op logger.
func New(client backend.Client, cfg *config.Config, logger *zap.Logger) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{client: client, cfg: cfg, logger: logger}
}

// Run executes the full pipeline for one input text.
func (p *Pipeline) Run(ctx context.Context, input string, opts Options) (*Result, error) {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID), zap.String("mode", opts.Mode.String()))
	start := time.Now()

	contextText, err := normalize.Context(input, p.cfg.Normalize.MaxContextChars)
	if err != nil {
		return nil, err
	}
	log.Debug("input normalized", zap.Int("context_chars", len(contextText)))

	dir, err := directive.Compile(opts.Mode, contextText)
	if err != nil {
		return nil, err
	}

	req := backend.Request{
		System:      dir.System,
		Prompt:      dir.Request,
		Model:       p.cfg.Backend.Model,
		Temperature: p.cfg.Backend.Temperature,
		MaxTokens:   p.cfg.Backend.MaxTokens,
	}
	if req.Temperature <= 0 {
		if opts.Mode == directive.Document {
			req.Temperature = documentTemperature
		} else {
			req.Temperature = subjectTemperature
		}
	}
	if req.MaxTokens <= 0 {
		if opts.Mode == directive.Document {
			req.MaxTokens = documentMaxTokens
		} else {
			req.MaxTokens = subjectMaxTokens
		}
	}

	raw, err := p.client.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Info("backend response received",
		zap.String("backend", p.client.Name()),
		zap.Int("response_chars", len(raw)),
		zap.Duration("elapsed", time.Since(start)))

	result, err := p.process(raw, opts, log)
	if err != nil {
		return nil, err
	}
	result.RunID = runID
	return result, nil
}

// RunRaw executes the offline stages (parse, validate, analyze, render) on
// previously captured backend output. No network calls are made.
func (p *Pipeline) RunRaw(raw string, opts Options) (*Result, error) {
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID), zap.String("mode", opts.Mode.String()))
	result, err := p.process(raw, opts, log)
	if err != nil {
		return nil, err
	}
	result.RunID = runID
	return result, nil
}

func (p *Pipeline) process(raw string, opts Options, log *zap.Logger) (*Result, error) {
	cat, err := parser.Parse(raw)
	if err != nil {
		return nil, err
	}
	if cat.Name == "" {
		cat.Name = opts.Name
	}
	log.Debug("category parsed",
		zap.String("category", cat.Name),
		zap.Int("objects", len(cat.Objects)),
		zap.Int("morphisms", len(cat.Morphisms)),
		zap.Int("unparsed_lines", len(cat.Unparsed)))

	validated, report := validate.ValidateWith(cat, validate.Options{Strict: opts.Strict})
	if !report.OK() {
		log.Warn("category has violations", zap.Int("violations", len(report.Violations)))
	}

	var chainList []chains.Chain
	if opts.Mode == directive.Document {
		chainList = chains.Find(validated)
		log.Debug("chains analyzed", zap.Int("chains", len(chainList)))
	}

	template := opts.Template
	if template == "" && p.cfg.Render.TemplateFile != "" {
		data, err := os.ReadFile(p.cfg.Render.TemplateFile)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", p.cfg.Render.TemplateFile, err)
		}
		template = string(data)
	}
	if template == "" {
		template = render.DefaultMarkdown
		if p.cfg.Render.Format == "mediawiki" {
			template = render.DefaultMediaWiki
		}
	}

	doc, err := render.Render(validated, chainList, template)
	if err != nil {
		return nil, err
	}

	return &Result{
		Document: doc,
		Report:   report,
		Chains:   chainList,
		Raw:      raw,
		Unparsed: cat.Unparsed,
	}, nil
}

// RunAll processes a batch of inputs as independent concurrent invocations,
// at most limit at a time (limit <= 0 means 4). Failures are recorded per
// input; RunAll itself fails only on an invalid batch.
func (p *Pipeline) RunAll(ctx context.Context, inputs []Input, opts Options, limit int) ([]Input, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("batch: no inputs")
	}
	if limit <= 0 {
		limit = 4
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	out := make([]Input, len(inputs))
	copy(out, inputs)
	for i := range out {
		g.Go(func() error {
			itemOpts := opts
			itemOpts.Name = out[i].Name
			res, err := p.Run(ctx, out[i].Text, itemOpts)
			out[i].Result, out[i].Err = res, err
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}
