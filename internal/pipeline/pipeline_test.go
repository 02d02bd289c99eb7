package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/trondarild/categen/internal/backend"
	"github.com/trondarild/categen/internal/config"
	"github.com/trondarild/categen/internal/directive"
)

const modelOutput = `Category: Bread Making

Objects:
Flour: milled grain
Water: hydration
Dough: kneaded mixture
Bread: the baked result

Morphisms:
mix: [Flour, Water] -> Dough. combines the ingredients
bake: Dough -> Bread. heat transforms the dough
id_Flour: Flour -> Flour. maps Flour to itself

Sorted chains:
Flour -> Dough -> Bread
`

// scriptedClient returns a fixed response and records the requests it saw.
type scriptedClient struct {
	response string
	err      error
	calls    atomic.Int32

	mu      sync.Mutex
	lastReq backend.Request
}

func (s *scriptedClient) Name() string { return "scripted" }

func (s *scriptedClient) Generate(ctx context.Context, req backend.Request) (string, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.lastReq = req
	s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *scriptedClient) last() backend.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReq
}

func TestRunSubjectEndToEnd(t *testing.T) {
	client := &scriptedClient{response: modelOutput}
	p := New(client, config.Default(), nil)

	res, err := p.Run(context.Background(), "the craft of bread making", Options{Mode: directive.Subject})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if res.RunID == "" {
		t.Error("run ID missing")
	}
	if !strings.Contains(res.Document, "# Bread Making") {
		t.Errorf("document missing title:\n%s", res.Document)
	}
	if !strings.Contains(res.Document, "- mix: [Flour, Water] -> Dough. combines the ingredients") {
		t.Errorf("document missing multi-source morphism:\n%s", res.Document)
	}
	// Water, Dough, and Bread lacked identities; the validator fills them in.
	if len(res.Report.Synthesized) != 3 {
		t.Errorf("synthesized = %v, want 3 identities", res.Report.Synthesized)
	}
	if !res.Report.OK() {
		t.Errorf("unexpected violations: %+v", res.Report.Violations)
	}
	// Subject mode does not analyze chains.
	if len(res.Chains) != 0 {
		t.Errorf("subject mode produced chains: %v", res.Chains)
	}
	if res.Raw != modelOutput {
		t.Error("raw backend output should be preserved")
	}

	if !strings.Contains(client.last().Prompt, "the craft of bread making") {
		t.Error("subject text missing from the generation request")
	}
	if client.last().System == "" {
		t.Error("system framing missing from the generation request")
	}
}

func TestRunDocumentAnalyzesChains(t *testing.T) {
	client := &scriptedClient{response: modelOutput}
	p := New(client, config.Default(), nil)

	res, err := p.Run(context.Background(), "long paper text", Options{Mode: directive.Document})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(res.Chains) == 0 {
		t.Fatal("document mode should analyze chains")
	}
	best := res.Chains[0]
	if got := best.String(); got != "Flour -> Dough -> Bread" && got != "Water -> Dough -> Bread" {
		t.Errorf("longest chain = %q", got)
	}
	if !strings.Contains(res.Document, "(2 morphisms)") {
		t.Errorf("chain section missing from document:\n%s", res.Document)
	}
}

func TestRunNameFallback(t *testing.T) {
	// Response without a Category: line takes the caller-provided name.
	client := &scriptedClient{response: "Objects:\nA: only object\n"}
	p := New(client, config.Default(), nil)

	res, err := p.Run(context.Background(), "text", Options{Mode: directive.Subject, Name: "Fallback Name"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(res.Document, "# Fallback Name") {
		t.Errorf("fallback name not used:\n%s", res.Document)
	}
}

func TestRunEmptyInput(t *testing.T) {
	client := &scriptedClient{response: modelOutput}
	p := New(client, config.Default(), nil)

	if _, err := p.Run(context.Background(), "   \n\t", Options{}); err == nil {
		t.Fatal("empty input must fail before any backend call")
	}
	if client.calls.Load() != 0 {
		t.Error("backend called despite empty input")
	}
}

func TestRunBackendFailure(t *testing.T) {
	wantErr := errors.New("backend down")
	p := New(&scriptedClient{err: wantErr}, config.Default(), nil)

	if _, err := p.Run(context.Background(), "text", Options{}); !errors.Is(err, wantErr) {
		t.Fatalf("Run() error = %v, want backend error", err)
	}
}

func TestRunModeDefaults(t *testing.T) {
	var got backend.Request
	client := &captureClient{response: modelOutput, capture: &got}

	tests := []struct {
		name     string
		mode     directive.Mode
		wantTemp float64
		wantMax  int
	}{
		{name: "subject", mode: directive.Subject, wantTemp: 0.7, wantMax: 4096},
		{name: "document", mode: directive.Document, wantTemp: 0.3, wantMax: 8192},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(client, config.Default(), nil)
			if _, err := p.Run(context.Background(), "text", Options{Mode: tt.mode}); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got.Temperature != tt.wantTemp {
				t.Errorf("temperature = %v, want %v", got.Temperature, tt.wantTemp)
			}
			if got.MaxTokens != tt.wantMax {
				t.Errorf("max tokens = %d, want %d", got.MaxTokens, tt.wantMax)
			}
		})
	}
}

func TestRunConfiguredSamplingWins(t *testing.T) {
	var got backend.Request
	cfg := config.Default()
	cfg.Backend.Temperature = 0.55
	cfg.Backend.MaxTokens = 1234

	p := New(&captureClient{response: modelOutput, capture: &got}, cfg, nil)
	if _, err := p.Run(context.Background(), "text", Options{Mode: directive.Document}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got.Temperature != 0.55 || got.MaxTokens != 1234 {
		t.Errorf("request = %+v, configured sampling should win", got)
	}
}

type captureClient struct {
	response string
	capture  *backend.Request
}

func (c *captureClient) Name() string { return "capture" }

func (c *captureClient) Generate(ctx context.Context, req backend.Request) (string, error) {
	*c.capture = req
	return c.response, nil
}

func TestRunRawOffline(t *testing.T) {
	p := New(nil, config.Default(), nil)

	res, err := p.RunRaw(modelOutput, Options{Mode: directive.Document})
	if err != nil {
		t.Fatalf("RunRaw() error = %v", err)
	}
	if !strings.Contains(res.Document, "# Bread Making") {
		t.Error("offline run should render the full document")
	}
	if len(res.Chains) == 0 {
		t.Error("offline document run should analyze chains")
	}
}

func TestRunRawConfiguredTemplateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "only-objects.md")
	if err := os.WriteFile(path, []byte("OBJECTS\n{objects}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Render.TemplateFile = path
	p := New(nil, cfg, nil)

	res, err := p.RunRaw(modelOutput, Options{Mode: directive.Subject})
	if err != nil {
		t.Fatalf("RunRaw() error = %v", err)
	}
	if !strings.HasPrefix(res.Document, "OBJECTS\n- Flour: milled grain") {
		t.Errorf("configured template not used:\n%s", res.Document)
	}
}

func TestRunRawMediaWikiFormat(t *testing.T) {
	cfg := config.Default()
	cfg.Render.Format = "mediawiki"
	p := New(nil, cfg, nil)

	res, err := p.RunRaw(modelOutput, Options{Mode: directive.Subject})
	if err != nil {
		t.Fatalf("RunRaw() error = %v", err)
	}
	if !strings.Contains(res.Document, "= Bread Making =") {
		t.Errorf("mediawiki format not applied:\n%s", res.Document)
	}
}

func TestRunAll(t *testing.T) {
	client := &scriptedClient{response: modelOutput}
	p := New(client, config.Default(), nil)

	inputs := []Input{
		{Name: "one", Text: "first subject"},
		{Name: "two", Text: "   "}, // fails normalization
		{Name: "three", Text: "third subject"},
	}

	out, err := p.RunAll(context.Background(), inputs, Options{Mode: directive.Subject}, 2)
	if err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d results, want 3", len(out))
	}

	if out[0].Err != nil || out[0].Result == nil {
		t.Errorf("input one: err=%v result=%v", out[0].Err, out[0].Result)
	}
	if out[1].Err == nil {
		t.Error("input two should fail, not stop the batch")
	}
	if out[2].Err != nil || out[2].Result == nil {
		t.Errorf("input three: err=%v result=%v", out[2].Err, out[2].Result)
	}

	// Results keep their input identity and order.
	if out[0].Name != "one" || out[1].Name != "two" || out[2].Name != "three" {
		t.Errorf("order not preserved: %v, %v, %v", out[0].Name, out[1].Name, out[2].Name)
	}
}

func TestRunAllEmptyBatch(t *testing.T) {
	p := New(&scriptedClient{response: modelOutput}, config.Default(), nil)
	if _, err := p.RunAll(context.Background(), nil, Options{}, 2); err == nil {
		t.Fatal("empty batch should fail")
	}
}
