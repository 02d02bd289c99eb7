package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trondarild/categen/internal/directive"
	"github.com/trondarild/categen/internal/pipeline"
)

// watchDebounce is the quiet period after the last write event before a
// file is processed, coalescing the burst of events an editor save emits.
const watchDebounce = 2 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and extract categories from new documents",
	Long: `Watch monitors a directory and runs document-mode extraction whenever
a .txt/.md file is created or modified. Generated documents are written
next to their inputs (or into --out-dir) as <name>.category.md.

Stops on SIGINT/SIGTERM.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptions()
		if err != nil {
			return err
		}
		opts.Mode = directive.Document

		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("watch: %s is not a directory", args[0])
		}

		p, _, err := buildPipeline()
		if err != nil {
			return err
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Add(args[0]); err != nil {
			return fmt.Errorf("watch: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.Info("watching for documents", zap.String("dir", args[0]))
		fmt.Fprintf(os.Stderr, "watching %s (ctrl-c to stop)\n", args[0])
		return watchLoop(ctx, watcher, p, opts)
	},
}

func init() {
	watchCmd.Flags().StringVar(&batchOutDir, "out-dir", "", "directory for generated documents (default: next to each input)")
	watchCmd.Flags().StringVarP(&templateFile, "template", "t", "", "template file with named placeholders")
	watchCmd.Flags().BoolVar(&strictLaws, "strict", false, "flag missing identities instead of synthesizing them")
	watchCmd.Flags().BoolVar(&asWiki, "wiki", false, "convert markdown headings to MediaWiki markup")
}

// watchLoop consumes watcher events until the context is cancelled. Events
// for the same file are debounced on the trailing edge: a save landing
// while a window is open extends the window, and each ready file runs as
// its own extraction so a long backend call never blocks the event loop.
func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, p *pipeline.Pipeline, opts pipeline.Options) error {
	deb := newDebouncer(watchDebounce, func(path string) {
		if ctx.Err() != nil {
			return
		}
		extractWatched(ctx, p, opts, path)
	})
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !textFile(event.Name) || generatedOutput(event.Name) {
				continue
			}
			deb.touch(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}

// debouncer invokes fn once per path after a quiet period of delay. Every
// touch restarts the window, so the last event in a burst is the one that
// triggers the run rather than being dropped.
type debouncer struct {
	delay time.Duration
	fn    func(path string)

	mu      sync.Mutex
	wg      sync.WaitGroup
	closed  bool
	last    map[string]time.Time
	pending map[string]*time.Timer
}

func newDebouncer(delay time.Duration, fn func(path string)) *debouncer {
	return &debouncer{
		delay:   delay,
		fn:      fn,
		last:    make(map[string]time.Time),
		pending: make(map[string]*time.Timer),
	}
}

func (d *debouncer) touch(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.last[path] = time.Now()
	if _, ok := d.pending[path]; ok {
		// Window already open; the timer re-arms itself off d.last.
		return
	}
	d.wg.Add(1)
	d.pending[path] = time.AfterFunc(d.delay, func() { d.fire(path) })
}

func (d *debouncer) fire(path string) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.wg.Done()
		return
	}
	if remaining := d.delay - time.Since(d.last[path]); remaining > 0 {
		// Touched while the window was open: wait out the rest.
		d.pending[path].Reset(remaining)
		d.mu.Unlock()
		return
	}
	delete(d.pending, path)
	delete(d.last, path)
	d.mu.Unlock()

	defer d.wg.Done()
	d.fn(path)
}

// stop cancels open windows and waits for in-flight invocations.
func (d *debouncer) stop() {
	d.mu.Lock()
	d.closed = true
	for path, t := range d.pending {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.pending, path)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// generatedOutput filters the files watch itself produces, so a run never
// retriggers on its own output.
func generatedOutput(path string) bool {
	return strings.Contains(path, ".category.")
}

func extractWatched(ctx context.Context, p *pipeline.Pipeline, opts pipeline.Options, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("read watched file", zap.String("path", path), zap.Error(err))
		return
	}

	opts.Name = documentName(path)
	res, err := p.Run(ctx, string(data), opts)
	if err != nil {
		logger.Error("extraction failed", zap.String("path", path), zap.Error(err))
		fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", path, err)
		return
	}

	out, err := writeBatchResult(pipeline.Input{Name: path, Result: res})
	if err != nil {
		logger.Error("write result", zap.String("path", path), zap.Error(err))
		return
	}
	fmt.Printf("ok   %s -> %s\n", path, out)
}
