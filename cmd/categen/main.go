// categen turns an unstructured subject description or extracted document
// text into a formally validated category - objects, morphisms,
// composition, identities - and renders it as a presentation document.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trondarild/categen/internal/backend"
	"github.com/trondarild/categen/internal/config"
	"github.com/trondarild/categen/internal/pipeline"
)

var (
	// Global flags
	verbose    bool
	configPath string
	provider   string
	model      string
	timeout    time.Duration
	maxRetries int

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "categen",
	Short: "categen - category extraction from text and documents",
	Long: `categen models a subject or a research paper as a category:
stable concepts become objects, transformations become morphisms, and the
longest composable morphism chains expose the end-to-end argument.

The generated structure is validated against the category laws (unique
objects, resolvable morphism endpoints, one identity per object) and
rendered through a placeholder template into Markdown or MediaWiki.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "generation backend (ollama, gemini; default: auto-detect)")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "backend model identity")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "backend call timeout (e.g. 5m)")
	rootCmd.PersistentFlags().IntVar(&maxRetries, "max-retries", -1, "retry budget for transient backend failures")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(modelsCmd)
}

// defaultConfigPath points at ~/.categen.yaml when resolvable.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home + "/.categen.yaml"
}

// loadConfig reads the config file and folds the command-line overrides in.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if provider != "" {
		cfg.Backend.Provider = provider
	}
	if model != "" {
		cfg.Backend.Model = model
	}
	if timeout > 0 {
		cfg.Backend.Timeout = timeout.String()
	}
	if maxRetries >= 0 {
		cfg.Backend.MaxRetries = maxRetries
	}
	return cfg, nil
}

// buildPipeline assembles the configured backend and pipeline.
func buildPipeline() (*pipeline.Pipeline, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	client, err := backend.New(cfg.Backend, logger)
	if err != nil {
		return nil, nil, err
	}
	return pipeline.New(client, cfg, logger), cfg, nil
}

// offlinePipeline assembles a pipeline without a backend, for commands that
// only replay captured output.
func offlinePipeline() (*pipeline.Pipeline, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return pipeline.New(nil, cfg, logger), cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
