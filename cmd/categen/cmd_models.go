package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trondarild/categen/internal/backend"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models available on the local Ollama server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client := backend.NewOllamaClient(cfg.Backend.BaseURL, cfg.Backend.TimeoutDuration())
		models, err := client.ListModels(cmd.Context())
		if err != nil {
			return fmt.Errorf("is the Ollama server running? %w", err)
		}
		if len(models) == 0 {
			fmt.Println("no models installed (try: ollama pull llama3.2)")
			return nil
		}

		picked := backend.PickModel(models)
		for _, m := range models {
			marker := " "
			if m == picked {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, m)
		}
		fmt.Println("\n* auto-selected when no model is configured")
		return nil
	},
}
