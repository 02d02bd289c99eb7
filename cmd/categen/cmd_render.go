package main

import (
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Re-run validation and rendering on captured backend output",
	Long: `Render replays the offline stages (parse, validate, analyze, render)
on a previously captured backend response, without calling any backend.
Useful for iterating on templates and for inspecting a saved run:

  categen extract --keep-raw run.txt "active inference"
  categen render --mode document run.txt --wiki`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := runOptions()
		if err != nil {
			return err
		}
		if opts.Name == "" {
			opts.Name = documentName(args[0])
		}

		raw, err := readInput(args[0])
		if err != nil {
			return err
		}

		p, _, err := offlinePipeline()
		if err != nil {
			return err
		}

		res, err := p.RunRaw(raw, opts)
		if err != nil {
			return err
		}
		return emit(res)
	},
}

func init() {
	renderCmd.Flags().StringVar(&extractMode, "mode", "subject", "analysis mode (subject, document)")
	renderCmd.Flags().StringVar(&extractName, "name", "", "category name when the captured output does not declare one")
	renderCmd.Flags().StringVarP(&templateFile, "template", "t", "", "template file with named placeholders")
	renderCmd.Flags().BoolVar(&strictLaws, "strict", false, "flag missing identities instead of synthesizing them")
	addOutputFlags(renderCmd.Flags())
}
