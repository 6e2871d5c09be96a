package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"doculens/internal/config"
	"doculens/internal/domain"
	"doculens/internal/inference"
	_ "doculens/internal/inference/gemini"
	_ "doculens/internal/inference/openai"
	"doculens/internal/pagesource"
	"doculens/internal/pipeline"
)

func processCmd() *cobra.Command {
	var sourceName string
	var sourcePDF string

	cmd := &cobra.Command{
		Use:   "process <page-image>...",
		Short: "Run extraction over page images and print the result envelope",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			pages := make([][]byte, 0, len(args))
			contentTypes := make([]string, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				pages = append(pages, data)
				contentTypes = append(contentTypes, http.DetectContentType(data))
			}
			if sourceName == "" {
				sourceName = filepath.Base(args[0])
			}

			doc, err := pagesource.New().Load(cmd.Context(), sourceName, pages, contentTypes)
			if err != nil {
				return err
			}

			gateway, err := inference.NewGateway(&cfg.Inference)
			if err != nil {
				return fmt.Errorf("initializing inference gateway: %w", err)
			}

			pipe := pipeline.New(gateway, pipeline.Config{
				MaxConcurrency:  cfg.Pipeline.MaxConcurrency,
				MaxRetries:      cfg.Pipeline.MaxRetries,
				MaxPages:        cfg.Pipeline.MaxPages,
				MaxOutputTokens: cfg.Inference.MaxOutputTokens,
				Temperature:     cfg.Inference.Temperature,
				CallTimeout:     cfg.Inference.Timeout(),
			})

			res, err := pipe.Run(cmd.Context(), doc)
			if err != nil {
				return err
			}

			env := domain.NewEnvelope(res)
			if sourcePDF != "" {
				data, err := os.ReadFile(sourcePDF)
				if err != nil {
					return fmt.Errorf("reading %s: %w", sourcePDF, err)
				}
				if n, err := pagesource.PDFPageCount(data); err != nil {
					env.Warnings = append(env.Warnings, fmt.Sprintf("source pdf unreadable: %v", err))
				} else if n != len(pages) {
					env.Warnings = append(env.Warnings,
						fmt.Sprintf("source pdf has %d pages but %d page images were given", n, len(pages)))
				}
			}

			out, err := json.MarshalIndent(env, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling envelope: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceName, "source-name", "", "document name for logs and exports (default: first page filename)")
	cmd.Flags().StringVar(&sourcePDF, "source-pdf", "", "optional original PDF for a page-count cross-check")
	return cmd
}
