package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yousuf/stackbraid/internal/enrich"
)

func newEnrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich [file]",
		Short: "Attach the source lines around each frame",
		Long:  `Enrich fetches the script of every frame and attaches the lines around its position. Frames in minified, missing or too short files are left out`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnrich,
	}
	cmd.Flags().Int("window", 0, "lines of context above and below (default from config)")
	return cmd
}

func runEnrich(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	window, err := cmd.Flags().GetInt("window")
	if err != nil {
		return fmt.Errorf("failed to get window flag: %w", err)
	}
	if window <= 0 {
		window = cfg.Enrich.Window
	}

	frames, err := parseInput(cmd, args)
	if err != nil {
		return err
	}

	provider, closeProvider, err := newProvider(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	e := &enrich.Enricher{Provider: provider, Window: window, Concurrency: cfg.Batch.Concurrency, Logger: logger}
	enriched, err := e.Enrich(cmd.Context(), frames)
	if err != nil {
		return err
	}

	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	return p.frames(enriched)
}
