package main

import (
	"github.com/spf13/cobra"
	"github.com/yousuf/stackbraid/internal/sourcemap"
)

func newMapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "map [file]",
		Short: "Resolve frames through the source maps next to their scripts",
		Long:  `Map fetches "<script>.map" for every frame and rewrites the frame to its original source position. Frames whose map cannot be fetched are left out`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMap,
	}
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	frames, err := parseInput(cmd, args)
	if err != nil {
		return err
	}

	provider, closeProvider, err := newProvider(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	mapper := &sourcemap.Mapper{Provider: provider, Concurrency: cfg.Batch.Concurrency, Logger: logger}
	mapped, err := mapper.Map(cmd.Context(), frames)
	if err != nil {
		return err
	}

	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	return p.frames(mapped)
}
