package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yousuf/stackbraid/internal/stacktrace"
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert --to target [file]",
		Short: "Re-print a stack trace as another engine would",
		Long:  `Convert parses a stack trace and prints it the way the target browser, runtime or engine would (e.g. chrome, firefox, safari, "internet explorer", "opera presto", espruino)`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConvert,
	}
	cmd.Flags().String("to", "", "target browser, runtime or engine")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	target, err := cmd.Flags().GetString("to")
	if err != nil {
		return fmt.Errorf("failed to get to flag: %w", err)
	}
	frames, err := parseInput(cmd, args)
	if err != nil {
		return err
	}
	text, err := stacktrace.Convert(frames, target)
	if err != nil {
		return err
	}
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	return p.text(text)
}
