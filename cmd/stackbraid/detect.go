package main

import (
	"github.com/spf13/cobra"
	"github.com/yousuf/stackbraid/internal/stacktrace"
)

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [file]",
		Short: "Tell which engine printed a stack trace",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDetect,
	}
}

func runDetect(cmd *cobra.Command, args []string) error {
	in, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	format, err := stacktrace.Detect(in)
	if err != nil {
		return err
	}
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	return p.text(string(format))
}
