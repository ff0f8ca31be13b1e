package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yousuf/stackbraid/internal/stacktrace"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a stack trace into structured frames",
		Long:  `Parse reads a stack trace from a file or stdin and prints its frames. With --full the error's name, message and extra properties are printed as well`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runParse,
	}
	cmd.Flags().Bool("full", false, "print the whole error report")
	cmd.Flags().String("dialect", "", "parse as this dialect instead of detecting it ("+dialectNames()+")")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	full, err := cmd.Flags().GetBool("full")
	if err != nil {
		return fmt.Errorf("failed to get full flag: %w", err)
	}
	dialect, err := cmd.Flags().GetString("dialect")
	if err != nil {
		return fmt.Errorf("failed to get dialect flag: %w", err)
	}
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}

	if dialect != "" {
		if full {
			return fmt.Errorf("--dialect cannot be combined with --full")
		}
		format, ok := stacktrace.LookupFormat(dialect)
		if !ok {
			return fmt.Errorf("unknown dialect %q (must be one of %s)", dialect, dialectNames())
		}
		in, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		if err := stacktrace.Validate(in); err != nil {
			return err
		}
		frames, err := stacktrace.ParseAs(format, in)
		if err != nil {
			return err
		}
		return p.frames(frames)
	}

	if !full {
		frames, err := parseInput(cmd, args)
		if err != nil {
			return err
		}
		return p.frames(frames)
	}

	in, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	if err := stacktrace.Validate(in); err != nil {
		return err
	}
	report, err := stacktrace.ParseReport(in, stacktrace.Options{})
	if err != nil {
		return err
	}
	return p.report(report)
}

func dialectNames() string {
	names := make([]string, len(stacktrace.Formats))
	for i, f := range stacktrace.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, "|")
}
