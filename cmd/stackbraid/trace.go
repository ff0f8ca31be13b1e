package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dop251/goja"
	"github.com/spf13/cobra"
	"github.com/yousuf/stackbraid/internal/callsite"
	"github.com/yousuf/stackbraid/internal/stacktrace"
)

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace script.js",
		Short: "Run a script and parse the call stack it records",
		Long:  `Trace runs a script in an embedded JavaScript runtime. Calling the hook function (captureStack by default) records the current call stack together with its call sites; the last recording is parsed and printed`,
		Args:  cobra.ExactArgs(1),
		RunE:  runTrace,
	}
	cmd.Flags().String("hook", "captureStack", "name of the global function that records the stack")
	cmd.Flags().Int("limit", 0, "keep at most this many frames per recording (0 keeps all)")
	return cmd
}

func runTrace(cmd *cobra.Command, args []string) error {
	hook, err := cmd.Flags().GetString("hook")
	if err != nil {
		return fmt.Errorf("failed to get hook flag: %w", err)
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("failed to get limit flag: %w", err)
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	rt := goja.New()
	rec := callsite.NewRecorder(rt)
	if err := rec.Install(hook); err != nil {
		return err
	}
	run := func() error {
		_, err := rt.RunScript(filepath.Base(args[0]), string(src))
		return err
	}
	if limit > 0 {
		err = rec.With(limitFormatter(limit), run)
	} else {
		err = run()
	}
	if err != nil {
		return fmt.Errorf("script failed: %w", err)
	}

	capture := rec.Last()
	if capture == nil {
		return errors.New("script did not call " + hook)
	}
	frames, err := stacktrace.Parse(capture.Input(), stacktrace.Options{CallSites: capture.Provider()})
	if err != nil {
		return err
	}

	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	return p.frames(frames)
}

// limitFormatter renders like V8 with Error.stackTraceLimit set to n.
func limitFormatter(n int) callsite.Formatter {
	return func(header string, sites []stacktrace.CallSite) string {
		return callsite.FormatV8(header, sites[:min(n, len(sites))])
	}
}
