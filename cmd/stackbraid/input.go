package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/yousuf/stackbraid/internal/stacktrace"
)

// readInput reads the error to work on from the file named by args, or from
// stdin when there is none or it is "-".
func readInput(cmd *cobra.Command, args []string) (stacktrace.Input, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return stacktrace.Input{}, fmt.Errorf("failed to read input: %w", err)
	}

	asJSON, _ := cmd.Root().PersistentFlags().GetBool("json")
	if !asJSON {
		return stacktrace.InputFromText(string(data)), nil
	}
	var in stacktrace.Input
	if err := json.Unmarshal(data, &in); err != nil {
		return stacktrace.Input{}, err
	}
	return in, nil
}

// parseInput reads and parses the input, failing when it carries no stack
// data at all.
func parseInput(cmd *cobra.Command, args []string) ([]stacktrace.Frame, error) {
	in, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	if err := stacktrace.Validate(in); err != nil {
		return nil, err
	}
	return stacktrace.Parse(in, stacktrace.Options{})
}
