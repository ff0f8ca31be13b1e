package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/yousuf/stackbraid/internal/config"
	"github.com/yousuf/stackbraid/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var version = "dev"

// newRootCmd builds the command tree. Every call returns fresh commands so
// flag state never leaks between executions.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "stackbraid",
		Short:         "JavaScript stack trace toolkit",
		Long:          `Stackbraid parses stack traces printed by V8, SpiderMonkey, Internet Explorer, Opera and Espruino into structured frames and prints them back in any of those dialects`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "path to a YAML, JSON or TOML config file (default $CONFIG_PATH)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().String("color", "auto", "colorize text output (auto|on|off)")
	rootCmd.PersistentFlags().StringP("output", "o", "text", "output format (text|json|yaml|msgpack)")
	rootCmd.PersistentFlags().Bool("json", false, "read the input as a JSON error object instead of stack text")

	rootCmd.AddCommand(newDetectCmd())
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newMapCmd())
	rootCmd.AddCommand(newEnrichCmd())
	rootCmd.AddCommand(newTraceCmd())
	rootCmd.AddCommand(newServeCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration named by --config or $CONFIG_PATH and
// builds the logger it describes.
func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	configPath, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	logger, err := logging.New(cfg.Log, verbose)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// useColor resolves --color against the terminal state of stdout.
func useColor(cmd *cobra.Command) bool {
	colorFlag, _ := cmd.Root().PersistentFlags().GetString("color")
	switch colorFlag {
	case "on":
		return true
	case "off":
		return false
	}
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && isTerminal(f)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
