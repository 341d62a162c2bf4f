/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Main command-line interface for encguess. Wires commands, flags and
configuration for guessing, converting and watching the text encoding of files.
*/

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kleascm/encguess/cmd/encguess/commands"
	"github.com/kleascm/encguess/pkg/core"
	"github.com/kleascm/encguess/pkg/shell"
	"github.com/kleascm/encguess/pkg/watch"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration
	configFile string
	logLevel   string

	// Logging configuration
	logDir      string
	logFormat   string
	logMaxFiles int

	// Queue configuration
	acceptDummy     bool
	stopThreshold   float64
	rejectThreshold float64
	guesserNames    []string
	toolTimeout     time.Duration
)

func main() {
	defaults := core.DefaultQueueConfig()

	// Create root command
	rootCmd := &cobra.Command{
		Use:   "encguess",
		Short: "encguess - guess the text encoding of files",
		Long: `encguess runs an ordered queue of encoding guessers over a file. Each guesser
looks at byte order marks, byte statistics, platform tools or file metadata and
reports a charset with a confidence; the queue adds confidences per charset and
stops as soon as one is certain enough.`,
		Version:       commands.Version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Log output directory (empty disables the log file)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "custom", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().IntVar(&logMaxFiles, "log-max-files", 10, "Maximum number of log files to keep")

	// Add queue flags
	rootCmd.PersistentFlags().BoolVar(&acceptDummy, "accept-dummy", defaults.AcceptDummy, "Count guesses naming byte-order-ambiguous encodings")
	rootCmd.PersistentFlags().Float64Var(&stopThreshold, "stop-threshold", defaults.StopThreshold, "Total confidence that ends a run early")
	rootCmd.PersistentFlags().Float64Var(&rejectThreshold, "reject-threshold", defaults.RejectThreshold, "Minimum total confidence of a result")
	rootCmd.PersistentFlags().StringSliceVar(&guesserNames, "guessers", nil, "Guessers to run, in order (default CoreBOM,MoreBOM,File,AppleXattr,ASCII,UTF,Latin)")
	rootCmd.PersistentFlags().DurationVar(&toolTimeout, "tool-timeout", shell.DefaultTimeout, "Timeout for external tools")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_max_files", rootCmd.PersistentFlags().Lookup("log-max-files"))
	viper.BindPFlag("queue.accept_dummy", rootCmd.PersistentFlags().Lookup("accept-dummy"))
	viper.BindPFlag("queue.stop_threshold", rootCmd.PersistentFlags().Lookup("stop-threshold"))
	viper.BindPFlag("queue.reject_threshold", rootCmd.PersistentFlags().Lookup("reject-threshold"))
	viper.BindPFlag("guessers", rootCmd.PersistentFlags().Lookup("guessers"))
	viper.BindPFlag("shell.timeout", rootCmd.PersistentFlags().Lookup("tool-timeout"))

	// Add guess command
	guessCmd := &cobra.Command{
		Use:   "guess <file>...",
		Short: "Guess the encoding of files",
		Long: `Run the configured guesser queue over each file and print the winning
charset with its total confidence, or "unknown" when nothing reached the reject
threshold. Several files are guessed concurrently.`,
		Args: cobra.MinimumNArgs(1),
		RunE: commands.RunGuess,
	}

	guessCmd.Flags().Bool("trace", false, "Print every guesser step")
	guessCmd.Flags().Bool("json", false, "Write results as JSON")
	guessCmd.Flags().Int("workers", 0, "Files guessed concurrently (0 = GOMAXPROCS)")
	guessCmd.Flags().Bool("fail-fast", false, "Stop at the first file that fails")
	guessCmd.Flags().String("report-dir", "", "Write a JSON report with per-guesser metrics to this directory")
	guessCmd.Flags().Duration("slow-guesser", 2*time.Second, "Warn when a single guesser runs longer than this")

	viper.BindPFlag("guess.trace", guessCmd.Flags().Lookup("trace"))
	viper.BindPFlag("guess.json", guessCmd.Flags().Lookup("json"))
	viper.BindPFlag("batch.workers", guessCmd.Flags().Lookup("workers"))
	viper.BindPFlag("batch.fail_fast", guessCmd.Flags().Lookup("fail-fast"))
	viper.BindPFlag("guess.report_dir", guessCmd.Flags().Lookup("report-dir"))
	viper.BindPFlag("guess.slow_guesser", guessCmd.Flags().Lookup("slow-guesser"))

	rootCmd.AddCommand(guessCmd)

	// Add convert command
	convertCmd := &cobra.Command{
		Use:   "convert <src> <dst>",
		Short: "Convert a file to UTF-8",
		Long: `Guess the encoding of src, or take it from --from, and write its content to
dst as UTF-8. A leading byte order mark is removed. src and dst may be the same file.`,
		Args: cobra.ExactArgs(2),
		RunE: commands.RunConvert,
	}

	convertCmd.Flags().String("from", "", "Source encoding, skipping the guess")
	viper.BindPFlag("convert.from", convertCmd.Flags().Lookup("from"))

	rootCmd.AddCommand(convertCmd)

	// Add watch command
	watchCmd := &cobra.Command{
		Use:   "watch <file>...",
		Short: "Re-guess files whenever they change",
		Args:  cobra.MinimumNArgs(1),
		RunE:  commands.RunWatch,
	}

	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period after a change before guessing")
	viper.BindPFlag("watch.debounce", watchCmd.Flags().Lookup("debounce"))

	rootCmd.AddCommand(watchCmd)

	// Add utility commands
	rootCmd.AddCommand(&cobra.Command{
		Use:   "list-guessers",
		Short: "List guessers, their variant and availability",
		RunE:  commands.ListGuessers,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate configuration and required tools",
		RunE:  commands.PerformSelfCheck,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run:   commands.PrintVersion,
	})

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
