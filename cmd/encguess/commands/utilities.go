/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utilities.go
Description: Utility commands for encguess. Provides list-guessers, self-check and version
output for inspecting what a queue will run on this machine.
*/

package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/kleascm/encguess/pkg/core"
	"github.com/kleascm/encguess/pkg/guesser"
	"github.com/kleascm/encguess/pkg/guessers"
	"github.com/kleascm/encguess/pkg/logging"
	"github.com/kleascm/encguess/pkg/shell"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ListGuessers lists every registered guesser with its variant and availability
func ListGuessers(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🧭 encguess - Available Guessers")
	fmt.Fprintln(out, "================================")
	fmt.Fprintln(out)

	configured := make(map[string]int)
	for i, name := range viper.GetStringSlice("guessers") {
		configured[strings.ToLower(name)] = i + 1
	}

	runner := &shell.Runner{Timeout: viper.GetDuration("shell.timeout")}
	for _, name := range guessers.Names() {
		g, err := guessers.Named(name, runner)
		if err != nil {
			return err
		}

		status := "✅ available"
		if !g.Available() {
			status = "⛔ unavailable"
		}
		position := "-"
		if p, ok := configured[strings.ToLower(name)]; ok {
			position = fmt.Sprintf("#%d", p)
		}
		fmt.Fprintf(out, "%-4s %-12s %-9s %s%s\n", position, g.Name(), g.Kind(), status, describe(g))
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "✨ Default order: %s\n", strings.Join(guessers.DefaultOrder, ", "))
	fmt.Fprintln(out, "   Set 'guessers' in the config file to choose an order")
	return nil
}

// describe adds variant specific details
func describe(g guesser.Guesser) string {
	switch v := g.(type) {
	case *guesser.PlatformGuesser:
		return fmt.Sprintf(" (runs %s, confidence %.2f)", v.Tool, v.Confidence())
	case *guesser.ShellGuesser:
		return fmt.Sprintf(" (runs %s)", v.Tool)
	case *guesser.HostGuesser:
		return fmt.Sprintf(" (host >= %s, running %s)", v.MinVersion, guesser.HostVersion)
	case *guesser.SampleGuesser:
		return fmt.Sprintf(" (first %d bytes)", v.SampleSize)
	default:
		return ""
	}
}

// PerformSelfCheck validates configuration and the tools the configured guessers need
func PerformSelfCheck(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "🔍 encguess - System Self-Check")
	fmt.Fprintln(out, "==============================")
	fmt.Fprintln(out)

	checks := []struct {
		name     string
		function func() error
	}{
		{"Queue Configuration", checkQueueConfiguration},
		{"Guesser Order", checkGuesserOrder},
		{"External Tools", checkExternalTools},
		{"Log Directory", checkLogDirectory},
	}

	passed := 0
	total := len(checks)

	for _, check := range checks {
		fmt.Fprintf(out, "🔍 %s... ", check.name)
		if err := check.function(); err != nil {
			fmt.Fprintf(out, "❌ FAILED: %v\n", err)
		} else {
			fmt.Fprintln(out, "✅ PASSED")
			passed++
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "📊 Results: %d/%d checks passed\n", passed, total)

	if passed == total {
		fmt.Fprintln(out, "✨ All checks passed!")
		return nil
	}
	fmt.Fprintln(out, "⚠️  Some checks failed.")
	return fmt.Errorf("%d/%d checks failed", total-passed, total)
}

func checkQueueConfiguration() error {
	return queueConfig().Validate()
}

func checkGuesserOrder() error {
	set, err := configuredGuessers(&shell.Runner{})
	if err != nil {
		return err
	}
	queue, err := core.NewGuesserQueue(queueConfig(), set...)
	if err != nil {
		return err
	}
	if len(queue.Available()) == 0 {
		return fmt.Errorf("none of the %d configured guessers is available", len(set))
	}
	return nil
}

// checkExternalTools fails when a configured shell guesser's tool is missing
func checkExternalTools() error {
	runner := &shell.Runner{}
	set, err := configuredGuessers(runner)
	if err != nil {
		return err
	}

	var missing []string
	for _, g := range set {
		var tool string
		switch v := g.(type) {
		case *guesser.PlatformGuesser:
			// only required where it can answer confidently
			if v.Native() {
				tool = v.Tool
			}
		case *guesser.ShellGuesser:
			tool = v.Tool
		}
		if tool != "" && !runner.Available(tool) {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool, g.Name()))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing on %s: %s", runtime.GOOS, strings.Join(missing, ", "))
	}
	return nil
}

// checkLogDirectory verifies the log directory is writable and reports its size
func checkLogDirectory() error {
	dir := viper.GetString("log_dir")
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	probe, err := os.CreateTemp(dir, ".encguess-check-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	stats, err := logging.NewLogManager(dir, viper.GetInt("log_max_files")).GetLogStats()
	if err != nil {
		return err
	}
	abs, _ := filepath.Abs(dir)
	fmt.Printf("(%d log files, %d bytes in %s) ", stats.TotalFiles, stats.TotalSize, abs)
	return nil
}

// PrintVersion prints the encguess version and the host it runs on
func PrintVersion(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "encguess %s\n", Version)
	fmt.Fprintf(out, "host %s (%s, %s/%s)\n", guesser.HostVersion, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
