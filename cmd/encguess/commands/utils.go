/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the encguess commands. Provides configuration loading,
logging setup and construction of the configured guesser queue used by every command.
*/

package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/kleascm/encguess/pkg/core"
	"github.com/kleascm/encguess/pkg/guesser"
	"github.com/kleascm/encguess/pkg/guessers"
	"github.com/kleascm/encguess/pkg/logging"
	"github.com/kleascm/encguess/pkg/semver"
	"github.com/kleascm/encguess/pkg/shell"
	"github.com/spf13/viper"
)

// Version is the encguess release
var Version = semver.MustParse("1.0.0")

// setDefaults registers defaults for keys without a flag
func setDefaults() {
	defaults := core.DefaultQueueConfig()
	viper.SetDefault("queue.accept_dummy", defaults.AcceptDummy)
	viper.SetDefault("queue.stop_threshold", defaults.StopThreshold)
	viper.SetDefault("queue.reject_threshold", defaults.RejectThreshold)
	viper.SetDefault("guessers", guessers.DefaultOrder)
	viper.SetDefault("shell.timeout", shell.DefaultTimeout)
	viper.SetDefault("log_max_files", 10)
}

// LoadConfig loads configuration from files and environment
func LoadConfig() error {
	setDefaults()

	// Set config file if specified
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("ENCGUESS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return nil
}

// SetupLogging configures the logging system
func SetupLogging() (*logging.Logger, error) {
	config := &logging.LoggerConfig{
		Level:     logging.LogLevel(viper.GetString("log_level")),
		Format:    logging.LogFormat(viper.GetString("log_format")),
		OutputDir: viper.GetString("log_dir"),
		MaxFiles:  viper.GetInt("log_max_files"),
		Timestamp: true,
		Colors:    viper.GetString("log_format") == string(logging.LogFormatCustom),
	}

	logger, err := logging.NewLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// queueConfig reads the queue policy from configuration
func queueConfig() core.QueueConfig {
	return core.QueueConfig{
		AcceptDummy:     viper.GetBool("queue.accept_dummy"),
		StopThreshold:   viper.GetFloat64("queue.stop_threshold"),
		RejectThreshold: viper.GetFloat64("queue.reject_threshold"),
	}
}

// newRunner builds the tool runner shared by shell guessers
func newRunner(logger *logging.Logger) *shell.Runner {
	timeout := viper.GetDuration("shell.timeout")
	if timeout <= 0 {
		timeout = shell.DefaultTimeout
	}
	return &shell.Runner{Timeout: timeout, Logger: logger.GetLogger()}
}

// configuredGuessers builds the guessers named in configuration, in order
func configuredGuessers(runner *shell.Runner) ([]guesser.Guesser, error) {
	names := viper.GetStringSlice("guessers")
	if len(names) == 0 {
		names = guessers.DefaultOrder
	}
	return guessers.Build(names, runner)
}

// buildQueue creates the configured guesser queue
func buildQueue(logger *logging.Logger) (*core.GuesserQueue, error) {
	set, err := configuredGuessers(newRunner(logger))
	if err != nil {
		return nil, err
	}

	queue, err := core.NewGuesserQueue(queueConfig(), set...)
	if err != nil {
		return nil, fmt.Errorf("invalid queue configuration: %w", err)
	}
	queue.SetLogger(logger.GetLogger())
	queue.AddReporter(&decisionReporter{logger: logger})
	return queue, nil
}

// decisionReporter forwards queue events to the session logger
type decisionReporter struct {
	logger *logging.Logger
}

func (r *decisionReporter) OnStep(runID, file string, step core.Step) {
	var label string
	var confidence float64
	if step.Guess != nil {
		label, confidence = string(step.Guess.Label), step.Guess.Confidence
	}
	r.logger.LogGuess(file, step.Guesser, label, confidence, map[string]interface{}{
		"run_id":  runID,
		"outcome": step.Outcome,
	})
}

func (r *decisionReporter) OnResult(result *core.Result) {
	r.logger.LogDecision(result.File, string(result.Label), result.Confidence, result.ShortCircuited,
		map[string]interface{}{"run_id": result.RunID})
}

// formatDuration rounds durations for display
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	case d < time.Second:
		return d.Round(100 * time.Microsecond).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}
