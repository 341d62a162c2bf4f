/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: convert.go
Description: Convert command implementation for encguess. Guesses the source encoding,
or takes it from --from, and rewrites the file as UTF-8.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kleascm/encguess/pkg/charset"
	"github.com/kleascm/encguess/pkg/convert"
	"github.com/kleascm/encguess/pkg/core"
	"github.com/kleascm/encguess/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunConvert transcodes args[0] to UTF-8 into args[1]
func RunConvert(cmd *cobra.Command, args []string) error {
	src, dst := args[0], args[1]

	// Load configuration first
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup logging
	logger, err := SetupLogging()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logger.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	label, err := sourceLabel(ctx, logger, src)
	if err != nil {
		return err
	}
	if label == "" {
		return fmt.Errorf("%s: could not guess the source encoding, pass --from", src)
	}

	n, err := convert.File(src, dst, label)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", src, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ %s (%s) → %s (UTF-8, %d bytes)\n", src, label, dst, n)
	return nil
}

// sourceLabel returns the --from label, or runs the configured queue
func sourceLabel(ctx context.Context, logger *logging.Logger, src string) (charset.Label, error) {
	if from := viper.GetString("convert.from"); from != "" {
		label, ok := charset.Lookup(from)
		if !ok {
			return "", fmt.Errorf("unknown encoding %q", from)
		}
		logger.Debug("Using source encoding from --from", map[string]interface{}{"file": src, "label": label})
		return label, nil
	}

	queue, err := buildQueue(logger)
	if err != nil {
		return "", err
	}

	path, err := core.ResolveRegular(src)
	if err != nil {
		return "", err
	}
	result, err := queue.Process(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to guess %s: %w", src, err)
	}
	return result.Label, nil
}
