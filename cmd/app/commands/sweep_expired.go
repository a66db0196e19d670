package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	membershipUsecase "github.com/capsvc/selfservice/internal/membership/usecase"
)

// RunSweepExpired cancels every membership application whose expiry deadline
// has passed without gathering an approval. The worker runs the same sweep
// periodically; this command exists for one-off runs and backfills.
func RunSweepExpired(
	ctx context.Context,
	useCase membershipUsecase.ApplicationUseCase,
	logger *slog.Logger,
	out io.Writer,
	format string,
) error {
	logger.Info("sweeping expired membership applications")

	count, err := useCase.CancelExpiredApplications(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to sweep expired applications: %w", err)
	}

	if format == "json" {
		outputSweepExpiredJSON(out, count)
	} else {
		outputSweepExpiredText(out, count)
	}

	logger.Info("sweep completed", slog.Int("count", count))
	return nil
}

// outputSweepExpiredText outputs the result in human-readable text format.
func outputSweepExpiredText(out io.Writer, count int) {
	fmt.Fprintf(out, "Cancelled %d expired membership application(s)\n", count)
}

// outputSweepExpiredJSON outputs the result in JSON format for machine consumption.
func outputSweepExpiredJSON(out io.Writer, count int) {
	result := map[string]interface{}{
		"cancelled": count,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(out, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Fprintln(out, string(jsonBytes))
}
