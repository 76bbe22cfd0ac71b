package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/alexanderramin/fieldops/internal/orchestrator"
	"github.com/spf13/cobra"
)

// inflightRefresh is how often the spinner re-reads the outstanding calls.
var inflightRefresh = 100 * time.Millisecond

// runBatch executes intent and prints its outcome. A rejected batch prints
// nothing; its validation error is the command's error.
func runBatch(cmd *cobra.Command, app *App, intent orchestrator.Intent) (*orchestrator.Outcome, error) {
	stop := func() {}
	if app.interactive() {
		stop = watchBatch(cmd.ErrOrStderr(), app.Batches, intent.Subject())
	}
	out, err := app.Batches.Run(context.Background(), app.Credential, intent)
	stop()
	if out != nil && out.Status() != orchestrator.StatusRejected {
		fmt.Fprint(cmd.OutOrStdout(), formatter.FormatOutcome(out))
	}
	return out, err
}

// watchBatch spins on w, naming the entities b is still waiting on.
func watchBatch(w io.Writer, b Batches, subject string) func() {
	spin := formatter.NewSpinner(w, formatter.BatchProgress(subject, nil))
	spin.Start()

	quit := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(inflightRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				spin.SetMessage(formatter.BatchProgress(subject, b.InFlight()))
			}
		}
	}()

	return func() {
		close(quit)
		<-done
		spin.Stop()
	}
}
