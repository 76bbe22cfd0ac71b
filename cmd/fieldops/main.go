package main

import (
	"fmt"
	"os"

	"github.com/alexanderramin/fieldops/internal/apiclient"
	"github.com/alexanderramin/fieldops/internal/cli"
	"github.com/alexanderramin/fieldops/internal/config"
	"github.com/alexanderramin/fieldops/internal/db"
	"github.com/alexanderramin/fieldops/internal/journal"
	"github.com/alexanderramin/fieldops/internal/orchestrator"
	"github.com/alexanderramin/fieldops/internal/refcache"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", cli.UserMessage(err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	log := cfg.NewLogger(os.Stderr)

	// API observers: metrics always, call logging on request.
	registry := prometheus.NewRegistry()
	metrics, err := apiclient.NewMetricsObserver(registry)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	observers := apiclient.MultiObserver{metrics}
	if cfg.LogCalls {
		observers = append(observers, apiclient.NewLogObserver(log))
	}

	client := apiclient.NewClient(cfg.API(), observers)
	cache := refcache.New(client)

	opts := []orchestrator.Option{
		orchestrator.WithObserver(orchestrator.NewLogRunObserver(log)),
		orchestrator.WithLogger(log),
		orchestrator.WithConcurrency(cfg.Concurrency),
	}

	app := &cli.App{
		Credential: cfg.Credential(),
		API:        client,
		Reference:  cache,
		Confirm:    cli.HuhConfirm,
		Choose:     cli.HuhChoose,
	}
	if history, closeJournal := openJournal(cfg.DBPath, log); history != nil {
		defer closeJournal()
		opts = append(opts, orchestrator.WithJournal(history))
		app.History = history
	}
	app.Batches = orchestrator.New(cache, client, opts...)
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	runErr := cli.NewRootCmd(app).Execute()

	if cfg.MetricsTextfile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsTextfile, registry); err != nil {
			log.WithError(err).Warn("writing metrics textfile")
		}
	}
	return runErr
}

// openJournal returns nil when the journal cannot be opened. Batches then
// run unrecorded and history commands report that no journal is configured.
func openJournal(path string, log logrus.FieldLogger) (*journal.SQLiteJournal, func()) {
	database, err := db.OpenDB(path)
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("journal unavailable; batches will not be recorded")
		return nil, func() {}
	}
	return journal.NewSQLiteJournal(database, db.NewSQLiteWriter(database)), func() { database.Close() }
}
