package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"deckhand/internal/browser"
	"deckhand/internal/download"
	"deckhand/internal/fetch"
	"deckhand/internal/ledger"
	"deckhand/internal/logging"
	"deckhand/internal/mpc"
	"deckhand/internal/notifications"
	"deckhand/internal/order"
	"deckhand/internal/progress"
	"deckhand/internal/runlock"
	"deckhand/internal/sequencer"
	"deckhand/internal/workflow"
)

// dialSession is indirected so tests can stand in for a live WebDriver
// endpoint.
var dialSession = browser.Dial

func newRunCommand(ctx *commandContext) *cobra.Command {
	var orderPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fill a card order into the designer",
		Long: "Downloads the order's images in the background while driving the remote\n" +
			"browser session through order setup, front inserts, and back inserts.\n" +
			"The browser is left on the review page; completing checkout stays manual.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(cmd, ctx, orderPath)
		},
	}

	cmd.Flags().StringVarP(&orderPath, "order", "o", "cards.xml", "Order file to fill")
	return cmd
}

func runOrder(cmd *cobra.Command, cmdCtx *commandContext, orderPath string) error {
	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lock, err := runlock.Acquire(cfg.Paths.CacheDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	runID := uuid.NewString()
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("deckhand-%s.log", runID))
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldRunID, runID))

	ord, err := order.Load(orderPath, cfg.Paths.CacheDir)
	if err != nil {
		return err
	}
	logger.Info("order loaded",
		logging.Int("fronts", ord.Fronts.Count()),
		logging.Int("backs", ord.Backs.Count()),
		logging.Bool("foil", ord.Details.Foil),
	)

	store, err := ledger.Open(cfg.Paths.CacheDir)
	if err != nil {
		return fmt.Errorf("open fetch ledger: %w", err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Filling %d front and %d back images (run %s)\n", ord.Fronts.Count(), ord.Backs.Count(), runID)
	fmt.Fprintf(out, "Log: %s\n", logPath)

	session, err := dialSession(cfg.Session)
	if err != nil {
		return fmt.Errorf("dial webdriver at %s: %w", cfg.Session.RemoteURL, err)
	}

	tracker := progress.NewTracker(ord.Count())
	renderer := progress.NewRenderer(tracker, logger)
	renderer.Start(signalCtx)

	fetcher := fetch.New(time.Duration(cfg.Downloader.RequestTimeout)*time.Second, logger)
	pipeline := download.New(fetcher, cfg.Downloader.Workers, tracker, store, logger, runID)
	client := mpc.New(session, cfg.Session, logger)
	seq := sequencer.New(client, tracker, logger)
	notifier := notifications.NewService(cfg)

	driver := workflow.New(client, seq, pipeline, notifier, ord, cfg.Session.StartURL, logger)
	summary, runErr := driver.Run(signalCtx)
	renderer.Stop()

	printRunSummary(cmd, summary)
	reportFetchFailures(cmd, store, runID)

	if runErr != nil {
		if qerr := session.Quit(); qerr != nil {
			logger.Warn("session quit failed", logging.Error(qerr))
		}
		state, action := driver.Status()
		return fmt.Errorf("run halted in state %s (%s): %w", state, action, runErr)
	}

	// Checkout is manual; the session must outlive the command.
	logger.Info("run complete",
		logging.Duration("elapsed", summary.Duration),
		logging.Int("placed", summary.Placed()),
		logging.Int("skipped", summary.Skipped()),
	)
	fmt.Fprintln(out, "Order filled. Review and complete checkout in the browser window.")
	return nil
}

func printRunSummary(cmd *cobra.Command, summary workflow.Summary) {
	rows := [][]string{
		{"fronts", strconv.Itoa(summary.Fronts.Placed), strconv.Itoa(summary.Fronts.Skipped)},
		{"backs", strconv.Itoa(summary.Backs.Placed), strconv.Itoa(summary.Backs.Skipped)},
		{"total", strconv.Itoa(summary.Placed()), strconv.Itoa(summary.Skipped())},
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable([]string{"Face", "Placed", "Skipped"}, rows, 2, 3))
	fmt.Fprintf(out, "Elapsed: %s\n", summary.Duration.Round(time.Second))
}

func reportFetchFailures(cmd *cobra.Command, store *ledger.Store, runID string) {
	failures, err := store.Failures(context.Background(), runID)
	if err != nil || len(failures) == 0 {
		return
	}
	rows := make([][]string, 0, len(failures))
	for _, entry := range failures {
		rows = append(rows, []string{entry.Name, string(entry.Face), entry.Source, entry.Error})
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Images that could not be fetched (their slots were left empty):")
	fmt.Fprintln(out, renderTable([]string{"Image", "Face", "Source", "Error"}, rows))
}
