package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailtriage/internal/audit"
	"mailtriage/internal/console"
	"mailtriage/internal/httpserver"
	"mailtriage/internal/llm"
	"mailtriage/internal/mailbox"
	"mailtriage/internal/service"
	"mailtriage/internal/workflow"
	"mailtriage/pkg/db"
	"mailtriage/pkg/mq"
	"mailtriage/pkg/redis"
	"mailtriage/pkg/util"
)

var runFlags struct {
	simulate bool
	limit    int
	dryRun   bool
	markSeen bool
	yes      bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process one batch of unread email",
	Long: `Fetch up to --limit unread emails (or the sample fixture with --simulate),
run each through the filter, summarize and respond steps, then send, draft or
skip the reply. Without --yes the options are asked interactively and flagged
replies can be edited before they are drafted.`,
	RunE: runTriage,
}

func init() {
	f := runCmd.Flags()
	f.BoolVar(&runFlags.simulate, "simulate", false, "use the sample email fixture instead of IMAP")
	f.IntVar(&runFlags.limit, "limit", 1, "maximum number of emails to process")
	f.BoolVar(&runFlags.dryRun, "dry-run", false, "send every reply as a draft to your own mailbox")
	f.BoolVar(&runFlags.markSeen, "mark-seen", false, "mark fetched emails as seen (live fetch only)")
	f.BoolVarP(&runFlags.yes, "yes", "y", false, "skip the interactive prompts")
}

func runTriage(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, log := a.cfg, a.log

	opts := service.RunOptions{
		Simulate: runFlags.simulate,
		Limit:    runFlags.limit,
		DryRun:   runFlags.dryRun,
		MarkSeen: runFlags.markSeen,
	}
	interactive := !runFlags.yes
	if interactive {
		opts, err = console.PromptRunOptions(ctx, opts)
		if errors.Is(err, console.ErrExit) {
			fmt.Fprintln(cmd.OutOrStdout(), "Exiting.")
			return nil
		}
		if err != nil {
			return err
		}
	}

	log.Info("Starting mailtriage",
		zap.String("operator", cfg.Operator.Name),
		zap.String("draft_address", cfg.Operator.DraftAddress),
		zap.Bool("simulate", opts.Simulate),
		zap.Int("limit", opts.Limit),
		zap.Bool("dry_run", opts.DryRun),
	)

	labels, err := cfg.Labels()
	if err != nil {
		return err
	}
	gemini, err := llm.NewGeminiClient(ctx, cfg.LLM, log)
	if err != nil {
		return err
	}
	engine := workflow.NewEngine(gemini, workflow.Config{
		OperatorName: cfg.Operator.Name,
		Labels:       labels,
	}, log)

	checks := map[string]httpserver.ReadyCheck{}

	var guard service.ReplyGuard
	rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, duplicate reply protection disabled", zap.Error(err))
	} else if rdb != nil {
		a.onClose(func() { _ = rdb.Close() })
		guard = util.NewDeduper(rdb, cfg.Triage.DedupTTL, log)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	sinks := []audit.Sink{audit.NewCSVSink(cfg.Audit.CSVPath, log)}
	if cfg.Audit.SQLitePath != "" {
		sqlite, err := audit.NewSQLiteSink(cfg.Audit.SQLitePath)
		if err != nil {
			return err
		}
		sinks = append(sinks, sqlite)
	}
	if cfg.Audit.Postgres {
		pool, err := db.NewConnection(ctx, cfg.DB, log)
		if err != nil {
			return err
		}
		sinks = append(sinks, audit.NewPostgresSink(pool))
		checks["db"] = pool.Ping
	}
	if cfg.Audit.Events {
		publisher, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			return err
		}
		sinks = append(sinks, audit.NewEventSink(publisher))
		a.onClose(publisher.Close)
		checks["mq"] = func(context.Context) error {
			if !publisher.IsConnected() {
				return errors.New("connection closed")
			}
			return nil
		}
	}
	sink := audit.NewMulti(log, sinks...)
	a.onClose(func() { _ = sink.Close() })

	var reviewer service.Reviewer
	if interactive {
		reviewer = console.NewReviewer(cmd.OutOrStdout())
	}
	dispatcher := service.NewDispatcher(
		mailbox.NewSMTPSender(cfg.SMTP, cfg.Operator.Email, log),
		guard,
		reviewer,
		service.DispatcherConfig{SenderEmail: cfg.Operator.Email, DraftAddress: cfg.Operator.DraftAddress},
		log,
	)

	triage := service.NewTriageService(
		mailbox.NewFixtureFetcher(cfg.Triage.FixturePath, log),
		mailbox.NewIMAPFetcher(cfg.IMAP, log),
		engine,
		dispatcher,
		sink,
		service.Config{OperatorEmail: cfg.Operator.Email, Delay: cfg.Triage.Delay},
		log,
	)

	g, gctx := errgroup.WithContext(ctx)
	serveCtx, stopServing := context.WithCancel(gctx)
	defer stopServing()

	if cfg.Metrics.Addr != "" {
		router := httpserver.NewRouter(checks)
		g.Go(func() error { return router.Serve(serveCtx, cfg.Metrics.Addr, log) })
	}

	var summary *service.BatchSummary
	g.Go(func() error {
		defer stopServing()
		var err error
		summary, err = triage.Run(gctx, opts)
		return err
	})

	err = g.Wait()
	if summary != nil {
		fmt.Fprintln(cmd.OutOrStdout(), console.RenderSummary(summary))
	}
	if errors.Is(err, context.Canceled) {
		log.Info("Batch cancelled")
		return nil
	}
	return err
}
