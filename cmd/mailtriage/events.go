package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	contracts "mailtriage/contracts/mq"
	"mailtriage/internal/audit"
	"mailtriage/internal/service"
	"mailtriage/pkg/mq"
	"mailtriage/pkg/redis"
	"mailtriage/pkg/util"
)

const reviewQueue = "mailtriage.review.q"

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow email.triaged events and list replies awaiting review",
	Long: `Consume the email.triaged events published by "run" when audit.events is
enabled. Replies flagged for human review are printed as they arrive. Events
that cannot be handled are retried and finally moved to the dead letter queue.`,
	RunE: followEvents,
}

func followEvents(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()
	cfg, log := a.cfg, a.log

	consumer, err := mq.NewConsumer(cfg.MQ.URL, reviewQueue, audit.RoutingKeyEmailTriaged, log)
	if err != nil {
		return err
	}
	defer consumer.Close()

	rdb, err := redis.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, failed events go straight to the DLQ", zap.Error(err))
	} else if rdb != nil {
		defer rdb.Close()
		consumer.SetRetryCounter(util.NewRetryCounter(rdb, cfg.Triage.DedupTTL), mq.DefaultMaxRetries)
	}

	out := cmd.OutOrStdout()
	handler := service.NewTriagedHandler(log, func(p contracts.EmailTriagedPayload) {
		fmt.Fprintf(out, "[review] #%d %s from %s (%s): %s\n",
			p.SRNo, p.Subject, p.SenderEmail, p.Classification, p.ResponseStatus)
	})
	consumer.SetHandler(handler.Handle)

	log.Info("Following email.triaged events", zap.String("queue", reviewQueue))
	return consumer.StartConsuming(ctx)
}
