// Command regdash-report publishes a metrics snapshot of the registrations
// dataset to an AMQP exchange, or prints it as JSON when AMQP_URL is unset.
// With -interval it keeps publishing until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"regdash/internal/amqp"
	"regdash/internal/cli"
	"regdash/internal/config"
	"regdash/internal/core"
	"regdash/internal/log"
	"regdash/internal/services"
	"regdash/internal/worker"
)

// listFlag collects a repeatable, comma separated flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

type reportFlags struct {
	start         string
	end           string
	categories    listFlag
	manufacturers listFlag
	timeout       time.Duration
	interval      time.Duration
}

func parseFlags(args []string) (reportFlags, error) {
	var f reportFlags
	fs := flag.NewFlagSet("regdash-report", flag.ContinueOnError)
	fs.StringVar(&f.start, "start", "", "first day of the report (YYYY-MM-DD), defaults to the first day of the dataset")
	fs.StringVar(&f.end, "end", "", "last day of the report (YYYY-MM-DD), defaults to the last day of the dataset")
	fs.Var(&f.categories, "category", "vehicle category to include (repeatable); all when omitted")
	fs.Var(&f.manufacturers, "manufacturer", "manufacturer to include (repeatable); all when omitted")
	fs.DurationVar(&f.timeout, "timeout", 30*time.Second, "time limit for loading the dataset and for each publish")
	fs.DurationVar(&f.interval, "interval", 0, "publish repeatedly at this interval instead of once")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

// criteria resolves the flags against the dataset bounds.
func (f reportFlags) criteria(opts services.Options) (core.Criteria, error) {
	c := core.Criteria{
		Start:         opts.Start,
		End:           opts.End,
		Categories:    f.categories,
		Manufacturers: f.manufacturers,
	}
	if f.start != "" {
		t, err := core.ParseDate(f.start)
		if err != nil {
			return c, fmt.Errorf("-start: %w", err)
		}
		c.Start = t
	}
	if f.end != "" {
		t, err := core.ParseDate(f.end)
		if err != nil {
			return c, fmt.Errorf("-end: %w", err)
		}
		c.End = t
	}
	return c, nil
}

func main() {
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	cli.LoadEnvFile()
	boot, _ := cli.SetupLogger(nil, log.ComponentReport)
	cfg := cli.LoadAndValidateConfig(boot)
	logger, err := cli.SetupLogger(cfg, log.ComponentReport)
	if err != nil {
		boot.Error("Invalid logging configuration", log.FieldError, err)
		os.Exit(1)
	}

	open := func(ctx context.Context) (*services.DashboardService, func(), error) {
		_, store, err := cli.LoadDataset(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		dash := services.NewDashboardService(store, services.DashboardConfig{
			CacheSize: 1,
			CacheTTL:  time.Minute,
		}, logger.WithComponent(log.ComponentDashboard).Slog())
		return dash, func() { _ = store.Close() }, nil
	}

	ctx := context.Background()
	if flags.interval > 0 {
		ctx, _ = cli.GracefulShutdown(logger, 5*time.Second, nil)
	}

	if err := run(ctx, flags, cfg, os.Stdout, logger, open); err != nil {
		logger.Error("Report failed", log.FieldError, err)
		os.Exit(1)
	}
}

type openFunc func(ctx context.Context) (*services.DashboardService, func(), error)

// jsonPublisher writes each snapshot as one JSON line.
type jsonPublisher struct {
	out io.Writer
}

func (p jsonPublisher) PublishSnapshot(_ context.Context, msg *amqp.MetricsSnapshotMessage) error {
	data, err := msg.ToJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.out, string(data))
	return err
}

// run builds the snapshot and publishes it, or writes it to out when no
// broker is configured. A positive flags.interval publishes until ctx ends.
func run(ctx context.Context, flags reportFlags, cfg *config.Config, out io.Writer, logger *log.Logger, open openFunc) error {
	loadCtx, cancel := context.WithTimeout(ctx, flags.timeout)
	dash, closeFn, err := open(loadCtx)
	cancel()
	if err != nil {
		return err
	}
	defer closeFn()

	var publisher services.SnapshotPublisher = jsonPublisher{out: out}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey, logger.WithComponent(log.ComponentAMQP).Slog())
		if err != nil {
			return fmt.Errorf("connect to broker: %w", err)
		}
		defer client.Close()
		publisher = client
	}

	criteria := func(ctx context.Context) (core.Criteria, error) {
		opts, err := dash.Options(ctx)
		if err != nil {
			return core.Criteria{}, err
		}
		return flags.criteria(opts)
	}
	w := worker.NewSnapshotWorker(dash, publisher, criteria, flags.interval, flags.timeout,
		logger.WithComponent(log.ComponentWorker).Slog())

	if flags.interval > 0 {
		return w.Run(ctx)
	}

	msg, err := w.PublishOnce(ctx)
	if err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	if cfg.AMQPURL != "" {
		logger.Info("Snapshot published",
			"exchange", cfg.AMQPExchange,
			"routing_key", cfg.AMQPRoutingKey,
			log.FieldStart, msg.Start,
			log.FieldEnd, msg.End,
			log.FieldRows, msg.Rows)
	}
	return nil
}
