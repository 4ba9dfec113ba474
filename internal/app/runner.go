package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/samvad-hq/snow-change-connector/internal/collector"
	"github.com/samvad-hq/snow-change-connector/internal/config"
	"github.com/samvad-hq/snow-change-connector/internal/domain"
	"github.com/samvad-hq/snow-change-connector/internal/logger"
	"github.com/samvad-hq/snow-change-connector/internal/storage"
	"github.com/samvad-hq/snow-change-connector/pkg/httpclient"
	"github.com/samvad-hq/snow-change-connector/pkg/servicenow"
	"github.com/samvad-hq/snow-change-connector/pkg/sinks"
)

// ChangeConnector is the part of servicenow.Connector the runner drives.
type ChangeConnector interface {
	Get(ctx context.Context) (*servicenow.Response, error)
	Post(ctx context.Context, record any) (*servicenow.Response, error)
}

// Runner issues the read and the write against the change table, prints each
// outcome and forwards fetched records to the configured sinks.
type Runner struct {
	table     string
	newChange map[string]any
	conn      ChangeConnector
	processor *collector.Processor
	fanout    *sinks.Fanout
	store     storage.Store
	log       logger.Logger
	stdout    io.Writer
	stderr    io.Writer
}

// NewRunner builds a runner from config.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	conn := servicenow.NewConnector(servicenow.Options{
		URL:      cfg.ServiceNowURL,
		Username: cfg.ServiceNowUsername,
		Password: cfg.ServiceNowPassword,
		Table:    cfg.ServiceNowTable,
	}, httpclient.NewRestyClient(cfg.RequestTimeout), log)

	sinkCfgs, err := sinks.LoadConfigs(cfg.SinksFile)
	if err != nil {
		return nil, fmt.Errorf("load sinks: %w", err)
	}
	built, err := sinks.BuildAll(ctx, sinks.DefaultRegistry(), sinkCfgs, sinks.BuildOptions{
		Log:                log,
		AWSAccessKeyID:     cfg.AWSAccessKeyID,
		AWSSecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("build sinks: %w", err)
	}
	fanout := sinks.NewFanout(built)
	sinkSummaries := make([]map[string]string, 0, len(sinkCfgs))
	for _, s := range sinkCfgs {
		sinkSummaries = append(sinkSummaries, map[string]string{"id": s.ID, "type": s.Type})
	}
	log.InfoObj("sinks loaded", "sinks_meta", map[string]any{
		"count": fanout.Size(),
		"sinks": sinkSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		RecordTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"record_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	r := newRunner(cfg.ServiceNowTable, conn, collector.NewProcessor(fanout, store, log), log)
	r.newChange = map[string]any{"short_description": cfg.ChangeShortDescription}
	r.fanout = fanout
	r.store = store
	return r, nil
}

func newRunner(table string, conn ChangeConnector, processor *collector.Processor, log logger.Logger) *Runner {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Runner{
		table:     table,
		conn:      conn,
		processor: processor,
		log:       log,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}
}

// Run issues Get and Post without waiting on each other and returns once both
// have been reported. Operation failures are printed, not returned.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.conn == nil {
		return fmt.Errorf("runner is not initialized")
	}
	defer r.close()

	results := make(chan outcome, 2)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := r.conn.Get(gctx)
		results <- outcome{op: domain.OperationGet, resp: resp, err: err}
		return nil
	})
	g.Go(func() error {
		resp, err := r.conn.Post(gctx, r.newChange)
		results <- outcome{op: domain.OperationPost, resp: resp, err: err}
		return nil
	})
	go func() {
		_ = g.Wait()
		close(results)
	}()

	for res := range results {
		r.report(res)
		if res.err == nil {
			r.forward(ctx, res)
		}
	}
	return ctx.Err()
}

type outcome struct {
	op   domain.Operation
	resp *servicenow.Response
	err  error
}

// report prints the data on stdout or the error on stderr, never both.
func (r *Runner) report(res outcome) {
	if res.err != nil {
		fmt.Fprintf(r.stderr, "[%s] error: %v\n", res.op, res.err)
		if apiErr, ok := servicenow.DecodeError(res.err); ok {
			fmt.Fprintf(r.stderr, "[%s] servicenow: %s (%s)\n", res.op, apiErr.Error.Message, apiErr.Error.Detail)
		}
		return
	}
	fmt.Fprintf(r.stdout, "[%s] %d %s\n%s\n", res.op, res.resp.StatusCode, res.resp.Status, res.resp.Body)
}

func (r *Runner) forward(ctx context.Context, res outcome) {
	if r.processor == nil {
		return
	}
	if _, err := r.processor.Process(ctx, r.table, res.op, res.resp); err != nil {
		r.log.ErrorObj("forwarding records failed", "runner_error", map[string]any{
			"operation": res.op,
			"error":     err.Error(),
		})
	}
}

func (r *Runner) close() {
	var errs []error
	if r.fanout != nil {
		errs = append(errs, r.fanout.Close())
	}
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	if err := errors.Join(errs...); err != nil {
		r.log.ErrorObj("runner close failed", "error", err)
	}
}
