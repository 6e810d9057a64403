package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/samvad-hq/replies-relay/internal/config"
	"github.com/samvad-hq/replies-relay/internal/logger"
	"github.com/samvad-hq/replies-relay/internal/metrics"
	"github.com/samvad-hq/replies-relay/internal/relay"
	"github.com/samvad-hq/replies-relay/internal/storage"
	"github.com/samvad-hq/replies-relay/pkg/publishers"
	"github.com/samvad-hq/replies-relay/pkg/replies"
)

const metricsShutdownTimeout = 5 * time.Second

// Relay represents the replies relay runtime. It manages the poll loop,
// coordinating between the replies client, the relay service, and
// publishers. It also owns the ledger and the optional metrics server.
type Relay struct {
	cfg          *config.Config
	fanout       *publishers.Fanout
	service      *relay.Service
	metrics      *metrics.Metrics
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewRelay builds a relay runtime from config files.
func NewRelay(ctx context.Context, cfg *config.Config, log logger.Logger) (*Relay, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := replies.NewClient(cfg.RepliesConfig(), replies.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("init replies client: %w", err)
	}
	log.InfoObj("replies client configured", "replies_client", map[string]any{
		"base_uri":        client.BaseURI(),
		"timeout_seconds": int(cfg.RepliesTimeout.Seconds()),
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubRegistry := publishers.DefaultRegistry()
	pubClients, err := publishers.BuildAll(ctx, pubRegistry, enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	storeOpts := storage.Options{
		ReplyTTL:        cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	}
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storeOpts)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"reply_ttl_seconds":        int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	m := metrics.New()
	service := relay.NewService(client, fanout, store, m, cfg.ConfirmBatchSize, log)

	return &Relay{
		cfg:          cfg,
		fanout:       fanout,
		service:      service,
		metrics:      m,
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run starts the poll loop until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	if r == nil || r.service == nil {
		return fmt.Errorf("relay is not initialized")
	}
	defer r.closeResources()

	if r.cfg.MetricsAddr != "" {
		_, stopMetrics, err := r.serveMetrics(r.cfg.MetricsAddr)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	r.log.InfoObj("relay loop starting", "relay_state", map[string]any{
		"publishers_count":   r.fanout.Size(),
		"poll_interval":      r.pollInterval.String(),
		"confirm_batch_size": r.cfg.ConfirmBatchSize,
	})

	if err := r.runOnce(ctx); err != nil {
		r.log.ErrorObj("initial poll failed", "error", err.Error())
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("relay loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := r.runOnce(ctx); err != nil {
				r.log.ErrorObj("scheduled poll failed", "error", err.Error())
			}
		}
	}
}

// runOnce performs a single relay pass.
func (r *Relay) runOnce(ctx context.Context) error {
	start := time.Now()
	res, err := r.service.Run(ctx)
	if err != nil {
		return err
	}
	r.log.DebugObj("poll completed", "poll_meta", map[string]any{
		"received":   res.Received,
		"confirmed":  res.Confirmed,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// serveMetrics exposes /metrics and /healthz on addr. It returns the bound
// address and a stop func.
func (r *Relay) serveMetrics(addr string) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen metrics on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.log.ErrorObj("metrics server stopped", "error", err.Error())
		}
	}()
	r.log.InfoObj("metrics server listening", "metrics_addr", ln.Addr().String())

	return ln.Addr().String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			r.log.WarnObj("metrics server shutdown failed", "error", err.Error())
		}
	}, nil
}

// closeResources closes the publishers and the ledger, logging any errors encountered.
func (r *Relay) closeResources() {
	if r == nil {
		return
	}
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publishers close failed", "error", err.Error())
	}
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
