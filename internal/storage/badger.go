package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/adminctl/internal/telemetry/logger"
)

// BadgerEngine implements KVEngine using Badger v3.
type BadgerEngine struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger logger.Logger
	closed atomic.Bool

	lastGCTime atomic.Int64 // Unix milliseconds

	// Prometheus metrics
	metricsTotalSize  prometheus.Gauge
	metricsLastGCTime prometheus.Gauge

	// Shutdown
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBadgerEngine opens (or creates) a badger database under cfg.Dir.
func NewBadgerEngine(cfg KVConfig, log logger.Logger) (*BadgerEngine, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if log == nil {
		log = logger.Default()
	}
	log = log.With("component", "badger")

	badgerCfg := cfg.Badger
	opts := badger.DefaultOptions(cfg.Dir)
	opts.Logger = &badgerLogger{logger: log}
	opts.BlockCacheSize = badgerCfg.CacheSize
	opts.ValueLogFileSize = badgerCfg.ValueLogFileSize
	opts.SyncWrites = badgerCfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	engine := &BadgerEngine{
		db:     db,
		cfg:    badgerCfg,
		logger: log,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go engine.gcLoop()

	log.Debug("badger engine started",
		"dir", cfg.Dir,
		"sync_writes", badgerCfg.SyncWrites,
		"gc_interval", badgerCfg.GCInterval)

	return engine, nil
}

// Get retrieves a value by key.
func (e *BadgerEngine) Get(ctx context.Context, key []byte) ([]byte, error) {
	values, err := e.GetMany(ctx, key)
	if err != nil {
		return nil, err
	}
	if values[0] == nil {
		return nil, ErrKeyNotFound
	}
	return values[0], nil
}

// GetMany reads every key inside one read-only transaction.
func (e *BadgerEngine) GetMany(ctx context.Context, keys ...[]byte) ([][]byte, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	values := make([][]byte, len(keys))
	err := e.db.View(func(txn *badger.Txn) error {
		for i, key := range keys {
			item, err := txn.Get(key)
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			values[i], err = item.ValueCopy(nil)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger: view: %w", err)
	}
	return values, nil
}

// Apply commits the batch in one read-write transaction.
func (e *BadgerEngine) Apply(ctx context.Context, b *Batch) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if b.Len() == 0 {
		return nil
	}

	err := e.db.Update(func(txn *badger.Txn) error {
		for _, op := range b.Ops {
			var err error
			switch op.Kind {
			case OpSet:
				err = txn.Set(op.Key, op.Value)
			case OpDelete:
				err = txn.Delete(op.Key)
			default:
				err = fmt.Errorf("unknown op kind %d", op.Kind)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("badger: update: %w", err)
	}
	return nil
}

// GC runs value log garbage collection until nothing is left to rewrite.
func (e *BadgerEngine) GC(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return fmt.Errorf("gc: %w", err)
		}
	}

	now := time.Now()
	e.lastGCTime.Store(now.UnixMilli())
	if e.metricsLastGCTime != nil {
		e.metricsLastGCTime.Set(float64(now.Unix()))
	}
	return nil
}

// Close stops the GC loop and closes the database. Close is idempotent.
func (e *BadgerEngine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(e.stopCh)
	<-e.doneCh

	if err := e.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	e.logger.Debug("badger engine closed")
	return nil
}

// RegisterMetrics registers size and GC gauges with Prometheus.
func (e *BadgerEngine) RegisterMetrics(registry prometheus.Registerer) *BadgerEngine {
	e.metricsTotalSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "adminctl",
		Subsystem: "badger",
		Name:      "total_size_bytes",
		Help:      "Badger total storage size in bytes (LSM + value log)",
	})
	e.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "adminctl",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	})
	registry.MustRegister(e.metricsTotalSize, e.metricsLastGCTime)
	e.refreshSize()
	return e
}

func (e *BadgerEngine) refreshSize() {
	if e.metricsTotalSize == nil {
		return
	}
	lsm, vlog := e.db.Size()
	e.metricsTotalSize.Set(float64(lsm + vlog))
}

// gcLoop runs periodic garbage collection.
func (e *BadgerEngine) gcLoop() {
	defer close(e.doneCh)

	interval, err := time.ParseDuration(e.cfg.GCInterval)
	if err != nil || interval <= 0 {
		e.logger.Warn("invalid gc_interval, using default 30m", "value", e.cfg.GCInterval)
		interval = 30 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if err := e.GC(ctx); err != nil {
				e.logger.Warn("auto gc failed", "error", err)
			}
			cancel()
			e.refreshSize()

		case <-e.stopCh:
			return
		}
	}
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
// Badger is chatty at info level, so info is demoted to debug.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
