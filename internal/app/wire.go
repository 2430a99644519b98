package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"cipherchat/internal/audit"
	"cipherchat/internal/crypto"
	"cipherchat/internal/domain"
	"cipherchat/internal/metrics"
	"cipherchat/internal/security"
	"cipherchat/internal/services/channel"
	"cipherchat/internal/services/identity"
	"cipherchat/internal/store"
	"cipherchat/internal/util/log"
)

const connectTimeout = 10 * time.Second

// Wire bundles the stores, sinks and services used by the CLI.
type Wire struct {
	Config    Config
	Log       *zap.Logger
	Store     domain.KeyStore
	Engine    *crypto.Engine
	Validator *security.Validator
	Events    domain.EventSink
	Metrics   *metrics.Metrics
	Identity  *identity.Service
	Channel   *channel.Service

	registry *prometheus.Registry
	closers  []func(context.Context) error
}

// NewWire constructs the dependency graph from cfg. The caller must Close
// the returned Wire.
func NewWire(ctx context.Context, cfg Config) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := log.New(cfg.Logging)
	if err != nil {
		return nil, &domain.ConfigError{Setting: "logging", Reason: err.Error()}
	}
	w := &Wire{Config: cfg, Log: logger, registry: prometheus.NewRegistry()}
	w.closers = append(w.closers, func(context.Context) error {
		// Syncing stderr fails on some terminals; nothing to report.
		_ = logger.Sync()
		return nil
	})

	if err := w.openStore(ctx); err != nil {
		_ = w.Close(ctx)
		return nil, err
	}
	if err := w.openEvents(); err != nil {
		_ = w.Close(ctx)
		return nil, err
	}

	w.Engine, err = crypto.New(cfg.CryptoEngineConfig(), logger)
	if err != nil {
		_ = w.Close(ctx)
		return nil, err
	}
	w.Validator = security.NewValidator(cfg.Security.MaxMessageBytes, w.Events, logger)
	w.Identity = identity.New(w.Store, w.Engine, cfg.Crypto.RSAKeyBits, w.Events, logger)
	w.Channel = channel.New(w.Store, w.Engine, w.Validator, w.Events, cfg.StalenessWindow(), logger)
	return w, nil
}

func (w *Wire) openStore(ctx context.Context) error {
	switch w.Config.Storage.Backend {
	case BackendMongo:
		cctx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		client, err := mongo.Connect(cctx, options.Client().ApplyURI(w.Config.Storage.MongoURI))
		if err != nil {
			return &domain.ConfigError{Setting: "storage.mongo_uri", Reason: err.Error()}
		}
		w.closers = append(w.closers, client.Disconnect)
		if err := client.Ping(cctx, nil); err != nil {
			return fmt.Errorf("mongo ping: %w", err)
		}
		ks := store.NewMongoKeyStore(client.Database(w.Config.Storage.MongoDatabase), w.Config.Storage.Passphrase)
		if err := ks.EnsureIndexes(cctx); err != nil {
			return err
		}
		w.Store = ks
	default:
		ks, err := store.NewFileKeyStore(w.Config.Storage.KeysDir, w.Config.Storage.Passphrase)
		if err != nil {
			return err
		}
		w.Store = ks
	}
	w.Log.Debug("key store ready", zap.String("backend", w.Config.Storage.Backend))
	return nil
}

// openEvents builds the sink chain: every event reaches the log, metrics and
// the optional file and Redis sinks, behind the authentication-failure
// monitor.
func (w *Wire) openEvents() error {
	w.Metrics = metrics.New(w.registry)
	sinks := audit.Multi{audit.NewLogSink(w.Log), w.Metrics}

	if path := w.Config.Events.File; path != "" {
		fs, err := audit.OpenFileSink(path)
		if err != nil {
			return &domain.ConfigError{Setting: "events.file", Reason: err.Error()}
		}
		w.closers = append(w.closers, func(context.Context) error { return fs.Close() })
		sinks = append(sinks, fs)
	}
	if addr := w.Config.Events.RedisAddr; addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		w.closers = append(w.closers, func(context.Context) error { return rdb.Close() })
		sinks = append(sinks, audit.NewRedisSink(rdb, w.Config.Events.RedisKey))
	}

	w.Events = security.NewMonitor(sinks, w.Config.Security.AuthFailureRate, w.Config.Security.AuthFailureBurst, w.Log)
	return nil
}

// Close writes the metrics textfile, if configured, and releases every
// connection in reverse order of opening.
func (w *Wire) Close(ctx context.Context) error {
	var errs []error
	if path := w.Config.Metrics.Textfile; path != "" && w.Metrics != nil {
		if err := metrics.WriteTextfile(path, w.registry); err != nil {
			errs = append(errs, fmt.Errorf("metrics textfile: %w", err))
		}
	}
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	w.closers = nil
	return errors.Join(errs...)
}
