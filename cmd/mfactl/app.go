package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/twofa/pkg/config"
	"github.com/dmitrymomot/twofa/pkg/logger"
	"github.com/dmitrymomot/twofa/pkg/mfa"
	"github.com/dmitrymomot/twofa/pkg/mfa/mongostore"
	"github.com/dmitrymomot/twofa/pkg/mfa/pgstore"
	"github.com/dmitrymomot/twofa/pkg/mfa/redisstore"
	"github.com/dmitrymomot/twofa/pkg/mongo"
	"github.com/dmitrymomot/twofa/pkg/pg"
	"github.com/dmitrymomot/twofa/pkg/redis"
)

// errUnsuccessful marks a command whose result was printed but reported failure.
var errUnsuccessful = errors.New("operation was not successful")

var storeKinds = []string{"memory", "redis", "postgres", "mongo"}

// storeOpener connects a backend and returns a cleanup func.
type storeOpener func(ctx context.Context, a *app) (mfa.Store, func(), error)

type app struct {
	out    io.Writer
	errOut io.Writer

	// flags
	storeKind   string
	migrate     bool
	envFiles    []string
	metricsFile string

	cfg      mfa.Config
	log      *slog.Logger
	registry *prometheus.Registry
	metrics  *mfa.Metrics
	svc      *mfa.Service
	closers  []func()
	probe    func(context.Context) error

	openers map[string]storeOpener
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		out:       out,
		errOut:    errOut,
		storeKind: "postgres",
		openers: map[string]storeOpener{
			"memory":   openMemory,
			"redis":    openRedis,
			"postgres": openPostgres,
			"mongo":    openMongo,
		},
	}
}

// loadConfig reads the MFA and logger configuration. It does not touch any backend.
func (a *app) loadConfig() error {
	if a.log != nil {
		return nil
	}

	var logCfg logger.Config
	if err := config.Load(&logCfg, a.configOptions()...); err != nil {
		return err
	}
	a.log = logger.FromConfig(logCfg, logger.WithOutput(a.errOut)).
		With(logger.Component("mfactl"))

	cfg, err := mfa.LoadConfig(a.configOptions()...)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) configOptions() []config.Option {
	if len(a.envFiles) == 0 {
		return nil
	}
	return []config.Option{config.WithEnvFiles(a.envFiles...)}
}

// service opens the selected store once and builds the MFA service on top of it.
func (a *app) service(ctx context.Context) (*mfa.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	if err := a.loadConfig(); err != nil {
		return nil, err
	}

	open, ok := a.openers[a.storeKind]
	if !ok {
		return nil, fmt.Errorf("unknown store %q, expected one of %v", a.storeKind, storeKinds)
	}

	store, cleanup, err := open(ctx, a)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, cleanup)

	cipher, err := a.cfg.Cipher()
	if err != nil {
		return nil, err
	}
	if cipher != nil {
		store = mfa.NewEncryptedStore(store, cipher)
	}

	a.registry = prometheus.NewRegistry()
	a.metrics = mfa.NewMetrics("twofa")
	if err := a.metrics.Register(a.registry); err != nil {
		return nil, err
	}

	a.svc = mfa.NewService(store, a.cfg,
		mfa.WithLogger(a.log.With(logger.Store(a.storeKind))),
		mfa.WithMetrics(a.metrics),
		mfa.WithQRCodeSize(0),
	)
	return a.svc, nil
}

// close flushes metrics and releases backend connections in reverse order.
func (a *app) close() {
	if a.metricsFile != "" && a.registry != nil {
		if err := prometheus.WriteToTextfile(a.metricsFile, a.registry); err != nil && a.log != nil {
			a.log.Error("failed to write metrics file", logger.Error(err))
		}
	}
	for _, c := range slices.Backward(a.closers) {
		c()
	}
	a.closers = nil
}

// print writes v as indented JSON.
func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult prints the result and turns an unsuccessful one into errUnsuccessful.
func (a *app) printResult(v any, res mfa.Result) error {
	if err := a.print(v); err != nil {
		return err
	}
	if !res.Success {
		return errUnsuccessful
	}
	return nil
}

func openMemory(context.Context, *app) (mfa.Store, func(), error) {
	return mfa.NewMemoryStore(), func() {}, nil
}

func openRedis(ctx context.Context, a *app) (mfa.Store, func(), error) {
	var cfg redis.Config
	if err := config.Load(&cfg, a.configOptions()...); err != nil {
		return nil, nil, err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	a.probe = redis.Healthcheck(client)
	return redisstore.New(client, cfg.KeyPrefix), func() { _ = client.Close() }, nil
}

func openPostgres(ctx context.Context, a *app) (mfa.Store, func(), error) {
	var cfg pg.Config
	if err := config.Load(&cfg, a.configOptions()...); err != nil {
		return nil, nil, err
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if a.migrate {
		if err := pgstore.Migrate(ctx, pool, cfg, a.log); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	a.probe = pg.Healthcheck(pool)
	return pgstore.New(pool), pool.Close, nil
}

func openMongo(ctx context.Context, a *app) (mfa.Store, func(), error) {
	var cfg mongo.Config
	if err := config.Load(&cfg, a.configOptions()...); err != nil {
		return nil, nil, err
	}
	db, err := mongo.ConnectDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	disconnect := func() { _ = db.Client().Disconnect(context.Background()) }

	store := mongostore.New(db, "")
	if err := store.EnsureIndexes(ctx); err != nil {
		disconnect()
		return nil, nil, err
	}
	a.probe = mongo.Healthcheck(db.Client())
	return store, disconnect, nil
}
