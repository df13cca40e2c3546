package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/EgorLis/book-module/internal/annotation"
	"github.com/EgorLis/book-module/internal/auth/blacklist"
	"github.com/EgorLis/book-module/internal/auth/password"
	"github.com/EgorLis/book-module/internal/auth/token"
	"github.com/EgorLis/book-module/internal/blobs"
	"github.com/EgorLis/book-module/internal/catalog"
	"github.com/EgorLis/book-module/internal/config"
	"github.com/EgorLis/book-module/internal/domain"
	memcache "github.com/EgorLis/book-module/internal/infra/cache/memory"
	redisx "github.com/EgorLis/book-module/internal/infra/cache/redis"
	memstore "github.com/EgorLis/book-module/internal/infra/database/memory"
	"github.com/EgorLis/book-module/internal/infra/database/postgres"
	s3storage "github.com/EgorLis/book-module/internal/infra/storage/s3"
	"github.com/EgorLis/book-module/internal/library"
	"github.com/EgorLis/book-module/internal/overlay"
	"github.com/EgorLis/book-module/internal/persist"
	"github.com/EgorLis/book-module/internal/storage"
	"github.com/EgorLis/book-module/internal/transport/web"
)

type App struct {
	config   *config.Config
	server   *web.Server
	log      zerolog.Logger
	store    domain.Store
	cache    domain.Cache
	queue    *persist.Queue
	library  *library.Service
	engines  *annotation.Registry
	degraded *atomic.Bool
}

// как часто выбрасываем движки истёкших сессий
const sweepEvery = time.Minute

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Str("app", "bookmodule").Logger()
}

func component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

func Build(ctx context.Context) (*App, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed load config: %w", err)
	}
	base := newLogger(cfg.LogLevel)
	base.Info().Msgf("\n  configuration: %s-------------------", cfg)

	degraded := &atomic.Bool{}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed load catalog: %w", err)
	}
	base.Info().Str("path", cfg.CatalogPath).Msg("catalog is loaded")

	// Redis нужен и как движок записей, и для отозванных токенов
	var rc *redisx.Cache
	if cfg.StoreEngine == config.StoreRedis || cfg.RedisAddr != "" {
		base.Info().Msg("init Redis")
		rc = redisx.New(redisx.Config{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPassword,
			Prefix:   cfg.RedisPrefix,
		}, component(base, "redis"))
		if err := rc.Ping(ctx); err != nil {
			base.Warn().Err(err).Str("kind", domain.ErrStorageUnavailable.Error()).Msg("redis unavailable")
			rc.Close()
			rc = nil
		} else {
			base.Info().Msg("Redis is initialized")
		}
	}

	store, err := openStore(ctx, cfg, rc, base)
	if err != nil {
		// работаем в памяти: предупреждаем один раз, UI показывает деградацию
		base.Warn().Err(err).Str("kind", domain.ErrStorageUnavailable.Error()).
			Str("engine", cfg.StoreEngine).Msg("store unavailable, falling back to in-memory session")
		degraded.Store(true)
		store = memstore.New(component(base, "memstore"))
	}

	var (
		objects domain.BlobStorage
		probes  = web.Probes{Store: store}
	)
	if cfg.BlobEngine == config.BlobS3 {
		base.Info().Msg("init S3 storage")
		s3, err := s3storage.New(ctx, s3storage.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			PathStyle: cfg.S3PathStyle,
		}, component(base, "s3"))
		if err != nil {
			base.Warn().Err(err).Str("kind", domain.ErrStorageUnavailable.Error()).Msg("s3 unavailable, files stay inline")
		} else {
			objects = s3
			probes.Storage = s3
			store = storage.WithBlobOffload(store, s3, component(base, "offload"))
			base.Info().Msg("S3 storage is initialized")
		}
	}

	var cache domain.Cache = memcache.New()
	if rc != nil {
		cache = rc
		probes.Cache = rc
	}

	queue := persist.New(component(base, "persist"), cfg.PersistQueueSize)
	repo := storage.NewRepo(store)

	base.Info().Msg("init Library")
	ov := overlay.New(repo, queue, component(base, "overlay"))
	bm := blobs.New(cfg.BlobBaseURL, objects, component(base, "blobs"))
	lib := library.New(cat, ov, bm, repo, queue, component(base, "library"))
	lib.Load(ctx)
	engines := annotation.NewRegistry(cat, repo, queue, component(base, "annotation"))
	base.Info().Msg("Library is initialized")

	// Auth primitives
	hasher := password.NewDefault()
	gate := password.NewGate(hasher, cfg.TeacherPasscodeHash, cfg.AdminPasscodeHash)
	tm := token.New(cfg.AuthJWTSecret, cfg.AuthIssuer, cfg.AuthTokenTTL)
	bl := blacklist.NewStore(cache, cfg.RedisPrefix)

	base.Info().Msg("init Server")
	server := web.New(component(base, "server"), cfg,
		web.Services{Catalog: cat, Library: lib, Blobs: bm, Engines: engines},
		web.AuthDeps{Gate: gate, Tokens: tm, Blacklist: bl},
		probes,
		degraded.Load,
	)
	base.Info().Msg("Server is initialized")

	base.Info().Msg("build ended")
	return &App{
		config:   cfg,
		server:   server,
		log:      base,
		store:    store,
		cache:    cache,
		queue:    queue,
		library:  lib,
		engines:  engines,
		degraded: degraded,
	}, nil
}

// openStore открывает движок записей по STORE_ENGINE
func openStore(ctx context.Context, cfg *config.Config, rc *redisx.Cache, base zerolog.Logger) (domain.Store, error) {
	switch cfg.StoreEngine {
	case config.StorePostgres:
		base.Info().Msg("init PostgreSQL")
		pg, err := postgres.NewPGRepo(ctx, component(base, "postgres"), cfg.GetDSN(), cfg.DBScheme)
		if err != nil {
			return nil, fmt.Errorf("%w: postgres: %w", domain.ErrStorageUnavailable, err)
		}
		base.Info().Msg("PostgreSQL is initialized")
		return pg, nil
	case config.StoreRedis:
		if rc == nil {
			return nil, fmt.Errorf("%w: redis", domain.ErrStorageUnavailable)
		}
		return rc.Store(), nil
	case config.StoreMemory:
		return memstore.New(component(base, "memstore")), nil
	}
	return nil, errors.New("unknown store engine " + cfg.StoreEngine)
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info().Bool("degraded", a.degraded.Load()).Msg("start application...")
	go a.server.Run()
	go a.engines.Janitor(ctx, sweepEvery)
	<-ctx.Done()
	a.log.Info().Msg("stop application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.server.Close(stopCtx)
	a.library.Close()
	// дописываем всё, что успели поставить в очередь, и только потом закрываем хранилище
	a.queue.Close()
	a.store.Close()
	a.cache.Close()

	return nil
}
