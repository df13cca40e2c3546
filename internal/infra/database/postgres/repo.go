package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ---- Postgres движок domain.Store (pgxpool) + golang-migrate ----

type PGRepo struct {
	log    zerolog.Logger
	pool   *pgxpool.Pool
	schema string
}

func NewPGRepo(ctx context.Context, log zerolog.Logger, dsn, schema string) (*PGRepo, error) {
	if schema == "" {
		schema = "public"
	}
	dsn, err := withSearchPath(dsn, schema)
	if err != nil {
		return nil, err
	}

	// Запускаем golang-migrate используя pgx/stdlib
	if err := runMigrations(dsn, schema, log); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	// Создаем pgxpool
	log.Info().Msg("initializing pgxpool...")
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	log.Info().Msg("pgxpool initialized")

	return &PGRepo{pool: pool, schema: schema, log: log}, nil
}

func (r *PGRepo) Close() {
	r.log.Info().Msg("closing pgxpool...")
	r.pool.Close()
	r.log.Info().Msg("pgxpool closed")
}

// withSearchPath выставляет search_path, чтобы миграции и запросы шли в нужную схему
func withSearchPath(dsn, schema string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ---- Миграции через golang-migrate ----

//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS

func runMigrations(dsn, schema string, log zerolog.Logger) error {
	// Открываем *sql.DB с помощью pgx stdlib. Важно: это отдельный экземпляр от pgxpool.
	sqldb, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("sql.Open pgx: %w", err)
	}
	defer sqldb.Close()

	if _, err := sqldb.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %q", schema)); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	driver, err := postgres.WithInstance(sqldb, &postgres.Config{SchemaName: schema})
	if err != nil {
		return fmt.Errorf("postgres driver: %w", err)
	}

	src, err := iofs.New(EmbeddedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate.New: %w", err)
	}
	defer m.Close()

	log.Info().Msg("applying migrations...")
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("no new migrations to apply")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Info().Msg("migrations applied successfully")
	return nil
}

func (r *PGRepo) qb() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func (r *PGRepo) table() string { return fmt.Sprintf("%q.records", r.schema) }

func (r *PGRepo) logSQL(op, sqlStr string, args []any) {
	r.log.Debug().Str("op", op).Str("sql", sqlStr).Int("args", len(args)).Msg("query")
}

func (r *PGRepo) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		r.log.Error().Err(err).Msg("ping failed")
		return err
	}
	return nil
}
