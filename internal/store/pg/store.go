package pg

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/idbridge/internal/federation"
	"github.com/dropDatabas3/idbridge/internal/observability/logger"
	"github.com/dropDatabas3/idbridge/internal/store/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implementa federation.AccountResolver y federation.UserProvisioner
// sobre Postgres. La unicidad del email la garantiza el constraint UNIQUE de
// la tabla account: dos logins concurrentes para la misma identidad terminan
// con un core.ErrConflict para el perdedor, que el resolver trata como éxito.
type Store struct{ pool *pgxpool.Pool }

// Tuning agrupa parámetros opcionales del pool.
type Tuning struct {
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
}

// New crea un Store conectado al DSN dado. El ping inicial es best-effort:
// la app puede arrancar con la DB temporalmente caída.
func New(ctx context.Context, dsn string, t Tuning) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if t.MaxConns > 0 {
		pcfg.MaxConns = int32(t.MaxConns)
	}
	if t.MinConns > 0 {
		pcfg.MinConns = int32(t.MinConns)
	}
	if t.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = t.ConnMaxLifetime
		pcfg.MaxConnIdleTime = t.ConnMaxLifetime
	}
	if pcfg.MaxConns == 0 {
		pcfg.MaxConns = 8
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		logger.L().Warn("pg pool startup ping failed", logger.Err(err))
	} else {
		logger.L().Info("pg pool ready", logger.Int("max_conns", int(pcfg.MaxConns)))
	}

	return &Store{pool: pool}, nil
}

// Pool expone el pool interno (metrics/migraciones).
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

// Ping verifica la conexión.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close cierra el pool subyacente (idempotente).
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Resolve busca la cuenta local por email. Siempre devuelve un registro no
// nulo: para una key desconocida el registro trae solo el email consultado,
// sin el marker "userid". El PrincipalValidator es quien decide existencia;
// aquí no se debe inferir nada de la no-nulidad.
func (s *Store) Resolve(ctx context.Context, key string) (*federation.Account, error) {
	var u core.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, first_name, last_name, created_at FROM account WHERE email=$1 LIMIT 1`,
		key,
	).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &federation.Account{
				Attributes: map[string]string{"email": key},
			}, nil
		}
		return nil, err
	}

	return &federation.Account{
		UserID: u.ID,
		Attributes: map[string]string{
			federation.AccountMarkerKey: u.ID,
			"email":                     u.Email,
			"firstname":                 u.FirstName,
			"lastname":                  u.LastName,
			"created":                   u.CreatedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}

// Create inserta la cuenta. ON CONFLICT DO NOTHING convierte la carrera de
// doble provisioning en core.ErrConflict en lugar de un error fatal.
func (s *Store) Create(ctx context.Context, id federation.NormalizedIdentity) error {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO account (email, first_name, last_name)
		 VALUES ($1,$2,$3)
		 ON CONFLICT (email) DO NOTHING`,
		id.Email, id.FirstName, id.LastName,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrConflict
	}
	return nil
}
