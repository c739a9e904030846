package pg

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/dropDatabas3/idbridge/internal/observability/logger"
	"github.com/dropDatabas3/idbridge/migrations"
)

// Migrate aplica las migraciones embebidas en orden lexicográfico. Cada
// archivo es idempotente (IF NOT EXISTS), así que correr esto en cada
// arranque es seguro.
func (s *Store) Migrate(ctx context.Context) error {
	entries, err := fs.ReadDir(migrations.PostgresFS, migrations.PostgresDir)
	if err != nil {
		return fmt.Errorf("leyendo migraciones embebidas: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && path.Ext(e.Name()) == ".sql" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	log := logger.L().With(logger.Component("pg.migrate"))
	for _, name := range names {
		sql, err := fs.ReadFile(migrations.PostgresFS, path.Join(migrations.PostgresDir, name))
		if err != nil {
			return fmt.Errorf("leyendo migración %s: %w", name, err)
		}
		if _, err := s.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("aplicando migración %s: %w", name, err)
		}
		log.Debug("migración aplicada", logger.String("file", name))
	}
	return nil
}
