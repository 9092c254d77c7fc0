package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/rs/zerolog/log"
)

//go:embed migrations/schema.sql
var schemaSQL string

// Migrate aplica el esquema del libro (idempotente) con los estados de proceso base.
func Migrate(ctx context.Context, q Querier) error {
	if _, err := q.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("aplicar esquema: %w", err)
	}
	log.Info().Msg("esquema de base de datos aplicado")
	return nil
}
