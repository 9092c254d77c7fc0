package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Gestion-api/internal/application/inventory"
	"github.com/jhoicas/Gestion-api/internal/domain/repository"
)

var tracer = otel.Tracer("gestion-api/postgres")

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxOptions comportamiento de las transacciones del libro.
type TxOptions struct {
	IsolationLevel   pgx.TxIsoLevel
	StatementTimeout time.Duration // 0 = sin límite
	MaxAttempts      int           // intentos ante 40001/40P01
	RetryBackoff     time.Duration
}

// DefaultTxOptions READ COMMITTED con bloqueo de filas, 30s por sentencia y 3 intentos.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsolationLevel:   pgx.ReadCommitted,
		StatementTimeout: 30 * time.Second,
		MaxAttempts:      3,
		RetryBackoff:     50 * time.Millisecond,
	}
}

// txBeginner lo satisface *pgxpool.Pool.
type txBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool txBeginner
	opts TxOptions
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool, opts TxOptions) *TxRunner {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	return &TxRunner{pool: pool, opts: opts}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Ante serialization_failure o deadlock_detected repite la transacción completa.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
) error) error {
	ctx, span := tracer.Start(ctx, "transaction",
		trace.WithAttributes(
			attribute.String("tx.isolation", string(r.opts.IsolationLevel)),
		))
	defer span.End()

	var err error
	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		err = r.runOnce(ctx, fn)
		if err == nil || !isRetryable(err) || attempt == r.opts.MaxAttempts {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("transacción en conflicto, reintentando")
		span.AddEvent("retry", trace.WithAttributes(attribute.Int("tx.attempt", attempt)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.opts.RetryBackoff * time.Duration(attempt)):
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TxRunner) runOnce(ctx context.Context, fn func(repository.MovementRepository, repository.ProductRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: r.opts.IsolationLevel, AccessMode: pgx.ReadWrite})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// cubre también un panic dentro de fn; tras el Commit no hace nada
	defer func() { _ = tx.Rollback(context.Background()) }()

	if r.opts.StatementTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", r.opts.StatementTimeout.Milliseconds())); err != nil {
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	if err := fn(NewMovementRepository(tx), NewProductRepository(tx)); err != nil {
		// el ctx original puede estar cancelado; el rollback debe completarse igual
		if rbErr := tx.Rollback(context.Background()); rbErr != nil {
			log.Error().Err(rbErr).AnErr("original_error", err).Msg("rollback fallido")
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
