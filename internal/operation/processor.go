package operation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/congo-pay/walletops/internal/metrics"
	"github.com/congo-pay/walletops/internal/pool"
	"github.com/congo-pay/walletops/internal/validation"
	"github.com/congo-pay/walletops/internal/wallet"
)

// Processor admits operations through a pool and runs them on an Engine.
type Processor struct {
	pool    *pool.Pool
	engine  *Engine
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewProcessor wires a pool to an engine.
func NewProcessor(p *pool.Pool, engine *Engine, logger *slog.Logger, m *metrics.Metrics) *Processor {
	return &Processor{pool: p, engine: engine, logger: logger, metrics: m}
}

// Process blocks until req has been applied or has failed. Errors keep
// validation.ErrInvalidParameter, wallet.ErrNotFound, pool.ErrOverloaded and
// pool.ErrPoolClosed; everything else is an ErrFault.
func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	label := string(req.Type)
	if err := req.Validate(); err != nil {
		if !req.Type.Valid() {
			label = "unknown"
		}
		p.metrics.RecordOperation(label, "invalid", time.Since(start))
		return Result{}, err
	}

	var res Result
	err := p.pool.Submit(ctx, func(ctx context.Context) error {
		r, err := p.engine.Execute(ctx, req)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	err = classify(err)
	p.metrics.RecordOperation(label, outcomeLabel(res, err), time.Since(start))

	if err != nil {
		if errors.Is(err, ErrFault) {
			p.logger.Error("operation failed",
				slog.String("wallet_id", req.WalletID.String()),
				slog.String("operation", string(req.Type)),
				slog.Any("error", err),
			)
		}
		return Result{}, err
	}
	return res, nil
}

func classify(err error) error {
	switch {
	case err == nil,
		errors.Is(err, ErrFault),
		errors.Is(err, validation.ErrInvalidParameter),
		errors.Is(err, wallet.ErrNotFound),
		errors.Is(err, pool.ErrOverloaded),
		errors.Is(err, pool.ErrPoolClosed):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrFault, err)
	}
}

func outcomeLabel(res Result, err error) string {
	switch {
	case err == nil:
		return res.Outcome.String()
	case errors.Is(err, validation.ErrInvalidParameter):
		return "invalid"
	case errors.Is(err, wallet.ErrNotFound):
		return "not_found"
	case errors.Is(err, pool.ErrOverloaded), errors.Is(err, pool.ErrPoolClosed):
		return "rejected"
	default:
		return "fault"
	}
}
