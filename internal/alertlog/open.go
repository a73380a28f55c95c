package alertlog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lcrostarosa/nirbhaya/internal/config"
)

// Open builds the recorder selected in cfg. The returned func releases it.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Recorder, func() error, error) {
	noop := func() error { return nil }

	switch cfg.AlertLog.Backend {
	case config.AlertLogNone:
		return Nop{}, noop, nil
	case config.AlertLogPostgres:
		db, err := OpenPostgres(ctx, cfg.AlertLog.DSN)
		if err != nil {
			return nil, nil, err
		}
		rec := NewPostgresRecorder(db, logger)
		if err := rec.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return rec, db.Close, nil
	case config.AlertLogFile, "":
		rec, err := NewFileRecorder(cfg.AlertsDir())
		if err != nil {
			return nil, nil, err
		}
		return rec, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown alert log backend %q", cfg.AlertLog.Backend)
	}
}
