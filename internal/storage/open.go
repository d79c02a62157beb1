package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/yndnr/adminctl/internal/telemetry/logger"
)

// Open builds the engine selected by cfg.Engine.
func Open(ctx context.Context, cfg KVConfig, log logger.Logger) (KVEngine, error) {
	switch strings.ToLower(cfg.Engine) {
	case "", "badger":
		return NewBadgerEngine(cfg, log)
	case "redis":
		return NewRedisEngine(ctx, cfg.Redis)
	case "memory":
		return NewMemoryEngine(), nil
	default:
		return nil, fmt.Errorf("storage: unknown engine %q", cfg.Engine)
	}
}
