// Command sweep-locks removes abandoned edit leases from Redis. Leases
// expire lazily when the next acquire inspects them; this tool is the
// eager complement, intended to be invoked by an external cron job so
// abandoned leases do not linger in rarely edited scopes.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/lexwatch/lexwatch-backend/internal/adapter/redislock"
	"github.com/lexwatch/lexwatch-backend/internal/app"
	"github.com/lexwatch/lexwatch-backend/internal/config"
	"github.com/lexwatch/lexwatch-backend/internal/domain"
	"github.com/lexwatch/lexwatch-backend/internal/service/editlock"
	"github.com/lexwatch/lexwatch-backend/internal/service/permission"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := redislock.New(cfg.Redis.URL, cfg.Redis.DialTimeout)
	if err != nil {
		logger.Error("connect to redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	// The sweep itself needs neither permissions nor an audit trail, but
	// the service constructor wants both; the no-op logger keeps the audit
	// dependency out of this tool.
	gate, err := permission.NewService()
	if err != nil {
		logger.Error("build permission gate", slog.String("error", err.Error()))
		os.Exit(1)
	}
	svc := editlock.NewService(logger, store, gate, noopAudit{}, cfg.Lock, cfg.Audit)

	removed, err := svc.Sweep(ctx)
	if err != nil {
		logger.Error("sweep failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("sweep completed", slog.Int("removed", removed))
}

type noopAudit struct{}

func (noopAudit) Log(context.Context, domain.AuditRecord) error { return nil }
