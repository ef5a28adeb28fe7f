package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/lexwatch/lexwatch-backend/internal/config"
	"github.com/lexwatch/lexwatch-backend/pkg/ctxutil"
)

func TestNewLogger_SetsDefault(t *testing.T) {
	cfg := config.LogConfig{Level: "info", Format: "json"}
	logger := NewLogger(cfg)

	def := slog.Default()
	if def.Handler() != logger.Handler() {
		t.Error("NewLogger should set the returned logger as slog default")
	}
}

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		level    string
		wantSlog slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run("level_"+tt.level, func(t *testing.T) {
			var buf bytes.Buffer

			logger := newLoggerWithWriter(&buf, config.LogConfig{
				Level:  tt.level,
				Format: "text",
			})

			logger.Log(context.TODO(), tt.wantSlog, "should appear")
			if buf.Len() == 0 {
				t.Errorf("expected log output at level %v", tt.wantSlog)
			}

			buf.Reset()
			logger.Log(context.TODO(), tt.wantSlog-1, "should be suppressed")
			if buf.Len() != 0 {
				t.Errorf("level %v should suppress lower levels, got: %s",
					tt.wantSlog, buf.String())
			}
		})
	}
}

func TestContextHandler_StampsIdentity(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerWithWriter(&buf, config.LogConfig{Level: "info", Format: "json"})

	actorID := uuid.New()
	ctx := ctxutil.WithActorID(context.Background(), actorID)
	ctx = ctxutil.WithRequestID(ctx, "req-42")

	logger.InfoContext(ctx, "hello")

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["actor_id"] != actorID.String() {
		t.Errorf("actor_id: got %v, want %s", m["actor_id"], actorID)
	}
	if m["request_id"] != "req-42" {
		t.Errorf("request_id: got %v, want req-42", m["request_id"])
	}
}

func TestContextHandler_BareContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newLoggerWithWriter(&buf, config.LogConfig{Level: "info", Format: "json"})

	logger.InfoContext(context.Background(), "hello")

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := m["actor_id"]; ok {
		t.Error("actor_id should be absent without identity in the context")
	}
	if _, ok := m["request_id"]; ok {
		t.Error("request_id should be absent without identity in the context")
	}
}

// newLoggerWithWriter mirrors NewLogger but writes to the given buffer so
// tests can assert on output.
func newLoggerWithWriter(buf *bytes.Buffer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(buf, opts)
	} else {
		handler = slog.NewTextHandler(buf, opts)
	}
	return slog.New(contextHandler{handler})
}
