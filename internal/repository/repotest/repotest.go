// Package repotest opens throwaway in-memory stores for tests.
package repotest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/repository"
)

var seq atomic.Int64

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Open returns a migrated in-memory sqlite database closed at test cleanup.
func Open(t testing.TB) *repository.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)&_time_format=sqlite", name, seq.Add(1))

	logger := DiscardLogger()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Driver: common.DriverSQLite, DSN: dsn}, logger)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { repository.Close(db, logger) })

	if err := repository.Migrate(ctx, db, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
