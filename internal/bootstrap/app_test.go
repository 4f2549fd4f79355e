package bootstrap_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/BohdanGlowacki/UGODY/internal/bootstrap"
	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/repository/repotest"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	cfg := common.DefaultConfig()
	cfg.Database.DSN = "file:" + filepath.Join(t.TempDir(), "ugody.db") + "?_pragma=foreign_keys(1)&_time_format=sqlite"
	cfg.Scan.Directory = t.TempDir()
	return cfg
}

func TestNewAndRecover(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.Scan.Directory, "a.pdf"), []byte("%PDF a"), 0o644); err != nil {
		t.Fatal(err)
	}

	app, err := bootstrap.New(ctx, cfg, repotest.DiscardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary, err := app.Documents.Scan(ctx, "")
	if err != nil || summary.New != 1 {
		t.Fatalf("Scan: %+v %v", summary, err)
	}
	app.Close()

	// a fresh process sees the unprocessed document through recovery
	app, err = bootstrap.New(ctx, cfg, repotest.DiscardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer app.Close()
	n, err := app.Recover(ctx)
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if n != 1 || app.Queue.Len() != 1 {
		t.Errorf("recovered %d, queue len %d", n, app.Queue.Len())
	}
}

func TestNewExtractorUnknownEngine(t *testing.T) {
	cfg := common.DefaultConfig().OCR
	cfg.Engine = "abbyy"
	if _, err := bootstrap.NewExtractor(cfg, repotest.DiscardLogger()); !errors.Is(err, common.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration fault", err)
	}
}
