package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/BohdanGlowacki/UGODY/internal/common"
	"github.com/BohdanGlowacki/UGODY/internal/repository/repotest"
)

func TestRunSurvivesMissingWatchDirectory(t *testing.T) {
	cfg := common.DefaultConfig()
	cfg.Database.DSN = "file:" + filepath.Join(t.TempDir(), "ugody.db") + "?_pragma=foreign_keys(1)&_time_format=sqlite"
	cfg.Scan.Directory = filepath.Join(t.TempDir(), "not-yet-created")
	cfg.Scan.Watch = true
	cfg.Scan.ScanOnStart = true
	cfg.Server.GRPCAddr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- run(ctx, cfg, repotest.DiscardLogger()) }()

	select {
	case err := <-done:
		t.Fatalf("run returned early: %v", err)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run after cancel: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}
