//go:build unix

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestScanSkipsNonRegularFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.pdf", []byte("ok"))
	if err := syscall.Mkfifo(filepath.Join(dir, "pipe.pdf"), 0o644); err != nil {
		t.Skipf("mkfifo unsupported: %v", err)
	}
	if err := os.Symlink(filepath.Join(dir, "good.pdf"), filepath.Join(dir, "link.pdf")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan []Candidate, 1)
	go func() {
		got, err := NewScanner(false, quietLogger()).Scan(ctx, dir)
		if err != nil {
			t.Errorf("Scan: %v", err)
		}
		done <- got
	}()

	select {
	case got := <-done:
		names := map[string]bool{}
		for _, c := range got {
			names[c.Name] = true
		}
		if len(got) != 2 || !names["good.pdf"] || !names["link.pdf"] {
			t.Fatalf("expected good.pdf and link.pdf, got %+v", names)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Scan blocked on a FIFO")
	}
}
