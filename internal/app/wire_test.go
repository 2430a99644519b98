package app_test

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cipherchat/internal/app"
	"cipherchat/internal/domain"
)

func TestWire_FileBackendEndToEnd(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := app.DefaultConfig()
	cfg.Storage.KeysDir = filepath.Join(dir, "keys")
	cfg.Logging.Console = false
	cfg.Events.File = filepath.Join(dir, "events.jsonl")
	cfg.Metrics.Textfile = filepath.Join(dir, "cipherchat.prom")

	w, err := app.NewWire(ctx, cfg)
	if err != nil {
		t.Fatalf("NewWire: %v", err)
	}
	for _, name := range []domain.Username{"alice", "bob"} {
		if _, err := w.Identity.GenerateAndStore(ctx, name); err != nil {
			t.Fatalf("GenerateAndStore(%s): %v", name, err)
		}
	}
	env, err := w.Channel.Send(ctx, "alice", "bob", []byte("wired"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	msg, err := w.Channel.Receive(ctx, env, "bob")
	if err != nil || string(msg.Plaintext) != "wired" {
		t.Fatalf("Receive = %q, %v", msg.Plaintext, err)
	}
	if err := w.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(cfg.Events.File)
	if err != nil {
		t.Fatalf("events file: %v", err)
	}
	defer f.Close()
	var lines int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines++
	}
	// two KEY_GENERATED, MESSAGE_SENT, MESSAGE_RECEIVED
	if lines != 4 {
		t.Fatalf("events file has %d lines", lines)
	}

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	if !strings.Contains(string(prom), "cipherchat_messages_sent_total 1") {
		t.Fatalf("metrics textfile missing sent counter:\n%s", prom)
	}
}

func TestWire_RejectsInvalidConfig(t *testing.T) {
	cfg := app.DefaultConfig()
	cfg.Storage.Backend = "etcd"
	if _, err := app.NewWire(context.Background(), cfg); err == nil {
		t.Fatal("NewWire accepted unknown backend")
	}
}
