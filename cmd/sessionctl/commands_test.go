package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
)

// runCLI executes sessionctl with args against the in-process provider and returns stdout.
func runCLI(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(t.TempDir(), "missing.yaml")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", cfg, "--local", "--log-level", "error"}, args...))
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func decodeView(t *testing.T, out string) snapshotView {
	t.Helper()
	var v snapshotView
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &v); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	return v
}

func TestStatusAndSignoutWithMemoryStore(t *testing.T) {
	t.Setenv(goSession.EnvDeviceSecret, "sessionctl-test-device-secret")
	ctx := context.Background()

	out, err := runCLI(t, ctx, "--store", "memory", "status", "--json")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if v := decodeView(t, out); v.State != "unauthenticated" || v.Loading {
		t.Fatalf("expected settled unauthenticated status, got %+v", v)
	}

	out, err = runCLI(t, ctx, "--store", "memory", "signout")
	if err != nil {
		t.Fatalf("signout: %v", err)
	}
	if !strings.Contains(out, "unauthenticated") {
		t.Fatalf("expected unauthenticated after signout:\n%s", out)
	}
}

func TestLoginWithMemoryStore(t *testing.T) {
	t.Setenv(goSession.EnvDeviceSecret, "sessionctl-test-device-secret")

	out, err := runCLI(t, context.Background(), "--store", "memory",
		"login", "--email", "demo@example.com", "--password", "demo-password")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "demo@example.com") {
		t.Fatalf("expected signed-in identity in output:\n%s", out)
	}

	if _, err := runCLI(t, context.Background(), "--store", "memory",
		"login", "--email", "demo@example.com", "--password", "wrong-password"); err == nil {
		t.Fatal("expected bad password to fail")
	}
}

func TestLoginPersistsToFileStore(t *testing.T) {
	t.Setenv(goSession.EnvDeviceSecret, "sessionctl-test-device-secret")
	dir := t.TempDir()
	ctx := context.Background()
	store := []string{"--store", "file"}
	t.Setenv("HOME", dir)

	if _, err := runCLI(t, ctx, append(store, "login", "-e", "demo@example.com", "-p", "demo-password")...); err != nil {
		t.Fatalf("login: %v", err)
	}

	// A fresh process restores the cached, unexpired session.
	out, err := runCLI(t, ctx, append(store, "status", "--json")...)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if v := decodeView(t, out); v.State != "authenticated" || v.Identity != "demo@example.com" {
		t.Fatalf("expected restored session, got %+v", v)
	}

	if _, err := runCLI(t, ctx, append(store, "signout")...); err != nil {
		t.Fatalf("signout: %v", err)
	}
	out, err = runCLI(t, ctx, append(store, "status", "--json")...)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if v := decodeView(t, out); v.State != "unauthenticated" {
		t.Fatalf("expected cache cleared by signout, got %+v", v)
	}
}

func TestWatchPrintsUntilCancelled(t *testing.T) {
	t.Setenv(goSession.EnvDeviceSecret, "sessionctl-test-device-secret")
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	out, err := runCLI(t, ctx, "--store", "memory", "watch", "--json")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	line := strings.SplitN(strings.TrimSpace(out), "\n", 2)[0]
	if v := decodeView(t, line); v.State != "unauthenticated" {
		t.Fatalf("expected initial snapshot, got %+v", v)
	}
}
