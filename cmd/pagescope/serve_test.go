package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/pagescope/internal/config"
	"github.com/nao1215/pagescope/internal/server"
)

// TestNewServeCmd tests the serve command creation.
func TestNewServeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewServeCmd()

	t.Run("has listen flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("listen")
		if flag == nil {
			t.Fatal("expected listen flag")
		}
		if flag.Shorthand != "a" {
			t.Errorf("expected shorthand 'a', got %q", flag.Shorthand)
		}
		if flag.DefValue != config.DefaultListenAddress {
			t.Errorf("expected default %q, got %q", config.DefaultListenAddress, flag.DefValue)
		}
	})

	t.Run("has request-timeout flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("request-timeout")
		if flag == nil {
			t.Fatal("expected request-timeout flag")
		}
		if flag.DefValue != server.DefaultRequestTimeout.String() {
			t.Errorf("expected default %s, got %s", server.DefaultRequestTimeout, flag.DefValue)
		}
	})

	t.Run("shares fetch flags", func(t *testing.T) {
		t.Parallel()
		for _, name := range []string{"timeout", "fallback", "config", "db-dir", "no-save"} {
			if cmd.Flags().Lookup(name) == nil {
				t.Errorf("expected %s flag", name)
			}
		}
	})

	t.Run("rejects positional arguments", func(t *testing.T) {
		t.Parallel()
		if err := cmd.Args(cmd, []string{"https://example.com/"}); err == nil {
			t.Error("expected error for positional argument")
		}
	})
}

// TestRunServeCmd tests serve startup and shutdown without external network access.
func TestRunServeCmd(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid configuration", func(t *testing.T) {
		t.Parallel()

		cmd := NewServeCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--no-save", "--fallback", "bogus"})
		if err := cmd.Execute(); !errors.Is(err, config.ErrUnknownFallback) {
			t.Errorf("expected ErrUnknownFallback, got %v", err)
		}
	})

	t.Run("rejects non-positive request timeout", func(t *testing.T) {
		t.Parallel()

		cmd := NewServeCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--no-save", "--request-timeout", "0s"})
		err := cmd.Execute()
		if err == nil || !strings.Contains(err.Error(), "request timeout must be positive") {
			t.Errorf("expected request timeout error, got %v", err)
		}
	})

	t.Run("reports listen failure", func(t *testing.T) {
		t.Parallel()

		cmd := NewServeCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--no-save", "--listen", "127.0.0.1:-1"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for invalid listen address")
		}
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var stderr bytes.Buffer
		cmd := NewServeCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&stderr)
		cmd.SetArgs([]string{"--no-save", "--listen", "127.0.0.1:0"})
		if err := cmd.ExecuteContext(ctx); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
