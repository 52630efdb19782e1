package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/pagescope/internal/config"
)

// TestRunScoreCmd tests the score command without network access.
func TestRunScoreCmd(t *testing.T) {
	t.Parallel()

	t.Run("requires a target", func(t *testing.T) {
		t.Parallel()

		cmd := NewScoreCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--no-save"})
		if err := cmd.Execute(); !errors.Is(err, config.ErrNoTarget) {
			t.Errorf("expected ErrNoTarget, got %v", err)
		}
	})

	t.Run("rejects conflicting formats", func(t *testing.T) {
		t.Parallel()

		cmd := NewScoreCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--no-save", "-j", "-m", "https://example.com/"})
		if err := cmd.Execute(); !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("reports invalid targets", func(t *testing.T) {
		t.Parallel()

		var stdout, stderr bytes.Buffer
		cmd := NewScoreCmd()
		cmd.SetOut(&stdout)
		cmd.SetErr(&stderr)
		cmd.SetArgs([]string{"--no-save", "--fallback", "none", "ftp://example.com/file"})

		err := cmd.Execute()
		if err == nil || err.Error() != "1 of 1 targets failed" {
			t.Fatalf("expected failure summary, got %v", err)
		}
		if !strings.Contains(stderr.String(), "ftp://example.com/file") {
			t.Errorf("expected failed target on stderr, got %q", stderr.String())
		}
		if stdout.Len() != 0 {
			t.Errorf("expected no report, got %q", stdout.String())
		}
	})
}

// TestRunAnalyzeCmd tests the analyze command without network access.
func TestRunAnalyzeCmd(t *testing.T) {
	t.Parallel()

	var stderr bytes.Buffer
	cmd := NewAnalyzeCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--no-save", "--fallback", "none", "http://", "mailto:someone@example.com"})

	err := cmd.Execute()
	if err == nil || err.Error() != "2 of 2 targets failed" {
		t.Fatalf("expected failure summary, got %v", err)
	}
	if strings.Count(stderr.String(), "Error for") != 2 {
		t.Errorf("expected two failures on stderr, got %q", stderr.String())
	}
}
