package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/pagescope/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) (*ResultDB, func()) {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
	}
	return db, cleanup
}

func testScore(id, rawURL string, total int, public bool, at time.Time) *model.ScoreResult {
	return &model.ScoreResult{
		ID:          id,
		URL:         rawURL,
		Domain:      model.DomainOf(rawURL),
		Entity:      "Acme Docs",
		ContentType: model.ContentTypeDocumentation,
		IsPublic:    public,
		TotalScore:  total,
		Grade:       model.GradeFor(total),
		Categories: []model.ScoreCategory{
			model.NewScoreCategory(model.CategoryDiscoverability, 15, []model.ScoreCheck{
				{ID: "protocol_served", Name: "Protocol served", MaxPoints: 6, Earned: 6, Passed: true},
			}),
		},
		Recommendations: []model.Recommendation{
			{CheckID: "structured_data", Category: model.CategoryTrust, Impact: 8, Message: "Add JSON-LD"},
		},
		ScoredAt: at,
	}
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails on missing database", func(t *testing.T) {
		t.Parallel()

		opts := DefaultOptions()
		opts.CreateIfNotExists = false

		_, err := Open(filepath.Join(t.TempDir(), "missing"), opts)
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db.Close()

		opts := DefaultOptions()
		opts.CreateIfNotExists = false
		db, err = Open(dbDir, opts)
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db.Close()
	})

	t.Run("without WAL", func(t *testing.T) {
		t.Parallel()

		db, err := Open(t.TempDir(), Options{CreateIfNotExists: true})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		_ = db.Close()
	})
}

// TestSaveAndGetScore tests score persistence round trips.
func TestSaveAndGetScore(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	at := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	want := testScore("score-1", "https://www.acme.example/docs", 72, true, at)

	if err := db.SaveScore(ctx, want); err != nil {
		t.Fatalf("SaveScore failed: %v", err)
	}

	got, err := db.GetScore(ctx, "score-1")
	if err != nil {
		t.Fatalf("GetScore failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected score, got nil")
	}
	if got.TotalScore != 72 || got.Grade != model.GradeB || !got.IsPublic {
		t.Errorf("unexpected score %+v", got)
	}
	if got.Domain != "acme.example" {
		t.Errorf("expected domain acme.example, got %q", got.Domain)
	}
	if len(got.Categories) != 1 || len(got.Categories[0].Checks) != 1 {
		t.Errorf("categories were not preserved: %+v", got.Categories)
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0].Impact != 8 {
		t.Errorf("recommendations were not preserved: %+v", got.Recommendations)
	}
	if !got.ScoredAt.Equal(at) {
		t.Errorf("expected %v, got %v", at, got.ScoredAt)
	}

	t.Run("missing id returns nil", func(t *testing.T) {
		t.Parallel()

		got, err := db.GetScore(ctx, "nope")
		if err != nil || got != nil {
			t.Errorf("expected nil, nil; got %v, %v", got, err)
		}
	})

	t.Run("empty id is rejected", func(t *testing.T) {
		t.Parallel()

		if err := db.SaveScore(ctx, &model.ScoreResult{}); err == nil {
			t.Error("expected error for empty id")
		}
		if err := db.SaveScore(ctx, nil); err == nil {
			t.Error("expected error for nil result")
		}
	})
}

// TestSaveScoreReplaces tests that saving an existing ID updates it.
func TestSaveScoreReplaces(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	at := time.Now().UTC()
	if err := db.SaveScore(ctx, testScore("same", "https://acme.example/", 30, false, at)); err != nil {
		t.Fatalf("SaveScore failed: %v", err)
	}
	if err := db.SaveScore(ctx, testScore("same", "https://acme.example/", 90, true, at)); err != nil {
		t.Fatalf("SaveScore failed: %v", err)
	}

	history, err := db.ScoreHistory(ctx, "acme.example", 0)
	if err != nil {
		t.Fatalf("ScoreHistory failed: %v", err)
	}
	if len(history) != 1 || history[0].TotalScore != 90 || !history[0].IsPublic {
		t.Errorf("expected single replaced row, got %+v", history)
	}
}

// TestScoreHistory tests history ordering, filtering and limits.
func TestScoreHistory(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	scores := []*model.ScoreResult{
		testScore("a1", "https://acme.example/", 40, true, base),
		testScore("a2", "https://acme.example/docs", 55, false, base.Add(24*time.Hour)),
		testScore("a3", "https://www.acme.example/", 81, true, base.Add(48*time.Hour)),
		testScore("b1", "https://other.example/", 99, true, base.Add(72*time.Hour)),
	}
	for _, s := range scores {
		if err := db.SaveScore(ctx, s); err != nil {
			t.Fatalf("SaveScore(%s) failed: %v", s.ID, err)
		}
	}

	t.Run("newest first for one domain", func(t *testing.T) {
		t.Parallel()

		history, err := db.ScoreHistory(ctx, "acme.example", 0)
		if err != nil {
			t.Fatalf("ScoreHistory failed: %v", err)
		}
		var ids []string
		for _, h := range history {
			ids = append(ids, h.ID)
		}
		if len(ids) != 3 || ids[0] != "a3" || ids[1] != "a2" || ids[2] != "a1" {
			t.Errorf("unexpected order %v", ids)
		}
		if history[0].Grade != model.GradeA {
			t.Errorf("expected grade A, got %s", history[0].Grade)
		}
		if !history[0].ScoredAt.Equal(base.Add(48 * time.Hour)) {
			t.Errorf("unexpected timestamp %v", history[0].ScoredAt)
		}
	})

	t.Run("limit", func(t *testing.T) {
		t.Parallel()

		history, err := db.ScoreHistory(ctx, "acme.example", 2)
		if err != nil {
			t.Fatalf("ScoreHistory failed: %v", err)
		}
		if len(history) != 2 {
			t.Errorf("expected 2, got %d", len(history))
		}
	})

	t.Run("unknown domain", func(t *testing.T) {
		t.Parallel()

		history, err := db.ScoreHistory(ctx, "unknown.example", 10)
		if err != nil {
			t.Fatalf("ScoreHistory failed: %v", err)
		}
		if len(history) != 0 {
			t.Errorf("expected empty history, got %+v", history)
		}
	})

	t.Run("latest score", func(t *testing.T) {
		t.Parallel()

		latest, err := db.LatestScore(ctx, "acme.example")
		if err != nil {
			t.Fatalf("LatestScore failed: %v", err)
		}
		if latest == nil || latest.ID != "a3" {
			t.Errorf("expected a3, got %+v", latest)
		}

		none, err := db.LatestScore(ctx, "unknown.example")
		if err != nil || none != nil {
			t.Errorf("expected nil, nil; got %v, %v", none, err)
		}
	})

	t.Run("public listing", func(t *testing.T) {
		t.Parallel()

		public, err := db.ListPublicScores(ctx, 0)
		if err != nil {
			t.Fatalf("ListPublicScores failed: %v", err)
		}
		if len(public) != 3 {
			t.Fatalf("expected 3 public scores, got %d", len(public))
		}
		if public[0].ID != "b1" || public[2].ID != "a1" {
			t.Errorf("unexpected order %+v", public)
		}
		for _, p := range public {
			if !p.IsPublic {
				t.Errorf("private score %s listed", p.ID)
			}
		}
	})

	t.Run("scored domains", func(t *testing.T) {
		t.Parallel()

		domains, err := db.ListScoredDomains(ctx)
		if err != nil {
			t.Fatalf("ListScoredDomains failed: %v", err)
		}
		if len(domains) != 2 || domains[0] != "acme.example" || domains[1] != "other.example" {
			t.Errorf("unexpected domains %v", domains)
		}
	})
}

// TestSaveAndGetAnalysis tests analysis persistence.
func TestSaveAndGetAnalysis(t *testing.T) {
	t.Parallel()

	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	analysis := &model.AnalysisResult{
		ID:             "analysis-1",
		URL:            "https://acme.example/pricing",
		FinalURL:       "https://acme.example/pricing",
		Domain:         "acme.example",
		Entity:         "Acme Pricing",
		ContentType:    model.ContentTypeProduct,
		Markdown:       "# Pricing\n",
		ContentHash:    "abc123",
		HTMLTokens:     400,
		MarkdownTokens: 100,
		TokenReduction: 75,
		AnalyzedAt:     time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
	}
	if err := db.SaveAnalysis(ctx, analysis); err != nil {
		t.Fatalf("SaveAnalysis failed: %v", err)
	}

	got, err := db.GetAnalysis(ctx, "analysis-1")
	if err != nil {
		t.Fatalf("GetAnalysis failed: %v", err)
	}
	if got == nil || got.Entity != "Acme Pricing" || got.TokenReduction != 75 || got.Markdown != "# Pricing\n" {
		t.Errorf("unexpected analysis %+v", got)
	}

	missing, err := db.GetAnalysis(ctx, "missing")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil; got %v, %v", missing, err)
	}

	if err := db.SaveAnalysis(ctx, &model.AnalysisResult{}); err == nil {
		t.Error("expected error for empty id")
	}
}

// TestParseTimestamp tests stored timestamp parsing.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{"layout", "2026-10-01 09:30:00.000000", false},
		{"sqlite default", "2026-10-01 09:30:00", false},
		{"rfc3339", "2026-10-01T09:30:00Z", false},
		{"rfc3339 nano", "2026-10-01T09:30:00.123+02:00", false},
		{"garbage", "yesterday", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.input); got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v", tt.input, got)
			}
		})
	}
}
