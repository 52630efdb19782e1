package model

import "testing"

func TestNewScoreCategory(t *testing.T) {
	t.Parallel()

	t.Run("sums earned points", func(t *testing.T) {
		t.Parallel()

		c := NewScoreCategory("readability", 30, []ScoreCheck{
			{ID: "a", MaxPoints: 8, Earned: 5},
			{ID: "b", MaxPoints: 5, Earned: 5, Passed: true},
		})
		if c.Earned != 10 {
			t.Errorf("Earned = %d, want 10", c.Earned)
		}
		if len(c.FailedChecks()) != 1 {
			t.Errorf("expected one failed check, got %d", len(c.FailedChecks()))
		}
	})

	t.Run("clamps to budget", func(t *testing.T) {
		t.Parallel()

		c := NewScoreCategory("x", 5, []ScoreCheck{{Earned: 4}, {Earned: 4}})
		if c.Earned != 5 {
			t.Errorf("Earned = %d, want 5", c.Earned)
		}
	})
}

func TestScoreResultCheckCount(t *testing.T) {
	t.Parallel()

	r := &ScoreResult{Categories: []ScoreCategory{
		{Name: CategoryReadability, Checks: []ScoreCheck{{Passed: true}, {Passed: false}}},
		{Name: CategoryTrust, Checks: []ScoreCheck{{Passed: true}}},
	}}
	total, passed := r.CheckCount()
	if total != 3 || passed != 2 {
		t.Errorf("CheckCount() = %d, %d; want 3, 2", total, passed)
	}
	if _, ok := r.Category(CategoryTrust); !ok {
		t.Error("expected trust category")
	}
	if _, ok := r.Category(CategoryActionability); ok {
		t.Error("did not expect actionability category")
	}
}

func TestTokenReduction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		html, md, want int
	}{
		{1000, 250, 75},
		{100, 100, 0},
		{100, 150, 0},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := TokenReduction(tt.html, tt.md); got != tt.want {
			t.Errorf("TokenReduction(%d, %d) = %d, want %d", tt.html, tt.md, got, tt.want)
		}
	}
}

func TestDomainOf(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"https://www.Example.com/path": "example.com",
		"http://blog.example.com":      "blog.example.com",
		"::not a url":                  "",
	}
	for in, want := range tests {
		if got := DomainOf(in); got != want {
			t.Errorf("DomainOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	types := ContentTypes()
	if len(types) != 10 {
		t.Fatalf("expected 10 content types, got %d", len(types))
	}
	if types[len(types)-1] != ContentTypeWebPage {
		t.Error("generic type must be declared last")
	}
	if ContentType("spaceship").Valid() {
		t.Error("unknown type must be invalid")
	}
	if ContentType("").String() != "webpage" {
		t.Error("empty type must render as webpage")
	}
}
