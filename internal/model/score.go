package model

import "time"

// Category names.
const (
	CategoryDiscoverability = "discoverability"
	CategoryReadability     = "readability"
	CategoryTrust           = "trustworthiness"
	CategoryActionability   = "actionability"
)

// ScoreCheck is one scored rule. Earned never exceeds MaxPoints.
type ScoreCheck struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MaxPoints int    `json:"maxPoints"`
	Earned    int    `json:"earned"`
	Passed    bool   `json:"passed"`
	Details   string `json:"details,omitempty"`
}

// ScoreCategory groups checks under a fixed point budget.
type ScoreCategory struct {
	Name      string       `json:"name"`
	MaxPoints int          `json:"maxPoints"`
	Earned    int          `json:"earned"`
	Checks    []ScoreCheck `json:"checks"`
}

// NewScoreCategory builds a category whose Earned is the sum of its checks,
// clamped to the category budget.
func NewScoreCategory(name string, maxPoints int, checks []ScoreCheck) ScoreCategory {
	earned := 0
	for _, c := range checks {
		earned += c.Earned
	}
	earned = min(max(earned, 0), maxPoints)
	return ScoreCategory{
		Name:      name,
		MaxPoints: maxPoints,
		Earned:    earned,
		Checks:    checks,
	}
}

// FailedChecks returns the checks that did not pass, in evaluation order.
func (c ScoreCategory) FailedChecks() []ScoreCheck {
	var failed []ScoreCheck
	for _, check := range c.Checks {
		if !check.Passed {
			failed = append(failed, check)
		}
	}
	return failed
}

// Recommendation is advice derived from a failed check.
type Recommendation struct {
	CheckID  string `json:"checkId"`
	Category string `json:"category"`
	Impact   int    `json:"impact"`
	Message  string `json:"message"`
}

// ScoreResult is the outcome of scoring one URL.
type ScoreResult struct {
	ID              string           `json:"id"`
	URL             string           `json:"url"`
	Domain          string           `json:"domain"`
	Entity          string           `json:"entity"`
	ContentType     ContentType      `json:"contentType"`
	IsPublic        bool             `json:"isPublic"`
	TotalScore      int              `json:"totalScore"`
	Grade           Grade            `json:"grade"`
	Categories      []ScoreCategory  `json:"categories"`
	Recommendations []Recommendation `json:"recommendations"`
	UsedFallback    bool             `json:"usedFallbackTransport"`
	ScoredAt        time.Time        `json:"scoredAt"`
}

// Category returns the named category, or false if it is absent.
func (r *ScoreResult) Category(name string) (ScoreCategory, bool) {
	for _, c := range r.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return ScoreCategory{}, false
}

// CheckCount returns the number of checks and how many of them passed.
func (r *ScoreResult) CheckCount() (total, passed int) {
	for _, c := range r.Categories {
		for _, check := range c.Checks {
			total++
			if check.Passed {
				passed++
			}
		}
	}
	return total, passed
}
