package model

import "time"

// PageReport is the state one request threads through the pipeline.
// Each step fills in its part; a failed step records its error here.
type PageReport struct {
	// URL is the requested URL.
	URL string `json:"url"`

	// IsPublic is the caller's choice to list the score publicly.
	IsPublic bool `json:"isPublic"`

	Page     *PageData            `json:"page,omitempty"`
	Protocol *ProtocolProbeResult `json:"protocol,omitempty"`
	Site     *SiteProbeResult     `json:"site,omitempty"`
	Score    *ScoreResult         `json:"score,omitempty"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performedSteps"`

	StartedAt time.Time `json:"startedAt"`

	// TimedOut is set when the pipeline was cancelled between steps.
	TimedOut bool `json:"timedOut"`

	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`
}

// NewPageReport creates the state for one request.
func NewPageReport(url string) *PageReport {
	return &PageReport{
		URL:            url,
		PerformedSteps: make([]string, 0),
		StartedAt:      time.Now().UTC(),
	}
}
