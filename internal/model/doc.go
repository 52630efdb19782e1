// Package model defines the data structures shared by the analysis pipeline.
//
// This package contains the following main types:
//   - PageData: one analyzed page (fetch result, Markdown, extracted signals)
//   - ProtocolProbeResult: what the origin answered to protocol negotiation
//   - SiteProbeResult: protocol adoption across sampled same-domain pages
//   - ScoreResult: the four scoring categories, total, grade and recommendations
//   - AnalysisResult: the flattened output of an analyze request
//   - PageReport: the per-request state threaded through pipeline steps
//
// The types serialize to JSON for report output and database storage.
package model
