// Package pipeline runs a page through fetch, extraction, probing and
// scoring.
//
// Each stage is a Step that receives the per-request model.PageReport and
// fills in its part. Analyzer assembles the steps into the two entry
// points, Analyze and Score, and hands finished results to an optional
// Store. BatchProcessor runs many URLs with bounded concurrency using
// errgroup.
package pipeline
