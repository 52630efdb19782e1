// Package scoring grades a page for agent readiness.
//
// Four category evaluators (discoverability, readability, trustworthiness
// and actionability) each produce a list of checks. Every check turns one
// raw metric into points through a stepped table, so partial credit can
// always be explained by the threshold that was reached. The engine runs
// the evaluators concurrently, sums the categories into a 0-100 total,
// derives the grade and ranks recommendations for the failed checks.
package scoring
