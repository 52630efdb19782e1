// Package main provides the entry point for the pagescope CLI.
//
// pagescope measures how well a web page can be read and used by AI agents.
// It fetches the page, converts its main content to Markdown, probes the
// page and site for the Markdown negotiation protocol, and scores the
// result out of 100.
//
// Usage:
//
//	pagescope analyze <url>
//	pagescope score [--public] <url>
//	pagescope serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
