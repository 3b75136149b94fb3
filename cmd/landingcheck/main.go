// Package main provides the landingcheck CLI.
//
// landingcheck verifies a static marketing landing page in a real Chromium
// browser across a fixed table of viewports, and writes a Markdown/HTML
// report of the outcome.
//
// Usage:
//
//	landingcheck serve
//	landingcheck run [--project chromium] [--tag @smoke] [--grep hero]
//	landingcheck lint
//	landingcheck list
//
// See --help for all available options.
package main

func main() {
	Execute()
}
