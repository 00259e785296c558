// Package runner orchestrates analysis runs: it decides per request whether
// to stream from the live backend or the scripted fallback, creates the run
// identity, and exposes a uniform stream to the consumer. Consumers never
// branch on live-vs-mock; the run identity prefix is informational only.
package runner
