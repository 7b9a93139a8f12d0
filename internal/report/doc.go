// Package report turns solver failure and status notifications into
// localized, structured log records.
package report
