// Package domain contains the core business entities and interfaces for the
// donations service.
package domain

import "strings"

// Outcome is the presentation bucket for a provider-reported payment status.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomePending Outcome = "pending"
)

var (
	successStatuses = map[string]struct{}{
		"COMPLETED":  {},
		"COMPLETE":   {},
		"SUCCESS":    {},
		"SUCCESSFUL": {},
	}
	failureStatuses = map[string]struct{}{
		"FAILED":   {},
		"FAIL":     {},
		"DECLINED": {},
		"REJECTED": {},
		"ERROR":    {},
	}
)

// ClassifyStatus maps a raw provider status string to an Outcome. Matching is
// case-insensitive on the trimmed string; anything unrecognized, including
// PENDING, PROCESSING, INITIATED and SUBMITTED, counts as still pending.
// The raw string itself is what gets persisted and displayed.
func ClassifyStatus(raw string) Outcome {
	status := strings.ToUpper(strings.TrimSpace(raw))
	if _, ok := successStatuses[status]; ok {
		return OutcomeSuccess
	}
	if _, ok := failureStatuses[status]; ok {
		return OutcomeFailed
	}
	return OutcomePending
}
