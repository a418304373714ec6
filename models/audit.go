package models

import (
	"encoding/json"
	"time"
)

// AuditOutcome classifies one run of the result-processing pipeline.
type AuditOutcome string

const (
	// AuditOutcomeProcessed: the commit and all bookkeeping steps succeeded.
	AuditOutcomeProcessed AuditOutcome = "processed"
	// AuditOutcomePartial: the commit succeeded but one or more bookkeeping
	// steps (advancement, stats, notifications) failed and need repair.
	AuditOutcomePartial AuditOutcome = "partial"
	// AuditOutcomeCommitFailed: the match update itself did not apply.
	AuditOutcomeCommitFailed AuditOutcome = "commit_failed"
)

// StepFailure is one bookkeeping failure captured during processing.
type StepFailure struct {
	Step   string `json:"step"`
	Detail string `json:"detail"`
}

// ProcessingAudit is the per-processed-match record the medic tooling reads to
// find incomplete bookkeeping, instead of scraping logs.
type ProcessingAudit struct {
	ID           int          `json:"id" db:"id"`
	MatchID      int          `json:"match_id" db:"match_id"`
	TournamentID int          `json:"tournament_id" db:"tournament_id"`
	WinnerID     int          `json:"winner_id" db:"winner_id"`
	LoserID      int          `json:"loser_id" db:"loser_id"`
	Outcome      AuditOutcome `json:"outcome" db:"outcome"`
	FailuresJSON *string      `json:"-" db:"failures_json"`
	Resolved     bool         `json:"resolved" db:"resolved"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`

	Failures []StepFailure `json:"failures,omitempty" db:"-"`
}

// EncodeFailures serializes Failures into FailuresJSON for persistence.
func (a *ProcessingAudit) EncodeFailures() error {
	if len(a.Failures) == 0 {
		a.FailuresJSON = nil
		return nil
	}
	raw, err := json.Marshal(a.Failures)
	if err != nil {
		return err
	}
	s := string(raw)
	a.FailuresJSON = &s
	return nil
}

// DecodeFailures populates Failures from FailuresJSON after a read.
func (a *ProcessingAudit) DecodeFailures() error {
	if a.FailuresJSON == nil || *a.FailuresJSON == "" {
		a.Failures = nil
		return nil
	}
	return json.Unmarshal([]byte(*a.FailuresJSON), &a.Failures)
}
