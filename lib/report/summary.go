// Copyright 2026 The Mister Skinnylegs Authors
// SPDX-License-Identifier: MIT

package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/CH-CLARK/mister-skinnylegs/lib/artifact"
)

// Failure records one failed invocation for the run summary.
type Failure struct {
	Artifact string `json:"artifact"`
	Error    string `json:"error"`
}

// Summary is the audit record of one run, written as run.json at the
// report root. It accounts for every catalog entry: Written + Empty +
// Failed + WriteErrors equals the catalog size.
type Summary struct {
	RunID         string    `json:"run_id"`
	ProfileFolder string    `json:"profile_folder"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Artifacts     int       `json:"artifacts"`
	Written       int       `json:"written"`
	Empty         int       `json:"empty"`
	Failed        int       `json:"failed"`
	WriteErrors   int       `json:"write_errors"`
	Failures      []Failure `json:"failures,omitempty"`
	WriteFailures []Failure `json:"write_failures,omitempty"`
}

// NewSummary starts the audit record for a run over the given profile
// folder. The run ID ties log lines, the summary, and any downstream
// case notes to this specific execution.
func NewSummary(profileFolder string) *Summary {
	return &Summary{
		RunID:         uuid.NewString(),
		ProfileFolder: profileFolder,
		StartedAt:     time.Now().UTC(),
	}
}

// Record folds one envelope's outcome into the summary counters.
// wrote and writeErr are the Writer.Write returns for the same
// envelope. A successful extraction whose report could not be
// persisted counts as a write error, not as empty.
func (s *Summary) Record(e artifact.Envelope, wrote bool, writeErr error) {
	s.Artifacts++
	switch {
	case e.Failed():
		s.Failed++
		s.Failures = append(s.Failures, Failure{Artifact: e.Name, Error: e.Err.Error()})
	case writeErr != nil:
		s.WriteErrors++
		s.WriteFailures = append(s.WriteFailures, Failure{Artifact: e.Name, Error: writeErr.Error()})
	case wrote:
		s.Written++
	default:
		s.Empty++
	}
}

// Degraded reports whether the run produced anything less than a
// complete set of persisted reports.
func (s *Summary) Degraded() bool {
	return s.Failed > 0 || s.WriteErrors > 0
}

// WriteFile finalizes the summary and writes it as run.json under the
// report root.
func (s *Summary) WriteFile(root string) error {
	s.FinishedAt = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encoding run summary: %w", err)
	}
	path := filepath.Join(root, "run.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("report: writing %s: %w", path, err)
	}
	return nil
}
