package services

import (
	"fmt"

	"github.com/google/uuid"
)

// ReconcileResult reports one fan-out repair
type ReconcileResult struct {
	CreatedCount int `json:"created_count"`

	// existing proposals that received the team's supervisor
	SupervisorFilled int `json:"supervisor_filled"`

	Errors []RowError `json:"errors"`

	// proposals whose owner is no longer an active member; never deleted
	Orphaned []uuid.UUID `json:"orphaned,omitempty"`
}

// PropagationResult reports one mutation replicated across a team.
// AffectedCount includes the source row when it was written.
type PropagationResult struct {
	AffectedCount int        `json:"affected_count"`
	Errors        []RowError `json:"errors"`
}

// OperationResult is what every engine entry point hands back to controllers.
// Success is false only when the authoritative write or a precondition failed;
// row failures leave Success true and populate Errors.
type OperationResult struct {
	Success       bool       `json:"success"`
	Message       string     `json:"message"`
	Kind          string     `json:"kind,omitempty"`
	AffectedCount int        `json:"affected_count"`
	CreatedCount  int        `json:"created_count,omitempty"`
	Errors        []RowError `json:"errors"`
}

// Partial reports whether some rows were not written
func (r *OperationResult) Partial() bool {
	return r.Success && len(r.Errors) > 0
}

// Err returns an ErrPartialFailure error when rows failed, nil otherwise
func (r *OperationResult) Err() error {
	if !r.Partial() {
		return nil
	}
	return fmt.Errorf("%w: %d row(s) not written, re-run sync", ErrPartialFailure, len(r.Errors))
}

func failed(err error) *OperationResult {
	return &OperationResult{
		Success: false,
		Message: err.Error(),
		Kind:    KindOf(err),
		Errors:  []RowError{},
	}
}

func succeeded(message string, affected int, rowErrs []RowError) *OperationResult {
	if rowErrs == nil {
		rowErrs = []RowError{}
	}
	if len(rowErrs) > 0 {
		message = fmt.Sprintf("%s; %d team member record(s) were not updated, re-run sync", message, len(rowErrs))
	}
	return &OperationResult{
		Success:       true,
		Message:       message,
		AffectedCount: affected,
		Errors:        rowErrs,
	}
}

// Operation wraps a propagation in the result shape controllers return
func (r *PropagationResult) Operation(message string) *OperationResult {
	return succeeded(message, r.AffectedCount, r.Errors)
}
