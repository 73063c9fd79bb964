package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sikp/kp-portal/internal/store"
)

// Error kinds surfaced by the team sync engine
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAlreadyApproved = fmt.Errorf("%w: proposal is already approved", ErrInvalidArgument)
	ErrPartialFailure  = errors.New("partial failure")
	ErrUnavailable     = errors.New("unavailable")
)

// Kind names, as reported to API callers
const (
	KindNotFound        = "not_found"
	KindInvalidArgument = "invalid_argument"
	KindAlreadyApproved = "already_approved"
	KindPartialFailure  = "partial_failure"
	KindUnavailable     = "unavailable"
)

// Error is a failure of a whole operation. Kind is one of the sentinels above.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func opError(op string, kind error, format string, args ...interface{}) *Error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// storeError maps a record store failure onto the engine's kinds
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	kind := ErrUnavailable
	if errors.Is(err, store.ErrNotFound) {
		kind = ErrNotFound
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf returns the most specific kind name for err, or "" when err is nil
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadyApproved):
		return KindAlreadyApproved
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrPartialFailure):
		return KindPartialFailure
	default:
		return KindUnavailable
	}
}

// RowError is the failure of one row inside a fan-out
type RowError struct {
	ProposalID uuid.UUID `json:"proposal_id,omitempty"`
	MemberID   uuid.UUID `json:"member_id,omitempty"`
	Message    string    `json:"message"`
	Err        error     `json:"-"`
}

func newRowError(proposalID, memberID uuid.UUID, err error) RowError {
	return RowError{ProposalID: proposalID, MemberID: memberID, Message: err.Error(), Err: err}
}

func (e RowError) Error() string {
	switch {
	case e.ProposalID != uuid.Nil:
		return "proposal " + e.ProposalID.String() + ": " + e.Message
	case e.MemberID != uuid.Nil:
		return "member " + e.MemberID.String() + ": " + e.Message
	default:
		return e.Message
	}
}

func (e RowError) Unwrap() error {
	return e.Err
}
