package service

import (
	"errors"

	"github.com/primepath/primepath-backend/internal/placement"
	"github.com/primepath/primepath-backend/internal/repository"
)

// Kind classifies service errors so handlers can choose a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindSession
	KindFileProcessing
	KindPermission
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSession:
		return "session"
	case KindFileProcessing:
		return "file_processing"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a service error tagged with a Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) error {
	return &Error{Kind: kind, Err: errors.New(msg)}
}

// Sentinel errors. Compare with errors.Is; classify with KindOf.
var (
	ErrInvalidCredentials   = newError(KindValidation, "invalid credentials")
	ErrAccountDisabled      = newError(KindPermission, "account is disabled")
	ErrSessionAlreadyActive = newError(KindConflict, "another session is already active, please contact admin to reset")
	ErrNoActiveLogin        = newError(KindSession, "no active session")
	ErrLoginInvalidated     = newError(KindSession, "session invalidated")

	ErrPermissionDenied  = newError(KindPermission, "permission denied")
	ErrSystemRole        = newError(KindPermission, "system roles cannot be changed")
	ErrUnknownPermission = newError(KindValidation, "unknown permission code")

	ErrNoExamForLevel   = newError(KindNotFound, "no active exam is mapped to this level")
	ErrExamInactive     = newError(KindValidation, "exam is not active")
	ErrExamKindMismatch = newError(KindValidation, "operation does not apply to this exam kind")
	ErrNotEnrolled      = newError(KindPermission, "student is not enrolled in a class this exam targets")
	ErrQuestionRange    = newError(KindValidation, "question range is outside the exam")
	ErrDuplicateNumber  = newError(KindValidation, "question numbers must be unique")

	ErrSessionCompleted     = newError(KindSession, "session is already completed")
	ErrSessionNotCompleted  = newError(KindSession, "session is not completed yet")
	ErrSessionExpired       = newError(KindSession, "session time has expired")
	ErrSessionNotOwned      = newError(KindPermission, "session belongs to another student")
	ErrNotPlacementSession  = newError(KindValidation, "only placement sessions can change difficulty")
	ErrUnknownQuestion      = newError(KindValidation, "question does not belong to this exam")
	ErrPointsExceedQuestion = newError(KindValidation, "points exceed the question's value")
	ErrTooManyAdjustments   = newError(KindValidation, "difficulty adjustment limit reached")
	ErrAlreadyAdjusted      = newError(KindConflict, "a follow-up session was already opened from this session")

	ErrUnsupportedFileType = newError(KindFileProcessing, "unsupported file type")
	ErrFileTooLarge        = newError(KindFileProcessing, "file too large")

	ErrUnknownProvider     = newError(KindNotFound, "oauth provider is not configured")
	ErrInvalidOAuthState   = newError(KindValidation, "oauth state is invalid or expired")
	ErrRedirectNotAllowed  = newError(KindValidation, "redirect target is not allowed")
	ErrEmailNotVerified    = newError(KindPermission, "provider email is not verified")
	ErrNoLinkedAccount     = newError(KindPermission, "no account is linked to this login")
	ErrOAuthExchangeFailed = newError(KindValidation, "oauth code exchange failed")
)

// KindOf returns the Kind of err, looking through wrapping and the
// repository and placement sentinels.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, placement.ErrNoPlacementRule),
		errors.Is(err, placement.ErrNoAdjacentLevel),
		errors.Is(err, placement.ErrLevelNotOnLadder):
		return KindNotFound
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, repository.ErrReferenced):
		return KindConflict
	case errors.Is(err, placement.ErrUnknownRank):
		return KindValidation
	}
	return KindInternal
}
