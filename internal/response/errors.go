package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrAccountDisabled    ErrCode = "ACCOUNT_DISABLED"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── OAuth ─────────────────────────────────────────────────────────
	ErrUnknownProvider     ErrCode = "UNKNOWN_PROVIDER"
	ErrInvalidOAuthState   ErrCode = "INVALID_OAUTH_STATE"
	ErrRedirectNotAllowed  ErrCode = "REDIRECT_NOT_ALLOWED"
	ErrEmailNotVerified    ErrCode = "EMAIL_NOT_VERIFIED"
	ErrNoLinkedAccount     ErrCode = "NO_LINKED_ACCOUNT"
	ErrOAuthExchangeFailed ErrCode = "OAUTH_EXCHANGE_FAILED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrPermissionDenied  ErrCode = "PERMISSION_DENIED"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"
	ErrSystemRole        ErrCode = "SYSTEM_ROLE"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"
	ErrActionForbidden  ErrCode = "ACTION_FORBIDDEN"

	// ─── Placement ─────────────────────────────────────────────────────
	ErrNoPlacementRule ErrCode = "NO_PLACEMENT_RULE"
	ErrNoExamForLevel  ErrCode = "NO_EXAM_FOR_LEVEL"
	ErrNoAdjacentLevel ErrCode = "NO_ADJACENT_LEVEL"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrExamNotAvailable ErrCode = "EXAM_NOT_AVAILABLE"
	ErrNotEnrolled      ErrCode = "NOT_ENROLLED"
	ErrExamKindMismatch ErrCode = "EXAM_KIND_MISMATCH"

	// ─── Sessions ──────────────────────────────────────────────────────
	ErrSessionCompleted    ErrCode = "SESSION_COMPLETED"
	ErrSessionNotCompleted ErrCode = "SESSION_NOT_COMPLETED"
	ErrSessionExpired      ErrCode = "SESSION_EXPIRED"
	ErrSessionNotOwned     ErrCode = "SESSION_NOT_OWNED"
	ErrTooManyAdjustments  ErrCode = "TOO_MANY_ADJUSTMENTS"
	ErrAlreadyAdjusted     ErrCode = "ALREADY_ADJUSTED"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Incorrect email, student code or password."
	case ErrAccountDisabled:
		return "This account has been disabled."
	case ErrSessionActive:
		return "You are already signed in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── OAuth ─────────────────────────────────────────────────────────
	case ErrUnknownProvider:
		return "This sign-in provider is not available."
	case ErrInvalidOAuthState:
		return "The sign-in request is invalid or has expired. Please try again."
	case ErrRedirectNotAllowed:
		return "The redirect address is not allowed."
	case ErrEmailNotVerified:
		return "The provider account has no verified email."
	case ErrNoLinkedAccount:
		return "No PrimePath account is linked to this sign-in."
	case ErrOAuthExchangeFailed:
		return "The sign-in provider rejected the request."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have access to this resource."
	case ErrPermissionDenied:
		return "Permission denied."
	case ErrStudentAccessOnly:
		return "This resource is limited to students."
	case ErrTeacherAccessOnly:
		return "This resource is limited to teachers."
	case ErrSystemRole:
		return "System roles cannot be changed."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrDependencyExists:
		return "The record is still used by other data and cannot be deleted."
	case ErrActionForbidden:
		return "This action is not allowed."

	// ─── Placement ─────────────────────────────────────────────────────
	case ErrNoPlacementRule:
		return "No placement rule matches this grade and rank."
	case ErrNoExamForLevel:
		return "No active exam is available for this level."
	case ErrNoAdjacentLevel:
		return "There is no level in that direction."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrExamNotAvailable:
		return "This exam is not available right now."
	case ErrNotEnrolled:
		return "You are not enrolled in a class that takes this exam."
	case ErrExamKindMismatch:
		return "This operation does not apply to this kind of exam."

	// ─── Sessions ──────────────────────────────────────────────────────
	case ErrSessionCompleted:
		return "This exam session is already completed."
	case ErrSessionNotCompleted:
		return "This exam session is not completed yet."
	case ErrSessionExpired:
		return "The time for this exam session has run out."
	case ErrSessionNotOwned:
		return "This exam session belongs to someone else."
	case ErrTooManyAdjustments:
		return "The difficulty cannot be changed again."
	case ErrAlreadyAdjusted:
		return "A follow-up test was already started from this one."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type."
	case ErrFileTooLarge:
		return "The file exceeds the size limit."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
