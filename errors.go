package careauth

import (
	"github.com/goliatone/go-errors"
)

// ErrorCode is the closed, user-facing taxonomy every Auth Action maps its
// failures into. Backend-specific error shapes never cross this boundary.
type ErrorCode string

const (
	CodeInvalidCredentials ErrorCode = "invalid-credentials"
	CodeAccountInactive    ErrorCode = "account-inactive"
	CodeAccountDisabled    ErrorCode = "account-disabled"
	CodeRateLimited        ErrorCode = "rate-limited"
	CodeForbidden          ErrorCode = "forbidden"
	CodeNotFound           ErrorCode = "not-found"
	CodeTenantNotFound     ErrorCode = "tenant-not-found"
	CodeDuplicateEmail     ErrorCode = "duplicate-email"
	CodeWeakPassword       ErrorCode = "weak-password"
	CodeInvalidEmail       ErrorCode = "invalid-email"
	CodeUnknown            ErrorCode = "unknown"
)

const (
	TextCodeInvalidCreds     = "invalid_credentials"
	TextCodeAccountInactive  = "account_inactive"
	TextCodeAccountDisabled  = "account_disabled"
	TextCodeTooManyAttempts  = "too_many_attempts"
	TextCodeForbidden        = "forbidden"
	TextCodeIdentityNotFound = "identity_not_found"
	TextCodeTenantNotFound   = "tenant_not_found"
	TextCodeEmailExists      = "email_exists"
	TextCodeWeakPassword     = "weak_password"
	TextCodeInvalidEmail     = "invalid_email"
	TextCodeEmptyPassword    = "empty_password"
)

// ErrMismatchedHashAndPassword is returned when a credential check fails.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrAccountInactive is returned when the Identity Record's active flag is off.
var ErrAccountInactive = errors.New("this account has been deactivated", errors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(errors.CodeForbidden)

// ErrAccountDisabled is returned when the identity store reports a disabled credential.
var ErrAccountDisabled = errors.New("this account has been disabled", errors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(errors.CodeForbidden)

// ErrTooManyLoginAttempts is returned when login throttling kicks in.
var ErrTooManyLoginAttempts = errors.New("too many sign-in attempts, try again later", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrForbidden is returned when an authorization precondition fails.
var ErrForbidden = errors.New("you do not have permission to perform this action", errors.CategoryAuth).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrTenantNotFound is returned when the target company does not exist.
var ErrTenantNotFound = errors.New("company not found", errors.CategoryNotFound).
	WithTextCode(TextCodeTenantNotFound).
	WithCode(errors.CodeNotFound)

// ErrEmailAlreadyExists is returned when a credential already exists for the email.
var ErrEmailAlreadyExists = errors.New("a user with this email already exists", errors.CategoryConflict).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeConflict)

// ErrWeakPassword is returned when a password fails the backend policy.
var ErrWeakPassword = errors.New("password does not meet the minimum requirements", errors.CategoryValidation).
	WithTextCode(TextCodeWeakPassword).
	WithCode(errors.CodeBadRequest)

// ErrInvalidEmail is returned for malformed email addresses.
var ErrInvalidEmail = errors.New("the email address is not valid", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidEmail).
	WithCode(errors.CodeBadRequest)

// ErrNoEmptyString guards hash helpers against empty passwords.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// textCodeTaxonomy maps internal text codes to the public taxonomy.
var textCodeTaxonomy = map[string]ErrorCode{
	TextCodeInvalidCreds:     CodeInvalidCredentials,
	TextCodeAccountInactive:  CodeAccountInactive,
	TextCodeAccountDisabled:  CodeAccountDisabled,
	TextCodeTooManyAttempts:  CodeRateLimited,
	TextCodeForbidden:        CodeForbidden,
	TextCodeIdentityNotFound: CodeNotFound,
	TextCodeTenantNotFound:   CodeTenantNotFound,
	TextCodeEmailExists:      CodeDuplicateEmail,
	TextCodeWeakPassword:     CodeWeakPassword,
	TextCodeInvalidEmail:     CodeInvalidEmail,
	TextCodeEmptyPassword:    CodeWeakPassword,
}

// CodeFromError resolves any error into the taxonomy plus a user-facing
// message. Structured errors with an unrecognized text code pass through
// code and message untouched; everything else degrades to unknown.
func CodeFromError(err error) (ErrorCode, string) {
	if err == nil {
		return CodeUnknown, ""
	}

	var rich *errors.Error
	if errors.As(err, &rich) {
		if code, ok := textCodeTaxonomy[rich.TextCode]; ok {
			return code, rich.Message
		}

		if rich.TextCode != "" {
			return ErrorCode(rich.TextCode), rich.Message
		}

		switch rich.Category {
		case errors.CategoryNotFound:
			return CodeNotFound, rich.Message
		case errors.CategoryRateLimit:
			return CodeRateLimited, rich.Message
		case errors.CategoryAuth:
			return CodeInvalidCredentials, rich.Message
		}

		return CodeUnknown, rich.Message
	}

	return CodeUnknown, err.Error()
}

// IsRateLimited will check for throttling errors
func IsRateLimited(err error) bool {
	code, _ := CodeFromError(err)
	return code == CodeRateLimited
}
