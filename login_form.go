package careauth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// LoginFunc is the submission target of a LoginForm, normally
// SessionContext.Login.
type LoginFunc func(ctx context.Context, email, password string) Outcome[SessionUser]

// LoginForm orchestrates input validation and submission for the login use
// case. Field validation runs synchronously before submission; an invalid
// form never reaches the Auth Actions. The form keeps no error state of its
// own beyond field errors: envelope failures surface through the Session
// Context.
type LoginForm struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`

	login       LoginFunc
	fieldErrors map[string]string
	submitting  bool
}

// NewLoginForm returns a new LoginForm
func NewLoginForm(login LoginFunc) *LoginForm {
	if login == nil {
		panic("careauth: missing login func in login form")
	}
	return &LoginForm{
		login:       login,
		fieldErrors: map[string]string{},
	}
}

// Validate will run validation rules
func (f *LoginForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(
			&f.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&f.Password,
			validation.Required,
			validation.Length(6, 0),
		),
	)
}

// FieldErrors returns per-field validation messages from the last submit.
func (f *LoginForm) FieldErrors() map[string]string {
	out := make(map[string]string, len(f.fieldErrors))
	for k, v := range f.fieldErrors {
		out[k] = v
	}
	return out
}

// Submitting reports whether a submission round trip is in flight.
func (f *LoginForm) Submitting() bool {
	return f.submitting
}

// Submit validates the form and, when valid, invokes login exactly once.
// onSuccess runs only for a successful envelope. The submitting flag is
// cleared on every exit path, panics included.
func (f *LoginForm) Submit(ctx context.Context, onSuccess func(*SessionUser)) bool {
	f.fieldErrors = map[string]string{}

	if err := f.Validate(); err != nil {
		f.fieldErrors = formatFieldErrors(err)
		return false
	}

	f.submitting = true
	defer func() { f.submitting = false }()

	out := f.login(ctx, f.Email, f.Password)
	if !out.Success {
		return false
	}

	if onSuccess != nil {
		onSuccess(out.Data)
	}

	return true
}

func formatFieldErrors(err error) map[string]string {
	out := map[string]string{}

	if fieldErrs, ok := err.(validation.Errors); ok {
		for field, ferr := range fieldErrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["form"] = err.Error()
	return out
}
