package careauth

// ErrorInfo is the public error payload carried by a failed Outcome.
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Outcome is the uniform result envelope returned by every Auth Action.
// Invariants, enforced by the constructors: success implies no Error,
// failure implies no Data.
type Outcome[T any] struct {
	Success bool       `json:"success"`
	Data    *T         `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Message string     `json:"message,omitempty"`
}

// OK builds a successful envelope.
func OK[T any](data *T, message ...string) Outcome[T] {
	out := Outcome[T]{Success: true, Data: data}
	if len(message) > 0 {
		out.Message = message[0]
	}
	return out
}

// Fail builds a failed envelope with an explicit taxonomy code.
func Fail[T any](code ErrorCode, message string) Outcome[T] {
	return Outcome[T]{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	}
}

// FailFromError builds a failed envelope by resolving err through the
// taxonomy. This is the only place backend errors become user-facing.
func FailFromError[T any](err error) Outcome[T] {
	code, message := CodeFromError(err)
	return Fail[T](code, message)
}

// ErrorMessage returns the user-facing message, empty on success.
func (o Outcome[T]) ErrorMessage() string {
	if o.Error == nil {
		return ""
	}
	return o.Error.Message
}

// ErrorCode returns the taxonomy code, empty on success.
func (o Outcome[T]) ErrorCode() ErrorCode {
	if o.Error == nil {
		return ""
	}
	return o.Error.Code
}
