// service/reservation/errors.go
package reservationsvc

import "errors"

// errors used by controllers

type ErrCode string

const (
	// Bad or missing input; terminal, no retry.
	ErrValidation ErrCode = "VALIDATION"
	// Requested date is inside the lead-time window; terminal.
	ErrLeadTime ErrCode = "LEAD_TIME"
	// Resource unavailable, whether a resolver saw it coming or the
	// exclusion constraint caught a race at insert time. Callers get one
	// kind for both: pick another date.
	ErrConflict ErrCode = "CONFLICT"
	ErrNotFound ErrCode = "NOT_FOUND"
	// A collaborator (database, payment, promo) failed transiently.
	ErrDependency ErrCode = "DEPENDENCY"
	// An internal invariant broke; always logged with context.
	ErrIntegrity ErrCode = "INTEGRITY"
)

type codedError struct {
	code ErrCode
	msg  string
}

func (e codedError) Error() string {
	if e.msg == "" {
		return string(e.code)
	}
	return e.msg
}
func (e codedError) Code() ErrCode { return e.code }

func makeErr(c ErrCode, msg string) error { return codedError{code: c, msg: msg} }

// Code extracts the error code, or "" for uncoded errors.
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}
