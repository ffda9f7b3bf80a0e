package reg

import "fmt"

// ErrorKind classifies failures raised by registers and features.
type ErrorKind int

const (
	// RangeError means a value or index is outside its documented domain,
	// e.g. a field value wider than the field or a GPIO number above 53.
	RangeError ErrorKind = iota + 1
	// DomainError means a feature isn't available on the platform, or an
	// operation doesn't make sense in the register's current state.
	DomainError
)

func (k ErrorKind) String() string {
	switch k {
	case RangeError:
		return "range error"
	case DomainError:
		return "domain error"
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// Error is the error type returned by reg and by the feature packages built on it.
type Error struct {
	Kind ErrorKind
	Msg  string
}

var (
	// ErrRange matches any RangeError with errors.Is.
	ErrRange = &Error{Kind: RangeError}
	// ErrDomain matches any DomainError with errors.Is.
	ErrDomain = &Error{Kind: DomainError}
)

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Msg
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Rangef returns a RangeError with a formatted message.
func Rangef(format string, args ...interface{}) error {
	return &Error{Kind: RangeError, Msg: fmt.Sprintf(format, args...)}
}

// Domainf returns a DomainError with a formatted message.
func Domainf(format string, args ...interface{}) error {
	return &Error{Kind: DomainError, Msg: fmt.Sprintf(format, args...)}
}
