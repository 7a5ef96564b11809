package sm2

// ErrorKind identifies a kind of error. It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind
// when determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrInvalidPoint is returned when a point fails the curve equation,
	// has coordinates outside the field, or lies in a small subgroup.
	ErrInvalidPoint = ErrorKind("ErrInvalidPoint")

	// ErrOutOfRange is returned when a scalar, key or signature component
	// lies outside its required interval.
	ErrOutOfRange = ErrorKind("ErrOutOfRange")

	// ErrNoInverse is returned when a value has no multiplicative inverse
	// modulo the field or group order.
	ErrNoInverse = ErrorKind("ErrNoInverse")

	// ErrZeroTangent is returned when doubling a point whose y coordinate
	// is zero.
	ErrZeroTangent = ErrorKind("ErrZeroTangent")

	// ErrSigningExhausted is returned when signing could not find an
	// acceptable nonce within the configured retry bound.
	ErrSigningExhausted = ErrorKind("ErrSigningExhausted")

	// ErrFaultDetected is returned when redundant signature computations
	// disagree or a produced signature fails self-verification.
	ErrFaultDetected = ErrorKind("ErrFaultDetected")

	// ErrInvalidEncoding is returned when a point, key or signature
	// encoding is malformed.
	ErrInvalidEncoding = ErrorKind("ErrInvalidEncoding")

	// ErrUnknownCurve is returned when a curve name is not registered.
	ErrUnknownCurve = ErrorKind("ErrUnknownCurve")

	// ErrUnknownHash is returned when a hash name is not registered.
	ErrUnknownHash = ErrorKind("ErrUnknownHash")

	// ErrInvalidParams is returned when curve or scheme parameters are
	// inconsistent.
	ErrInvalidParams = ErrorKind("ErrInvalidParams")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies an error related to the SM2 engine. It has full support
// for errors.Is and errors.As, so the caller can ascertain the specific
// reason for the error by checking the underlying error.
type Error struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// MakeError creates an Error given a set of arguments.
func MakeError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}
