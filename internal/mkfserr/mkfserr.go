// Package mkfserr defines the error taxonomy used across the mkfs.xfs core.
//
// Every fatal condition is classified into one of the Kinds below so the
// command-line front end can decide, in one place, whether a failure is
// fatal or only a warning (see cmd/mkfsxfs).
package mkfserr

import "github.com/pkg/errors"

// Kind classifies a failure the way §7 of the specification does: by
// recovery behaviour, not by Go type.
type Kind int

const (
	// ParseSyntax covers a literal that could not be tokenized at all.
	ParseSyntax Kind = iota
	// RangeViolation covers a value outside a suboption's declared bounds.
	RangeViolation
	// PowerOfTwoViolation covers a value that must be, and isn't, a power of two.
	PowerOfTwoViolation
	// Respecified covers a suboption written more than once.
	Respecified
	// Conflict covers two suboptions that may never both be set.
	Conflict
	// RequiredValueMissing covers a suboption written as a bare flag when it needs "=value".
	RequiredValueMissing
	// TopologyMismatch is a warning, not a fatal error; device and user disagree.
	TopologyMismatch
	// DeviceError covers stat/open/read/write failures on a backing store.
	DeviceError
	// GeometryImpossible covers a geometry that cannot be made self-consistent.
	GeometryImpossible
	// OverwriteRefused covers a detected foreign filesystem signature without -f/-C.
	OverwriteRefused
	// DiscardFailed is a warning; TRIM/DISCARD is a pure optimization.
	DiscardFailed
	// StripePairIncomplete covers sunit/swidth or su/sw given one without the other.
	StripePairIncomplete
	// LogTooLargeForAG covers a stripe-aligned log that no longer fits its AG.
	LogTooLargeForAG
)

func (k Kind) String() string {
	switch k {
	case ParseSyntax:
		return "ParseSyntax"
	case RangeViolation:
		return "RangeViolation"
	case PowerOfTwoViolation:
		return "PowerOfTwoViolation"
	case Respecified:
		return "Respecified"
	case Conflict:
		return "Conflict"
	case RequiredValueMissing:
		return "RequiredValueMissing"
	case TopologyMismatch:
		return "TopologyMismatch"
	case DeviceError:
		return "DeviceError"
	case GeometryImpossible:
		return "GeometryImpossible"
	case OverwriteRefused:
		return "OverwriteRefused"
	case DiscardFailed:
		return "DiscardFailed"
	case StripePairIncomplete:
		return "StripePairIncomplete"
	case LogTooLargeForAG:
		return "LogTooLargeForAG"
	default:
		return "Unknown"
	}
}

// Fatal reports whether errors of this kind must terminate the process.
// TopologyMismatch and DiscardFailed are the only two advisory kinds.
func (k Kind) Fatal() bool {
	return k != TopologyMismatch && k != DiscardFailed
}

// Error is a classified, wrapped error. The wrapped cause is preserved so
// errors.Cause/errors.Unwrap keep working for callers that only care about
// the underlying failure.
type Error struct {
	Kind Kind
	Msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.Msg + ": " + e.err.Error()
	}
	return e.Msg
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.err }

// New creates a classified error with no wrapped cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf is New with fmt-style formatting.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: errors.Errorf(format, args...).Error()}
}

// Wrap classifies an existing error, keeping it as the cause.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, err: err}
}

// As reports whether err (or something it wraps) is a *Error, returning it.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
