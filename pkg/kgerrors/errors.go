// Package kgerrors classifies pipeline failures so callers can tell a skipped
// record from a stage that must stop.
package kgerrors

import (
	"errors"
	"fmt"
)

// Kind is the failure class of a pipeline error.
type Kind int

const (
	// KindUnknown is any error that was not classified.
	KindUnknown Kind = iota
	// KindMissingFile means an input file is absent; the stage is skipped.
	KindMissingFile
	// KindMalformedGeometry means a ring or feature could not be used; it is dropped.
	KindMalformedGeometry
	// KindCalibrationFailure means no affine transform exists for a map.
	KindCalibrationFailure
	// KindUnresolvedPin means a pin lacks name, type or position; it is skipped.
	KindUnresolvedPin
	// KindAmbiguousContextualMatch means a generic pin fell inside a city but no
	// composite label exists; resolution falls through.
	KindAmbiguousContextualMatch
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindMissingFile:
		return "missing_file"
	case KindMalformedGeometry:
		return "malformed_geometry"
	case KindCalibrationFailure:
		return "calibration_failure"
	case KindUnresolvedPin:
		return "unresolved_pin"
	case KindAmbiguousContextualMatch:
		return "ambiguous_contextual_match"
	default:
		return "unknown"
	}
}

// Fatal reports whether the kind stops the owning stage.
func (k Kind) Fatal() bool {
	return k == KindCalibrationFailure
}

var (
	// ErrMissingFile is the sentinel for KindMissingFile.
	ErrMissingFile = errors.New("input file not found")
	// ErrMalformedGeometry is the sentinel for KindMalformedGeometry.
	ErrMalformedGeometry = errors.New("malformed geometry")
	// ErrCalibration is the sentinel for KindCalibrationFailure.
	ErrCalibration = errors.New("calibration failed")
	// ErrUnresolvedPin is the sentinel for KindUnresolvedPin.
	ErrUnresolvedPin = errors.New("unresolved pin")
	// ErrAmbiguousMatch is the sentinel for KindAmbiguousContextualMatch.
	ErrAmbiguousMatch = errors.New("ambiguous contextual match")
)

var sentinels = map[Kind]error{
	KindMissingFile:              ErrMissingFile,
	KindMalformedGeometry:        ErrMalformedGeometry,
	KindCalibrationFailure:       ErrCalibration,
	KindUnresolvedPin:            ErrUnresolvedPin,
	KindAmbiguousContextualMatch: ErrAmbiguousMatch,
}

// Error wraps a failure with its kind, the stage that produced it and the
// source record it concerns.
type Error struct {
	Kind   Kind
	Stage  string
	Source string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Stage != "" {
		msg = e.Stage + ": " + msg
	}
	if e.Source != "" {
		msg += " (" + e.Source + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// New builds a classified error.
func New(kind Kind, stage, source string, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Source: source, Err: err}
}

// Newf builds a classified error with a formatted cause.
func Newf(kind Kind, stage, source, format string, args ...any) *Error {
	return New(kind, stage, source, fmt.Errorf(format, args...))
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsFatal reports whether err stops its stage.
func IsFatal(err error) bool {
	return err != nil && KindOf(err).Fatal()
}
