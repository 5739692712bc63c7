package kgerrors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "Full",
			err:  New(KindMissingFile, "geo", "roads.json", fs.ErrNotExist),
			want: "geo: missing_file (roads.json): file does not exist",
		},
		{
			name: "NoStageNoSource",
			err:  New(KindUnresolvedPin, "", "", nil),
			want: "unresolved_pin",
		},
		{
			name: "Formatted",
			err:  Newf(KindCalibrationFailure, "calibrate", "NO", "need at least %d control points", 3),
			want: "calibrate: calibration_failure (NO): need at least 3 control points",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_IsAndUnwrap(t *testing.T) {
	err := fmt.Errorf("stage failed: %w", New(KindMissingFile, "wiki", "dump.xml", fs.ErrNotExist))

	if !errors.Is(err, ErrMissingFile) {
		t.Error("expected the kind sentinel to match")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("expected the wrapped cause to match")
	}
	if errors.Is(err, ErrCalibration) {
		t.Error("unexpected match of another kind's sentinel")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"Nil", nil, KindUnknown},
		{"Plain", errors.New("boom"), KindUnknown},
		{"Direct", New(KindMalformedGeometry, "geo", "", nil), KindMalformedGeometry},
		{"Wrapped", fmt.Errorf("x: %w", New(KindUnresolvedPin, "", "", nil)), KindUnresolvedPin},
		{"Joined", errors.Join(errors.New("a"), New(KindCalibrationFailure, "", "", nil)), KindCalibrationFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	for k := KindUnknown; k <= KindAmbiguousContextualMatch; k++ {
		want := k == KindCalibrationFailure
		if got := IsFatal(New(k, "", "", nil)); got != want {
			t.Errorf("IsFatal(%v) = %v, want %v", k, got, want)
		}
	}
	if IsFatal(nil) {
		t.Error("IsFatal(nil) = true")
	}
}
