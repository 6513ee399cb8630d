package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"classified", New(NotFound, base), NotFound},
		{"wrapped classified", fmt.Errorf("step failed: %w", New(Upstream, base)), Upstream},
		{"unclassified", base, Internal},
		{"formatted", Newf(Configuration, "bad key %q", "x"), Configuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	base := errors.New("boom")
	if !errors.Is(New(Upstream, base), base) {
		t.Fatal("classified error must unwrap to its cause")
	}
}
