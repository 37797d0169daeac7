package findings

import (
	"testing"
)

func TestSpanLines(t *testing.T) {
	tests := []struct {
		span Span
		want int
	}{
		{Span{StartLine: 1, EndLine: 1}, 1},
		{Span{StartLine: 10, EndLine: 14}, 5},
		{Span{StartLine: 5, EndLine: 4}, 0},
	}
	for _, tt := range tests {
		if got := tt.span.Lines(); got != tt.want {
			t.Errorf("Lines(%+v) = %d, want %d", tt.span, got, tt.want)
		}
	}
}

func TestSpanUnion(t *testing.T) {
	a := Span{StartLine: 10, EndLine: 20}
	b := Span{StartLine: 15, EndLine: 30}

	got := a.Union(b)
	want := Span{StartLine: 10, EndLine: 30}
	if got != want {
		t.Errorf("Union = %+v, want %+v", got, want)
	}
	if got := b.Union(a); got != want {
		t.Errorf("Union is not symmetric: %+v, want %+v", got, want)
	}
}

func TestSpanOverlapFraction(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want float64
	}{
		{"identical", Span{1, 10}, Span{1, 10}, 1.0},
		{"disjoint", Span{1, 10}, Span{20, 30}, 0},
		{"adjacent", Span{1, 10}, Span{11, 20}, 0},
		{"contained", Span{1, 100}, Span{40, 49}, 1.0},
		{"half of smaller", Span{1, 10}, Span{6, 15}, 0.5},
		{"single line shared", Span{5, 5}, Span{1, 10}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.OverlapFraction(tt.b); got != tt.want {
				t.Errorf("OverlapFraction(%+v, %+v) = %f, want %f", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.OverlapFraction(tt.a); got != tt.want {
				t.Errorf("OverlapFraction is not symmetric for %s: %f, want %f", tt.name, got, tt.want)
			}
		})
	}
}

func TestHasDetector(t *testing.T) {
	f := Reconciled{Detectors: []Detector{DetectorPattern, DetectorVerifier}}
	if !f.HasDetector(DetectorPattern) {
		t.Error("expected pattern detector to be present")
	}
	if f.HasDetector(DetectorReviewer) {
		t.Error("expected reviewer detector to be absent")
	}
}
