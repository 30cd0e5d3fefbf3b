package geometry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// floatEquals is a helper for testing scalar float values with epsilon.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

func TestNormalize(t *testing.T) {
	t.Run("Unit", func(t *testing.T) {
		got := Normalize(mgl64.Vec3{3, 0, 4})
		want := mgl64.Vec3{0.6, 0, 0.8}
		if !Eq(got, want) {
			t.Errorf("Normalize = %s; want %s", Format(got), Format(want))
		}
		if !floatEquals(got.Len(), 1) {
			t.Errorf("Normalize length = %v; want 1", got.Len())
		}
	})

	t.Run("Zero", func(t *testing.T) {
		got := Normalize(Zero)
		if !IsZero(got) {
			t.Errorf("Normalize(0) = %s; want zero vector", Format(got))
		}
	})
}

func TestClampLength(t *testing.T) {
	tests := []struct {
		name string
		v    mgl64.Vec3
		max  float64
		want mgl64.Vec3
	}{
		{"Shorter", mgl64.Vec3{1, 0, 0}, 2, mgl64.Vec3{1, 0, 0}},
		{"Longer", mgl64.Vec3{0, 10, 0}, 2, mgl64.Vec3{0, 2, 0}},
		{"Zero", Zero, 2, Zero},
		{"ZeroMax", mgl64.Vec3{0, 0, 3}, 0, Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampLength(tt.v, tt.max); !Eq(got, tt.want) {
				t.Errorf("ClampLength(%s, %v) = %s; want %s", Format(tt.v), tt.max, Format(got), Format(tt.want))
			}
		})
	}
}

func TestAngleBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b mgl64.Vec3
		want float64
	}{
		{"Same", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{2, 0, 0}, 0},
		{"Orthogonal", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 5}, 90},
		{"Opposite", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{-1, 0, 0}, 180},
		{"Null", Zero, mgl64.Vec3{0, 1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AngleBetween(tt.a, tt.b); !floatEquals(got, tt.want) {
				t.Errorf("AngleBetween = %v; want %v", got, tt.want)
			}
		})
	}
}

func TestLerp(t *testing.T) {
	got := Lerp(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{10, 10, 10}, 0.5)
	want := mgl64.Vec3{5, 5, 5}
	if !Eq(got, want) {
		t.Errorf("Lerp(0.5) = %s; want %s", Format(got), Format(want))
	}
}

func TestAlignAxis(t *testing.T) {
	dirs := []mgl64.Vec3{
		{0, 0, 1},
		{0, 0, -1},
		{1, 0, 0},
		{0, -3, 0},
		{1, 2, -2},
	}

	for _, dir := range dirs {
		t.Run(Format(dir), func(t *testing.T) {
			q := AlignAxis(Forward, dir)
			got := q.Rotate(Forward)
			want := Normalize(dir)
			if !got.ApproxEqualThreshold(want, 1e-6) {
				t.Errorf("AlignAxis(Forward, %s) rotates Forward to %s; want %s", Format(dir), Format(got), Format(want))
			}
		})
	}

	t.Run("NullDirection", func(t *testing.T) {
		q := AlignAxis(Forward, Zero)
		if got := q.Rotate(Forward); !Eq(got, Forward) {
			t.Errorf("AlignAxis with null direction should be identity, got %s", Format(got))
		}
	})
}

func TestEq(t *testing.T) {
	v := mgl64.Vec3{1, 2, 3}

	if !Eq(v, mgl64.Vec3{1, 2, 3}) {
		t.Error("Eq exact match failed")
	}
	if !Eq(v, mgl64.Vec3{1 + Epsilon/2, 2, 3 - Epsilon/2}) {
		t.Error("Eq epsilon match failed")
	}
	if Eq(v, mgl64.Vec3{1.1, 2, 3}) {
		t.Error("Eq mismatch failed")
	}
}

func TestFormat(t *testing.T) {
	want := "(1.23, 5.68, -1.00)"
	if got := Format(mgl64.Vec3{1.234, 5.678, -1}); got != want {
		t.Errorf("Format = %q; want %q", got, want)
	}
}
