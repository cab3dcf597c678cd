package coords

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMultiplyTranslateScale(t *testing.T) {
	m := Scale(2, 3).Multiply(Translate(10, 20))
	p := m.Transform(Point{X: 1, Y: 1})
	if !near(p.X, 12) || !near(p.Y, 23) {
		t.Fatalf("got %+v", p)
	}
}

func TestInverseRoundTrip(t *testing.T) {
	m := Rotate(math.Pi / 3).Multiply(Translate(5, -7)).Multiply(Scale(2, 2))
	inv, err := m.Inverse()
	if err != nil {
		t.Fatal(err)
	}
	p := Point{X: 3, Y: 4}
	back := inv.Transform(m.Transform(p))
	if !near(back.X, p.X) || !near(back.Y, p.Y) {
		t.Fatalf("round trip %+v -> %+v", p, back)
	}
}

func TestInverseSingular(t *testing.T) {
	if _, err := (Matrix{0, 0, 0, 0, 1, 2}).Inverse(); err == nil {
		t.Fatal("expected singular matrix error")
	}
}

func TestNormalized(t *testing.T) {
	m := Matrix{-2.5, 0, 0, 4, 100, 200}.Normalized()
	want := Matrix{-1, 0, 0, 1, 100, 200}
	if m != want {
		t.Fatalf("got %v, want %v", m, want)
	}
}

func TestComposeNormalizedReflectsOrigin(t *testing.T) {
	// a flipped coordinate system lands the origin negative; composition
	// folds it back into the positive quadrant
	base := Matrix{1, 0, 0, -1, 0, 850}
	m := Matrix{1, 0, 0, 1, 50, -900}
	r := ComposeNormalized(base, m)
	if r[4] < 0 || r[5] < 0 {
		t.Fatalf("origin still negative: %v", r)
	}
}
