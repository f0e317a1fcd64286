package outline

import "testing"

func TestPathStringMatchesSpecGrammar(t *testing.T) {
	p := &Path{}
	p.MoveTo(813, 2324)
	p.LineTo(317, 2324)
	p.LineTo(72, 2789)
	p.ClosePath()

	got := p.String()
	want := "M 813 2324 L 317 2324 L 72 2789 z"
	if got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestPathStringAllVerbs(t *testing.T) {
	p := &Path{}
	p.MoveTo(0, 0)
	p.QuadTo(1, 2, 3, 4)
	p.CubicTo(5, 6, 7, 8, 9, 10)
	p.ClosePath()

	want := "M 0 0 Q 1 2 3 4 C 5 6 7 8 9 10 z"
	if got := p.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestPathStringTrimsTrailingZeros(t *testing.T) {
	p := &Path{}
	p.MoveTo(1.5, 2.0)
	if got, want := p.String(), "M 1.5 2"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestScaleComposesMultiplicatively(t *testing.T) {
	p1 := &Path{}
	p1.MoveTo(10, 20)
	p1.LineTo(30, 40)
	p1.Scale(2)
	p1.Scale(3)

	p2 := &Path{}
	p2.MoveTo(10, 20)
	p2.LineTo(30, 40)
	p2.Scale(6)

	if p1.String() != p2.String() {
		t.Fatalf("Scale(2).Scale(3) = %q, want Scale(6) = %q", p1.String(), p2.String())
	}
}

func TestTranslateComposesAdditively(t *testing.T) {
	p1 := &Path{}
	p1.MoveTo(10, 20)
	p1.Translate(1, 2)
	p1.Translate(3, 4)

	p2 := &Path{}
	p2.MoveTo(10, 20)
	p2.Translate(4, 6)

	if p1.String() != p2.String() {
		t.Fatalf("translate composition mismatch: %q vs %q", p1.String(), p2.String())
	}
}

func TestBoundsEmptyPath(t *testing.T) {
	p := &Path{}
	if _, _, _, _, ok := p.Bounds(); ok {
		t.Fatal("Bounds() on an empty path should report ok=false")
	}
}

func TestBounds(t *testing.T) {
	p := &Path{}
	p.MoveTo(5, -5)
	p.LineTo(-10, 20)
	p.LineTo(15, 3)
	minX, minY, maxX, maxY, ok := p.Bounds()
	if !ok {
		t.Fatal("expected ok=true for a non-empty path")
	}
	if minX != -10 || minY != -5 || maxX != 15 || maxY != 20 {
		t.Fatalf("Bounds() = (%v,%v,%v,%v), want (-10,-5,15,20)", minX, minY, maxX, maxY)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := &Path{}
	p.MoveTo(1, 1)
	clone := p.Clone()
	clone.Scale(10)
	if p.String() == clone.String() {
		t.Fatal("mutating a clone should not affect the original")
	}
	if clone.String() != "M 10 10" {
		t.Fatalf("clone.String() = %q", clone.String())
	}
	if p.String() != "M 1 1" {
		t.Fatalf("original mutated: %q", p.String())
	}
}

func TestEmpty(t *testing.T) {
	p := &Path{}
	if !p.Empty() {
		t.Fatal("fresh path should be empty")
	}
	p.MoveTo(0, 0)
	if p.Empty() {
		t.Fatal("path with a command should not be empty")
	}
}
