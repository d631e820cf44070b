package tensor

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestFromMatrixCopiesDense(t *testing.T) {
	t.Parallel()
	src := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	m := FromMatrix(src)
	if m.R != 2 || m.C != 3 || m.Stride != 3 {
		t.Fatalf("unexpected shape %dx%d stride %d", m.R, m.C, m.Stride)
	}
	src.Set(0, 0, 100)
	if m.Row(0)[0] != 1 {
		t.Fatalf("FromMatrix must copy, got %v", m.Row(0)[0])
	}
	if got := m.Row(1); got[2] != 6 {
		t.Fatalf("row 1: %v", got)
	}
}

func TestFromMatrixTransposeAndSlice(t *testing.T) {
	t.Parallel()
	src := mat.NewDense(3, 4, []float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
	})
	// Slice produces a strided view.
	view := src.Slice(1, 3, 1, 3)
	m := FromMatrix(view)
	want := []float64{6, 7, 10, 11}
	for i, v := range want {
		if m.Data[i] != v {
			t.Fatalf("strided copy: got %v want %v", m.Data, want)
		}
	}

	tr := FromMatrix(src.T())
	if tr.R != 4 || tr.C != 3 || tr.Row(3)[2] != 12 || tr.Row(0)[1] != 5 {
		t.Fatalf("transpose copy wrong: %v", tr.Data)
	}
}

func TestDenseSharesData(t *testing.T) {
	t.Parallel()
	m := NewMat(2, 2)
	d := m.Dense()
	d.Set(1, 1, 3)
	if m.Row(1)[1] != 3 {
		t.Fatal("Dense view should share backing data")
	}
}

func TestNewMatFromDataMismatchPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	NewMatFromData(2, 2, make([]float64, 3))
}

func TestRelError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a, b, want float64
	}{
		{0, 0, 0},
		{1, 1, 0},
		{1, 3, 0.5},
		{1e-12, 0, 1e-4},
	}
	for _, tc := range tests {
		if got := RelError(tc.a, tc.b); math.Abs(got-tc.want) > 1e-15 {
			t.Errorf("RelError(%g, %g) = %g, want %g", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestFeaturesWideMatchesArch(t *testing.T) {
	t.Parallel()
	f := Features()
	if f.Wide && !f.HasAVX2 && !f.HasASIMD {
		t.Fatalf("wide kernels selected without vector support: %+v", f)
	}
}

func TestAsMatSharesPackedDense(t *testing.T) {
	t.Parallel()
	src := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	m := AsMat(src)
	src.Set(0, 1, 9)
	if m.Row(0)[1] != 9 {
		t.Fatal("AsMat should share packed dense storage")
	}

	view := AsMat(src.Slice(0, 2, 1, 2))
	src.Set(1, 1, 7)
	if view.Row(1)[0] == 7 {
		t.Fatal("AsMat should copy strided views")
	}
}
