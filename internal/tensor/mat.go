package tensor

import (
	"gonum.org/v1/gonum/mat"
)

// Mat represents a dense row‑major matrix of float64 values.
//
// R and C represent the number of rows and columns respectively.  Stride is the
// number of elements between the starts of two consecutive rows (for row‑major
// matrices this is equal to C).  Data holds the flattened matrix values.
//
// Mat does not perform any memory safety beyond the checks performed by Go's
// slice types; out‑of‑range indices will panic.
type Mat struct {
	R, C   int
	Stride int
	Data   []float64
}

// NewMat allocates a new matrix with the given number of rows and columns.
// The underlying slice is zero initialised.  The stride is set to the
// number of columns.
func NewMat(r, c int) Mat {
	if r < 0 || c < 0 {
		panic("negative dimension for matrix")
	}
	return Mat{
		R:      r,
		C:      c,
		Stride: c,
		Data:   make([]float64, r*c),
	}
}

// NewMatFromData creates a matrix from existing data.
// It checks that the data length matches r*c.
func NewMatFromData(r, c int, data []float64) Mat {
	if r*c != len(data) {
		panic("data length mismatch")
	}
	return Mat{
		R:      r,
		C:      c,
		Stride: c,
		Data:   data,
	}
}

// FromMatrix copies any gonum matrix into a freshly allocated Mat.
// Dense inputs with a packed stride are copied with a single copy call.
func FromMatrix(a mat.Matrix) Mat {
	r, c := a.Dims()
	m := NewMat(r, c)
	if rm, ok := a.(mat.RawMatrixer); ok {
		raw := rm.RawMatrix()
		if raw.Stride == c {
			copy(m.Data, raw.Data[:r*c])
			return m
		}
		for i := 0; i < r; i++ {
			copy(m.Data[i*c:(i+1)*c], raw.Data[i*raw.Stride:i*raw.Stride+c])
		}
		return m
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.Set(i, j, a.At(i, j))
		}
	}
	return m
}

// AsMat returns a Mat sharing a's storage when a is packed row-major dense
// data, and a copy otherwise. Callers must treat the result as read-only.
func AsMat(a mat.Matrix) Mat {
	r, c := a.Dims()
	if rm, ok := a.(mat.RawMatrixer); ok {
		raw := rm.RawMatrix()
		if raw.Stride == c && len(raw.Data) >= r*c {
			return NewMatFromData(r, c, raw.Data[:r*c])
		}
	}
	return FromMatrix(a)
}

// Dense returns a gonum view over the matrix. The view shares Data, so the
// caller hands over ownership when returning it.
func (m *Mat) Dense() *mat.Dense {
	if m.R == 0 || m.C == 0 {
		// gonum rejects zero-sized dimensions.
		return &mat.Dense{}
	}
	return mat.NewDense(m.R, m.C, m.Data[:m.R*m.Stride])
}

// Row returns a view of the i‑th row of the matrix as a slice.  The slice
// has length equal to the number of columns.  Modifications to the returned
// slice update the underlying matrix values.
func (m *Mat) Row(i int) []float64 {
	if i < 0 || i >= m.R {
		panic("row index out of range")
	}
	start := i * m.Stride
	return m.Data[start : start+m.C]
}

// Set stores v at row i, column j.
func (m *Mat) Set(i, j int, v float64) {
	m.Data[i*m.Stride+j] = v
}
