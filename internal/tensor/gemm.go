package tensor

import (
	"runtime"
)

// Tile sizes are variables to allow test-time sweeps without recompilation.
const (
	defaultTileM = 32
	defaultTileN = 64
	defaultTileK = 16

	maxTileM = 64
	maxTileN = 128
	maxTileK = 64
)

var (
	tileM = defaultTileM
	tileN = defaultTileN
	tileK = defaultTileK
)

func selectGemmTiles(m, k, n int) (int, int, int) {
	if tileM != defaultTileM || tileN != defaultTileN || tileK != defaultTileK {
		return clampTile(tileM, maxTileM), clampTile(tileN, maxTileN), clampTile(tileK, maxTileK)
	}

	tm := defaultTileM
	tn := defaultTileN
	tk := defaultTileK

	switch {
	case k >= 1024:
		tk = 64
	case k >= 192:
		tk = 32
	}
	// Score matrices are narrow (one column per class).
	if n <= 16 {
		tm = maxTileM
	}

	return clampTile(tm, maxTileM), clampTile(tn, maxTileN), clampTile(tk, maxTileK)
}

func clampTile(value, max int) int {
	if value < 1 {
		return 1
	}
	if value > max {
		return max
	}
	return value
}

type gemmKind uint8

const (
	gemmNN   gemmKind = iota // C = alpha*A*B + beta*C
	gemmTN                   // C = alpha*Aᵀ*B + beta*C
	rowsFunc                 // caller supplied row-range kernel
)

type gemmTask struct {
	kind        gemmKind
	C, A, B     *Mat
	alpha, beta float64
	rs, re      int
	tm, tn, tk  int
	fn          func(rs, re int)
	done        chan struct{}
}

type gemmPool struct {
	size      int
	tasks     chan gemmTask
	doneSlots chan chan struct{}
}

func newGemmPool() *gemmPool {
	size := runtime.GOMAXPROCS(0)
	if size < 1 {
		size = 1
	}
	p := &gemmPool{
		size:      size,
		tasks:     make(chan gemmTask, size*2),
		doneSlots: make(chan chan struct{}, size),
	}
	for i := 0; i < size; i++ {
		p.doneSlots <- make(chan struct{}, size)
	}
	for w := 0; w < size; w++ {
		go func() {
			for task := range p.tasks {
				task.run()
				task.done <- struct{}{}
			}
		}()
	}
	return p
}

func (t *gemmTask) run() {
	switch t.kind {
	case rowsFunc:
		t.fn(t.rs, t.re)
	case gemmTN:
		gemmTNRangeRows(t.C, t.A, t.B, t.alpha, t.beta, t.rs, t.re, t.tm, t.tk)
	default:
		gemmRangeRows(t.C, t.A, t.B, t.alpha, t.beta, t.rs, t.re, t.tm, t.tn, t.tk)
	}
}

var gemmWorkPool = newGemmPool()

// Workers reports the size of the shared worker pool.
func Workers() int {
	return gemmWorkPool.size
}

// GemmPar computes the matrix product C = alpha*A*B + beta*C using a
// blocked algorithm and parallelising across ranges of output rows.
func GemmPar(C, A, B *Mat, alpha, beta float64, workers int) {
	if A.C != B.R || C.R != A.R || C.C != B.C {
		panic("gemm: dimension mismatch")
	}
	tm, tn, tk := selectGemmTiles(C.R, A.C, B.C)
	dispatch(gemmNN, C, A, B, alpha, beta, workers, tm, tn, tk)
}

// GemmTN computes C = alpha*Aᵀ*B + beta*C without materialising Aᵀ.
// A is K×M, B is K×N and C is M×N.
func GemmTN(C, A, B *Mat, alpha, beta float64, workers int) {
	if A.R != B.R || C.R != A.C || C.C != B.C {
		panic("gemm: dimension mismatch")
	}
	tm, tn, tk := selectGemmTiles(C.R, A.R, B.C)
	dispatch(gemmTN, C, A, B, alpha, beta, workers, tm, tn, tk)
}

// ParallelRows splits [0, n) into contiguous ranges and runs fn on the shared
// worker pool, blocking until every range is done. fn must not call back into
// the pool.
func ParallelRows(n, workers int, fn func(rs, re int)) {
	if n <= 0 {
		return
	}
	spread(gemmTask{kind: rowsFunc, fn: fn}, n, workers)
}

func dispatch(kind gemmKind, C, A, B *Mat, alpha, beta float64, workers, tm, tn, tk int) {
	if C.R == 0 || C.C == 0 {
		return
	}
	spread(gemmTask{kind: kind, C: C, A: A, B: B, alpha: alpha, beta: beta, tm: tm, tn: tn, tk: tk}, C.R, workers)
}

// spread fans proto out over row ranges of [0, rows).
func spread(proto gemmTask, rows, workers int) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > rows {
		workers = rows
	}
	if workers > gemmWorkPool.size {
		workers = gemmWorkPool.size
	}
	if workers <= 1 {
		proto.rs, proto.re = 0, rows
		proto.run()
		return
	}

	chunk := (rows + workers - 1) / workers

	done := <-gemmWorkPool.doneSlots
	sent := 0
	for w := 0; w < workers; w++ {
		rs := w * chunk
		if rs >= rows {
			break
		}
		task := proto
		task.rs = rs
		task.re = min(rs+chunk, rows)
		task.done = done
		gemmWorkPool.tasks <- task
		sent++
	}
	for i := 0; i < sent; i++ {
		<-done
	}
	gemmWorkPool.doneSlots <- done
}

func scaleRows(C *Mat, beta float64, rs, re int) {
	n := C.C
	switch beta {
	case 1:
	case 0:
		for i := rs; i < re; i++ {
			base := i * C.Stride
			clear(C.Data[base : base+n])
		}
	default:
		for i := rs; i < re; i++ {
			base := i * C.Stride
			for j := 0; j < n; j++ {
				C.Data[base+j] *= beta
			}
		}
	}
}

// gemmRangeRows performs a blocked GEMM on a contiguous range of rows of C.
func gemmRangeRows(C, A, B *Mat, alpha, beta float64, rs, re int, tm, tn, tk int) {
	scaleRows(C, beta, rs, re)

	n := B.C
	k := A.C
	for i0 := rs; i0 < re; i0 += tm {
		iMax := min(i0+tm, re)
		for k0 := 0; k0 < k; k0 += tk {
			kMax := min(k0+tk, k)
			for j0 := 0; j0 < n; j0 += tn {
				jMax := min(j0+tn, n)
				blockUpdate(C.Data, A.Data, B.Data, C.Stride, A.Stride, B.Stride, alpha, i0, iMax, j0, jMax, k0, kMax)
			}
		}
	}
}

// gemmTNRangeRows computes rows [rs, re) of C = alpha*Aᵀ*B + beta*C.
// Row i of C is the sum over kk of A[kk, i] * B[kk, :], so each kk contributes
// a scaled copy of one B row to every C row in the range.
func gemmTNRangeRows(C, A, B *Mat, alpha, beta float64, rs, re int, tm, tk int) {
	scaleRows(C, beta, rs, re)

	k := A.R
	n := B.C
	for i0 := rs; i0 < re; i0 += tm {
		iMax := min(i0+tm, re)
		for k0 := 0; k0 < k; k0 += tk {
			kMax := min(k0+tk, k)
			for kk := k0; kk < kMax; kk++ {
				aRow := A.Data[kk*A.Stride:]
				bRow := B.Data[kk*B.Stride : kk*B.Stride+n]
				for i := i0; i < iMax; i++ {
					aki := aRow[i]
					if aki == 0 {
						continue
					}
					cRow := C.Data[i*C.Stride : i*C.Stride+n]
					axpy(cRow, aki*alpha, bRow)
				}
			}
		}
	}
}

func blockUpdate(cData, aData, bData []float64, cStride, aStride, bStride int, alpha float64, i0, iMax, j0, jMax, k0, kMax int) {
	width := jMax - j0
	for i := i0; i < iMax; i++ {
		aRow := aData[i*aStride:]
		cOff := i*cStride + j0
		cRow := cData[cOff : cOff+width]

		for kk := k0; kk < kMax; kk++ {
			aik := aRow[kk] * alpha
			if aik == 0 {
				continue
			}
			bOff := kk*bStride + j0
			axpy(cRow, aik, bData[bOff:bOff+width])
		}
	}
}

// axpy computes dst += a*x. len(x) must be >= len(dst).
func axpy(dst []float64, a float64, x []float64) {
	if cpu.Wide {
		axpyUnroll8(dst, a, x)
		return
	}
	axpyUnroll4(dst, a, x)
}

func axpyUnroll8(dst []float64, a float64, x []float64) {
	n := len(dst)
	x = x[:n]
	j := 0
	for ; j+7 < n; j += 8 {
		dst[j+0] += a * x[j+0]
		dst[j+1] += a * x[j+1]
		dst[j+2] += a * x[j+2]
		dst[j+3] += a * x[j+3]
		dst[j+4] += a * x[j+4]
		dst[j+5] += a * x[j+5]
		dst[j+6] += a * x[j+6]
		dst[j+7] += a * x[j+7]
	}
	for ; j < n; j++ {
		dst[j] += a * x[j]
	}
}

func axpyUnroll4(dst []float64, a float64, x []float64) {
	n := len(dst)
	x = x[:n]
	j := 0
	for ; j+3 < n; j += 4 {
		dst[j+0] += a * x[j+0]
		dst[j+1] += a * x[j+1]
		dst[j+2] += a * x[j+2]
		dst[j+3] += a * x[j+3]
	}
	for ; j < n; j++ {
		dst[j] += a * x[j]
	}
}
