// Package svm computes the multiclass structured hinge (SVM) loss and its
// gradient with respect to a linear classifier's weights.
//
// For weights W (D×C), a batch X (N×D) and labels y, the loss is
//
//	L = 1/N Σ_i Σ_{j≠y_i} max(0, s_ij − s_iy_i + Δ) + reg·Σ W²
//
// with scores s = X·W and Δ = 1. Three implementations share the LossFunc
// contract and produce the same result within floating-point tolerance:
//
//   - Naive walks every example and class and accumulates the gradient
//     column by column. It is the readable reference.
//   - Vectorized expresses the same computation as whole-matrix algebra on
//     gonum matrices.
//   - Parallel runs the vectorized formulation on the blocked GEMM kernels and
//     worker pool of the internal tensor package.
//
// The regularization gradient is reg·W rather than the exact derivative
// 2·reg·W. Results produced by earlier tooling depend on this constant, so
// every implementation keeps it.
//
// All functions are pure: inputs are never modified and the returned gradient
// is freshly allocated.
package svm

// Delta is the margin the correct class score must clear.
const Delta = 1.0
