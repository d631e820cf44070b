package api

import (
	"github.com/samcharles93/hinge/internal/problem"
)

// LossRequest is the body of POST /v1/loss and POST /v1/compare.
// Implementation defaults to "vectorized" and is ignored by compare.
type LossRequest struct {
	Implementation string `json:"implementation,omitempty"`
	problem.Document
}

type LossResponse struct {
	ID             string      `json:"id"`
	Object         string      `json:"object"`
	Implementation string      `json:"implementation"`
	Loss           float64     `json:"loss"`
	Gradient       [][]float64 `json:"gradient"`
	DurationMS     float64     `json:"duration_ms"`
}

type CompareResult struct {
	Implementation string  `json:"implementation"`
	Loss           float64 `json:"loss"`
	// MaxRelError is the worst element-wise relative error of the gradient
	// against the naive implementation.
	MaxRelError float64 `json:"max_rel_error"`
	DurationMS  float64 `json:"duration_ms"`
}

type CompareResponse struct {
	ID      string          `json:"id"`
	Object  string          `json:"object"`
	Results []CompareResult `json:"results"`
}

type ListImplementationsResponse struct {
	Object string   `json:"object"`
	Data   []string `json:"data"`
}

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
