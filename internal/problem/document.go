package problem

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// Document is the serialised form of a problem.
type Document struct {
	Weights        [][]float64 `json:"weights" yaml:"weights"`
	Batch          [][]float64 `json:"batch" yaml:"batch"`
	Labels         []int       `json:"labels" yaml:"labels"`
	Regularization float64     `json:"regularization" yaml:"regularization"`
}

// Format names a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" and "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w %q", ErrFormat, s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: no extension on %q", ErrFormat, path)
	}
	return ParseFormat(ext)
}

// Decode reads a document in the given format.
func Decode(r io.Reader, format Format) (Document, error) {
	var doc Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("decode json problem: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return Document{}, fmt.Errorf("decode yaml problem: %w", err)
		}
	default:
		return Document{}, fmt.Errorf("%w %q", ErrFormat, format)
	}
	return doc, nil
}

// Instance converts the document rows into dense matrices. Labels are not
// range checked here; the loss functions validate them.
func (doc Document) Instance() (Instance, error) {
	w, err := denseFromRows("weights", doc.Weights)
	if err != nil {
		return Instance{}, err
	}
	x, err := denseFromRows("batch", doc.Batch)
	if err != nil {
		return Instance{}, err
	}
	y := append([]int(nil), doc.Labels...)
	return Instance{W: w, X: x, Y: y, Reg: doc.Regularization}, nil
}

// NewDocument converts an instance back into rows.
func NewDocument(in Instance) Document {
	return Document{
		Weights:        Rows(in.W),
		Batch:          Rows(in.X),
		Labels:         append([]int(nil), in.Y...),
		Regularization: in.Reg,
	}
}

// Rows copies a matrix into a slice of rows.
func Rows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(make([]float64, c), i, m)
	}
	return out
}

func denseFromRows(name string, rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, name)
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: %s row %d has %d columns, want %d", ErrRagged, name, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}
