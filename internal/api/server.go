// Package api serves the loss implementations over HTTP.
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"gonum.org/v1/gonum/mat"

	"github.com/samcharles93/hinge/internal/logger"
	"github.com/samcharles93/hinge/internal/problem"
	"github.com/samcharles93/hinge/internal/tensor"
	"github.com/samcharles93/hinge/pkg/svm"
)

const (
	defaultImplementation = svm.NameVectorized
	defaultMaxBodyBytes   = 64 << 20
)

type Server struct {
	log          logger.Logger
	clock        func() time.Time
	maxBodyBytes int64
}

type Option func(*Server)

// WithLogger sets the logger used for per-request diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithMaxBodyBytes caps the size of request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		log:          logger.Discard(),
		clock:        time.Now,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/implementations", s.handleListImplementations)
	e.GET("/v1/implementations/:name", s.handleGetImplementation)
	e.POST("/v1/loss", s.handleLoss)
	e.POST("/v1/compare", s.handleCompare)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListImplementations(c *echo.Context) error {
	return c.JSON(http.StatusOK, ListImplementationsResponse{
		Object: "list",
		Data:   svm.Names(),
	})
}

func (s *Server) handleGetImplementation(c *echo.Context) error {
	name := c.Param("name")
	if _, err := svm.Lookup(name); err != nil {
		return writeNotFound(c, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{
		"object": "implementation",
		"name":   name,
	})
}

func (s *Server) handleLoss(c *echo.Context) error {
	req, in, err := s.readProblem(c)
	if err != nil {
		return writeFailure(c, err)
	}
	name := req.Implementation
	if name == "" {
		name = defaultImplementation
	}
	fn, err := svm.Lookup(name)
	if err != nil {
		return writeFailure(c, err)
	}

	start := s.clock()
	loss, grad, err := fn(in.W, in.X, in.Y, in.Reg)
	elapsed := s.clock().Sub(start)
	if err != nil {
		return writeFailure(c, err)
	}

	n, d, k := in.Dims()
	s.log.Debug("loss evaluated", "impl", name, "n", n, "d", d, "c", k, "loss", loss, "took", elapsed)
	return c.JSON(http.StatusOK, LossResponse{
		ID:             newLossID(),
		Object:         "loss",
		Implementation: name,
		Loss:           loss,
		Gradient:       problem.Rows(grad),
		DurationMS:     millis(elapsed),
	})
}

func (s *Server) handleCompare(c *echo.Context) error {
	_, in, err := s.readProblem(c)
	if err != nil {
		return writeFailure(c, err)
	}
	if err := svm.Validate(in.W, in.X, in.Y, in.Reg); err != nil {
		return writeFailure(c, err)
	}

	names := svm.Names()
	results := make([]CompareResult, 0, len(names))
	var ref *mat.Dense
	for _, name := range orderedForCompare(names) {
		fn, _ := svm.Lookup(name)
		start := s.clock()
		loss, grad, err := fn(in.W, in.X, in.Y, in.Reg)
		elapsed := s.clock().Sub(start)
		if err != nil {
			return writeFailure(c, err)
		}
		if ref == nil {
			ref = grad
		}
		results = append(results, CompareResult{
			Implementation: name,
			Loss:           loss,
			MaxRelError:    tensor.MaxRelError(ref.RawMatrix().Data, grad.RawMatrix().Data),
			DurationMS:     millis(elapsed),
		})
	}
	return c.JSON(http.StatusOK, CompareResponse{
		ID:      newCompareID(),
		Object:  "comparison",
		Results: results,
	})
}

func (s *Server) readProblem(c *echo.Context) (LossRequest, problem.Instance, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return LossRequest{}, problem.Instance{}, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, tooLarge.Limit)
		}
		return LossRequest{}, problem.Instance{}, newInvalidRequest("reading request body: " + err.Error())
	}
	req, err := decodeJSON[LossRequest](bytes.NewReader(body))
	if err != nil {
		return req, problem.Instance{}, err
	}
	in, err := req.Document.Instance()
	if err != nil {
		return req, problem.Instance{}, err
	}
	return req, in, nil
}

// orderedForCompare puts the naive reference first.
func orderedForCompare(names []string) []string {
	out := make([]string, 0, len(names))
	out = append(out, svm.NameNaive)
	for _, n := range names {
		if n != svm.NameNaive {
			out = append(out, n)
		}
	}
	return out
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
