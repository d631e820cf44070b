package api

import (
	"errors"

	"github.com/samber/lo"

	"github.com/samcharles93/hinge/internal/problem"
	"github.com/samcharles93/hinge/pkg/svm"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrBodyTooLarge   = errors.New("request body too large")
)

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// clientErrors are failures caused by the request body rather than the server.
var clientErrors = []error{
	ErrInvalidRequest,
	problem.ErrEmpty,
	problem.ErrRagged,
	svm.ErrShapeMismatch,
	svm.ErrLabelOutOfRange,
	svm.ErrEmptyBatch,
	svm.ErrNoClasses,
	svm.ErrNoFeatures,
	svm.ErrNegativeRegularization,
	svm.ErrUnknownImplementation,
}

func isClientError(err error) bool {
	return lo.ContainsBy(clientErrors, func(target error) bool {
		return errors.Is(err, target)
	})
}
