package quiver

import (
	"errors"
	"fmt"

	"github.com/hupe1980/quiver/errmodel"
	"github.com/hupe1980/quiver/internal/solver"
)

var (
	// ErrInvalidArgument is returned when an input violates a precondition.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrResourceExhausted is returned when a construction does not fit the
	// configured resource budget.
	ErrResourceExhausted = errors.New("resource exhausted")
)

// ArgumentError reports which argument violated a precondition.
//
// It matches ErrInvalidArgument with errors.Is. The original underlying error
// (if any) can be accessed via errors.Unwrap.
type ArgumentError struct {
	Arg    string
	Reason string
	cause  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Arg, e.Reason)
}

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

func (e *ArgumentError) Unwrap() error { return e.cause }

// ResourceError indicates that the DP tables of a construction were larger
// than the memory budget allows.
//
// It matches ErrResourceExhausted with errors.Is.
type ResourceError struct {
	Requested int64
	Limit     int64
	cause     error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource exhausted: requested %d bytes, limit %d", e.Requested, e.Limit)
}

func (e *ResourceError) Is(target error) bool { return target == ErrResourceExhausted }

func (e *ResourceError) Unwrap() error { return e.cause }

func argError(arg, format string, args ...any) error {
	return &ArgumentError{Arg: arg, Reason: fmt.Sprintf(format, args...)}
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var be *solver.BudgetError
	if errors.As(err, &be) {
		return &ResourceError{Requested: be.Requested, Limit: be.Limit, cause: err}
	}
	if errors.Is(err, solver.ErrMemoryBudget) {
		return fmt.Errorf("%w: %w", ErrResourceExhausted, err)
	}

	// Evaluation errors surface from Evaluate and NormalizedError.
	switch {
	case errors.Is(err, errmodel.ErrInvalidBoundaries):
		return &ArgumentError{Arg: "boundaries", Reason: err.Error(), cause: err}
	case errors.Is(err, errmodel.ErrLengthMismatch):
		return &ArgumentError{Arg: "weights", Reason: err.Error(), cause: err}
	case errors.Is(err, errmodel.ErrUnsorted):
		return &ArgumentError{Arg: "values", Reason: err.Error(), cause: err}
	}

	return err
}
