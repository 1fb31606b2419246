package rcmodel

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameters = errors.New("invalid thermal network parameters")
	ErrInvalidPower      = errors.New("heating/cooling power must be finite")
)

// ParameterError names the offending field of a Parameters snapshot.
type ParameterError struct {
	Field string
	Value float64
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%v: %s = %v", ErrInvalidParameters, e.Field, e.Value)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameters
}
