package domain

import "errors"

// ErrInvalidTarget is returned at subscription time when an observation
// request does not fit the object's shape: the object is not a property
// source, or the path cannot be resolved against it.
var ErrInvalidTarget = errors.New("invalid observation target")

// ErrClosed is returned when an adapter is used after Close.
var ErrClosed = errors.New("closed")
