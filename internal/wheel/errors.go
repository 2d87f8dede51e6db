package wheel

import "errors"

// ErrEmptyWheel is returned when a spin is attempted with no segments.
var ErrEmptyWheel = errors.New("no segments to spin")

// ErrSegmentNotFound is returned when a forced name is not on the wheel.
var ErrSegmentNotFound = errors.New("segment not found on wheel")
