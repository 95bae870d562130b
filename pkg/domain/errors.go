package domain

import "errors"

var (
	// ErrEmptyInput is the only error allowed to escape the sorting pipeline.
	ErrEmptyInput = errors.New("empty classification input")

	// ErrExternalCall wraps failures talking to a model provider
	ErrExternalCall = errors.New("external call failed")

	// ErrParse is returned by a parser tier that could not produce a result
	ErrParse = errors.New("could not parse model response")

	// ErrInvalidCategory is returned when a value is not one of the four houses
	ErrInvalidCategory = errors.New("invalid category")

	// ErrUnsupportedCategory is returned when a strategy has no style template for a category
	ErrUnsupportedCategory = errors.New("unsupported category for transformation")

	// ErrSourceImageRequired is returned by image-conditioned strategies called without an image
	ErrSourceImageRequired = errors.New("source image required")

	// ErrEmptyImage is returned when a provider answers without image data
	ErrEmptyImage = errors.New("provider returned no image data")
)
