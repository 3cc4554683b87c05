package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest         = errors.New("invalid request")
	ErrTreeNotFound           = errors.New("decision tree not found")
	ErrTreeLoad               = errors.New("failed to load decision tree")
	ErrProviderUnavailable    = errors.New("completion provider not configured")
	ErrUpstreamGeneration     = errors.New("answer generation failed")
	ErrGenerationTimeout      = fmt.Errorf("%w: deadline exceeded", ErrUpstreamGeneration)
	ErrPersistenceUnavailable = errors.New("persistence not configured")
)
