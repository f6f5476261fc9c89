package domain

import "errors"

var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrNoSources      = errors.New("no sources configured")
	ErrInvalidLexicon = errors.New("invalid lexicon")
	ErrNotFound       = errors.New("not found")
	ErrScannerMissing = errors.New("scanner is not registered")
)
