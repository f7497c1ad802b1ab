// services/errors.go
package services

import "errors"

var (
	// ErrAnalysisNotPending guards against reprocessing: only a pending
	// analysis may start its pipeline.
	ErrAnalysisNotPending = errors.New("analysis is not in pending state")

	// ErrNoQueries means an analysis has nothing to execute.
	ErrNoQueries = errors.New("analysis has no pending queries")
)
