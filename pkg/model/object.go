//go:generate mockgen -source object.go -destination ../../internal/mocks/mock_artifact.go -package mocks Artifact

// Package model holds the values that flow through an export run: the raw
// record handed over by a producer, the object describing where it will be
// written, and the ledger that records every transformation applied to it.
package model

import (
	"context"
)

// Record is a nested mapping of strings to mappings, sequences or scalars.
// Records handed to the core are treated as immutable.
type Record = map[string]any

// Artifact is a secondary payload owned by one object, such as the source of
// a notebook, fetched from RemotePath and written once to LocalPath.
type Artifact interface {
	RemotePath() string
	LocalPath() string
	Content(ctx context.Context) ([]byte, error)
}

// Object describes one exported object.
type Object struct {
	// RawID is the identifier used by the remote platform.
	RawID string
	// Identity is the normalized output identity, unique within ResourceType.
	Identity string
	// ResourceType is the output-language resource type, e.g. "databricks_cluster_policy".
	ResourceType string
	// Destination is the file the object is written to.
	Destination string
	// Record holds the fields to export.
	Record Record
	// Artifacts are fetched before the object is processed.
	Artifacts []Artifact
}
