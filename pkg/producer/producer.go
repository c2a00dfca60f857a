//go:generate mockgen -source producer.go -destination ../../internal/mocks/mock_producer.go -package mocks

// Package producer defines how records enter an export run.
//
// A Producer lists the raw records of one resource type and declares how
// they are turned into objects: which field identifies a record, which
// fields are exported, and which paths the processors act on. A Generator
// wraps a Producer with the run-level settings (output layout, include
// patterns, overrides) and yields ready-to-process objects.
package producer

import (
	"context"
	"iter"

	"github.com/iacexport/iacexport/pkg/model"
)

// Producer is implemented once per resource type.
type Producer interface {
	// ResourceType is the output-language resource type, e.g. "databricks_cluster_policy".
	ResourceType() string

	// Identify returns the identifier the remote platform uses for rec.
	Identify(rec model.Record) (string, error)

	// DefineIdentity returns the display identity of rec before normalization.
	DefineIdentity(rec model.Record) (string, error)

	// ToFields projects rec onto the fields that are exported.
	ToFields(rec model.Record) (model.Record, error)

	// AnnotationPaths maps annotation tokens to the paths they apply to.
	AnnotationPaths() map[string][]string

	// ResourceVariablePaths lists the paths lifted into object-scoped variables.
	ResourceVariablePaths() []string

	// SharedPatternPaths maps paths to extraction patterns. An empty pattern
	// captures whole lines.
	SharedPatternPaths() map[string]string

	// Records lists the raw records. A non-nil error ends the sequence.
	Records(ctx context.Context) iter.Seq2[model.Record, error]
}

// DataPathFunc returns the local path of an artifact file.
type DataPathFunc func(name string) string

// ArtifactProducer is implemented by producers whose objects carry artifacts.
type ArtifactProducer interface {
	Artifacts(rec model.Record, identity string, dataPath DataPathFunc) ([]model.Artifact, error)
}

// Preparer is implemented by producers that must check their source before
// a run starts. A Prepare error aborts the whole run.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// PostProcessFunc adjusts an object after it was built from rec.
type PostProcessFunc func(rec model.Record, obj *model.Object) (*model.Object, error)
