// Package annotator defines the optional named-entity capability used to
// enrich event locations, plus its degraded-mode semantics: any failure
// here must route the caller to the fallback extractor, never to the user.
package annotator

import (
	"context"
	"errors"
	"fmt"

	"calclik-event-scanner/internal/models"
)

// ErrUnavailable indicates the annotator cannot run at all (not configured,
// missing credentials, service down). Callers switch to the fallback
// extraction path.
var ErrUnavailable = errors.New("annotator unavailable")

// AnnotatorError wraps a failure from a configured annotator during one
// annotation call. Like ErrUnavailable it triggers the fallback path; the
// distinction exists for logging.
type AnnotatorError struct {
	Err error
}

func (e *AnnotatorError) Error() string {
	return fmt.Sprintf("annotator error: %v", e.Err)
}

func (e *AnnotatorError) Unwrap() error {
	return e.Err
}

// Annotator is the injected entity-recognition capability. Annotate returns
// labeled entities for a text span, in order of appearance. Implementations
// must honor ctx cancellation; the entities are owned by the caller for the
// duration of one scan and never persisted.
type Annotator interface {
	Annotate(ctx context.Context, text string) ([]models.Entity, error)
}

// Noop is the null annotator: it succeeds with no entities, keeping the
// primary extraction path alive with empty location fields. Used for
// deterministic tests and annotator-less primary runs.
type Noop struct{}

// Annotate implements Annotator.
func (Noop) Annotate(ctx context.Context, text string) ([]models.Entity, error) {
	return nil, nil
}

// Failing is an annotator that always fails with the given error. Test
// helper for exercising the fallback path.
type Failing struct {
	Err error
}

// Annotate implements Annotator.
func (f Failing) Annotate(ctx context.Context, text string) ([]models.Entity, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return nil, ErrUnavailable
}

// Static is an annotator that returns a fixed entity list. Test helper for
// deterministic entity-enriched scans.
type Static struct {
	Entities []models.Entity
}

// Annotate implements Annotator.
func (s Static) Annotate(ctx context.Context, text string) ([]models.Entity, error) {
	return s.Entities, nil
}
