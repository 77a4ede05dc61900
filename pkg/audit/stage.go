package audit

import "context"

// Stage is one unit of per-node enrichment work. Implementations read and
// write the context directly; cross-stage dependencies are expressed by
// reading upstream fields and skipping when absent (spec.md §4.5), not by
// type-level declarations.
type Stage interface {
	Name() string
	Run(ctx context.Context, actx *AuditContext) error
}
