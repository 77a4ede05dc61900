package audit

// StageError captures a non-fatal failure from one pipeline stage. It is
// appended to the owning context's Errors; it never aborts the pipeline.
type StageError struct {
	Stage   string
	Message string
}

// AuditContext is the mutable, per-node working state a Pipeline operates
// on. It is owned exclusively by the task running that node's pipeline —
// see spec.md §5 on the concurrency boundary.
type AuditContext struct {
	Action ActionRef
	Depth  int
	Parent string // identity key of the discovering node; empty for roots
	Index  int    // position within the frontier that produced this node

	Children []ActionRef

	ResolvedRef  string
	Advisories   []Advisory
	Scan         *ScanResult
	Dependencies []DependencyReport
	Errors       []StageError
}

// RecordError appends a StageError built from stage and err. A nil err is a
// no-op so stages can call this unconditionally at their tail.
func (c *AuditContext) RecordError(stage string, err error) {
	if err == nil {
		return
	}
	c.Errors = append(c.Errors, StageError{Stage: stage, Message: err.Error()})
}
