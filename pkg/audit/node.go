package audit

// ActionEntry is the presentation-oriented projection of a completed
// AuditContext: every field but Children, which becomes the AuditNode
// tree's structural children.
type ActionEntry struct {
	Action       ActionRef
	ResolvedRef  string
	Advisories   []Advisory
	Scan         *ScanResult
	Dependencies []DependencyReport
	Errors       []StageError
}

// NewActionEntry projects a completed AuditContext into an ActionEntry.
func NewActionEntry(ctx *AuditContext) ActionEntry {
	return ActionEntry{
		Action:       ctx.Action,
		ResolvedRef:  ctx.ResolvedRef,
		Advisories:   ctx.Advisories,
		Scan:         ctx.Scan,
		Dependencies: ctx.Dependencies,
		Errors:       ctx.Errors,
	}
}

// AuditNode is one node of the Walker's result tree: provenance is
// preserved as nesting, never as back-pointers (see spec.md §9).
type AuditNode struct {
	Entry    ActionEntry
	Children []AuditNode
}
