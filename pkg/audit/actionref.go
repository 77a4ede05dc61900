package audit

import (
	"fmt"
	"strings"
)

// RefKind classifies the syntactic shape of an ActionRef's git_ref.
type RefKind int

const (
	RefUnknown RefKind = iota
	RefSha
	RefTag
)

func (k RefKind) String() string {
	switch k {
	case RefSha:
		return "sha"
	case RefTag:
		return "tag"
	default:
		return "unknown"
	}
}

// ActionRef is the structural identity of one `uses:` reference.
// Immutable after construction by ParseActionRef.
type ActionRef struct {
	Raw     string
	Owner   string
	Repo    string
	Path    string // empty when the reference has no subdirectory
	GitRef  string
	RefKind RefKind
}

// ErrLocalAction and ErrDockerAction signal that a raw reference was
// recognized but excluded from the audit by design, not a parse failure.
var (
	ErrLocalAction  = fmt.Errorf("local action reference")
	ErrDockerAction = fmt.Errorf("docker action reference")
)

// ParseActionRef classifies and parses a raw `uses:` string.
//
// Local (`./...`, `.\...`) and Docker (`docker://...`) references are
// recognized and rejected with a sentinel error rather than a generic parse
// failure, so callers can distinguish "excluded by design" from "malformed".
func ParseActionRef(raw string) (ActionRef, error) {
	if strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, ".\\") {
		return ActionRef{}, ErrLocalAction
	}
	if strings.HasPrefix(raw, "docker://") {
		return ActionRef{}, ErrDockerAction
	}

	name, gitRef, ok := strings.Cut(raw, "@")
	if !ok || gitRef == "" {
		return ActionRef{}, fmt.Errorf("missing git ref in action reference: %q", raw)
	}

	segments := strings.Split(name, "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return ActionRef{}, fmt.Errorf("expected owner/repo in action reference: %q", raw)
	}

	var path string
	if len(segments) > 2 {
		path = strings.Join(segments[2:], "/")
	}

	return ActionRef{
		Raw:     raw,
		Owner:   segments[0],
		Repo:    segments[1],
		Path:    path,
		GitRef:  gitRef,
		RefKind: classifyRef(gitRef),
	}, nil
}

func classifyRef(gitRef string) RefKind {
	if isHexSha(gitRef) {
		return RefSha
	}

	withoutV := strings.TrimPrefix(gitRef, "v")
	if withoutV != "" && withoutV[0] >= '0' && withoutV[0] <= '9' {
		return RefTag
	}

	return RefUnknown
}

func isHexSha(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, c := range s {
		isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
		if !isHex {
			return false
		}
	}
	return true
}

// PackageName returns "owner/repo" or "owner/repo/path" when path is set.
func (a ActionRef) PackageName() string {
	if a.Path == "" {
		return fmt.Sprintf("%s/%s", a.Owner, a.Repo)
	}
	return fmt.Sprintf("%s/%s/%s", a.Owner, a.Repo, a.Path)
}

// Version returns the raw git_ref, per the spec's identity model.
func (a ActionRef) Version() string {
	return a.GitRef
}

// IdentityKey is the cycle-detection and dedup key: "owner/repo@git_ref",
// with "/path" appended only when non-empty.
func (a ActionRef) IdentityKey() string {
	key := fmt.Sprintf("%s/%s@%s", a.Owner, a.Repo, a.GitRef)
	if a.Path == "" {
		return key
	}
	return key + "/" + a.Path
}

func (a ActionRef) String() string {
	return a.Raw
}
