package audit

import "testing"

func TestParseActionRefOwnerRepo(t *testing.T) {
	ref, err := ParseActionRef("actions/checkout@v4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Owner != "actions" || ref.Repo != "checkout" || ref.Path != "" {
		t.Fatalf("unexpected parse result: %+v", ref)
	}
	if ref.RefKind != RefTag {
		t.Fatalf("expected RefTag, got %v", ref.RefKind)
	}
	if ref.IdentityKey() != "actions/checkout@v4" {
		t.Fatalf("unexpected identity key: %q", ref.IdentityKey())
	}
}

func TestParseActionRefWithPath(t *testing.T) {
	ref, err := ParseActionRef("owner/repo/sub/dir@main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Path != "sub/dir" {
		t.Fatalf("expected path sub/dir, got %q", ref.Path)
	}
	if ref.PackageName() != "owner/repo/sub/dir" {
		t.Fatalf("unexpected package name: %q", ref.PackageName())
	}
	if ref.IdentityKey() != "owner/repo@main/sub/dir" {
		t.Fatalf("unexpected identity key: %q", ref.IdentityKey())
	}
}

func TestParseActionRefSha(t *testing.T) {
	sha := "0123456789abcdef0123456789abcdef01234567"
	ref, err := ParseActionRef("owner/repo@" + sha)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.RefKind != RefSha {
		t.Fatalf("expected RefSha, got %v", ref.RefKind)
	}
}

func TestParseActionRefLocalAndDocker(t *testing.T) {
	if _, err := ParseActionRef("./local-action"); err != ErrLocalAction {
		t.Fatalf("expected ErrLocalAction, got %v", err)
	}
	if _, err := ParseActionRef("docker://alpine:3.18"); err != ErrDockerAction {
		t.Fatalf("expected ErrDockerAction, got %v", err)
	}
}

func TestParseActionRefMalformed(t *testing.T) {
	cases := []string{"no-at-sign", "@v1", "owner@v1", ""}
	for _, c := range cases {
		if _, err := ParseActionRef(c); err == nil {
			t.Errorf("expected error for input %q", c)
		}
	}
}
