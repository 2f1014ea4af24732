package model

import (
	"regexp"
	"strings"
)

// VersionKind discriminates the VersionSpec variants.
type VersionKind string

// Version specifier variants.
const (
	VersionPublished VersionKind = "published"
	VersionBranch    VersionKind = "branch"
	VersionCommit    VersionKind = "commit"
	VersionLocal     VersionKind = "local"
)

// SourceKind describes where a resolved source lives.
type SourceKind string

// Resolved source locations.
const (
	SourceRemote SourceKind = "remote"
	SourceLocal  SourceKind = "local"
)

var (
	semverRe = regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`)
	hashRe   = regexp.MustCompile(`^[0-9a-f]{7,40}$`)
)

// VersionSpec identifies which framework revision to benchmark. It is a
// tagged union over published release, branch, commit, and local checkout.
// Specs are immutable once parsed.
type VersionSpec struct {
	Kind VersionKind `json:"kind"`
	// Value holds the semver for published versions, the branch name, the
	// commit hash, or the source directory for local specs. An empty value
	// on a local spec means the configured default directory.
	Value string `json:"value"`
}

// ParseVersionSpec classifies raw user input into a VersionSpec.
// "local" or a filesystem path selects the local checkout, a semver string
// selects a published release, a hex string selects a commit, and anything
// else is treated as a branch name.
func ParseVersionSpec(raw string) VersionSpec {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "local":
		return VersionSpec{Kind: VersionLocal}
	case strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../") || strings.HasPrefix(raw, "~/"):
		return VersionSpec{Kind: VersionLocal, Value: raw}
	case semverRe.MatchString(raw):
		return VersionSpec{Kind: VersionPublished, Value: strings.TrimPrefix(raw, "v")}
	case hashRe.MatchString(raw):
		return VersionSpec{Kind: VersionCommit, Value: raw}
	default:
		return VersionSpec{Kind: VersionBranch, Value: raw}
	}
}

// String renders the spec the way the user wrote it.
func (s VersionSpec) String() string {
	if s.Kind == VersionLocal && s.Value == "" {
		return "local"
	}
	return s.Value
}

// ResolvedSource is a concrete, buildable source reference produced by
// resolving a VersionSpec. Hash pins the exact commit for reproducibility.
type ResolvedSource struct {
	Spec     VersionSpec `json:"spec"`
	Kind     SourceKind  `json:"source_kind"`
	Location string      `json:"location"`
	Hash     string      `json:"hash"`
}

// ShortHash returns an abbreviated commit hash for display.
func (r ResolvedSource) ShortHash() string {
	if len(r.Hash) > 8 {
		return r.Hash[:8]
	}
	return r.Hash
}
