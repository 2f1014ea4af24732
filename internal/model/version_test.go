package model

import "testing"

func TestParseVersionSpec(t *testing.T) {
	tests := []struct {
		raw      string
		wantKind VersionKind
		wantVal  string
	}{
		{"0.18.0", VersionPublished, "0.18.0"},
		{"v0.18.0", VersionPublished, "0.18.0"},
		{"1.2.3-rc.1", VersionPublished, "1.2.3-rc.1"},
		{"main", VersionBranch, "main"},
		{"feature/fusion-cache", VersionBranch, "feature/fusion-cache"},
		{"02d37011ab4dc773286e5983c09cde61f95ba4b5", VersionCommit, "02d37011ab4dc773286e5983c09cde61f95ba4b5"},
		{"02d3701", VersionCommit, "02d3701"},
		{"local", VersionLocal, ""},
		{"/home/user/mabor", VersionLocal, "/home/user/mabor"},
		{"./mabor", VersionLocal, "./mabor"},
	}

	for _, tt := range tests {
		got := ParseVersionSpec(tt.raw)
		if got.Kind != tt.wantKind {
			t.Errorf("ParseVersionSpec(%q).Kind = %q, want %q", tt.raw, got.Kind, tt.wantKind)
		}
		if got.Value != tt.wantVal {
			t.Errorf("ParseVersionSpec(%q).Value = %q, want %q", tt.raw, got.Value, tt.wantVal)
		}
	}
}

func TestVersionSpecString(t *testing.T) {
	if got := (VersionSpec{Kind: VersionLocal}).String(); got != "local" {
		t.Errorf("local spec String() = %q, want %q", got, "local")
	}
	if got := ParseVersionSpec("main").String(); got != "main" {
		t.Errorf("branch spec String() = %q, want %q", got, "main")
	}
}

func TestResolvedSourceShortHash(t *testing.T) {
	src := ResolvedSource{Hash: "02d37011ab4dc773286e5983c09cde61f95ba4b5"}
	if got := src.ShortHash(); got != "02d37011" {
		t.Errorf("ShortHash() = %q, want %q", got, "02d37011")
	}
	short := ResolvedSource{Hash: "local"}
	if got := short.ShortHash(); got != "local" {
		t.Errorf("ShortHash() = %q, want %q", got, "local")
	}
}

func TestBackendSupports(t *testing.T) {
	b := Backend{ID: "wgpu", Dtypes: []string{DtypeF32, DtypeF16}}
	if !b.Supports(DtypeF32) {
		t.Error("wgpu should support f32")
	}
	if b.Supports(DtypeBF16) {
		t.Error("wgpu should not support bf16")
	}
}
