package git

import "testing"

func TestParseStatus(t *testing.T) {
	output := []byte("# branch.oid abc123\x00" +
		"# branch.head main\x00" +
		"1 M. N... 100644 100644 100644 abc def staged.go\x00" +
		"1 .M N... 100644 100644 100644 abc abc modified.go\x00" +
		"? untracked.go\x00")

	status, err := ParseStatus(output)
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if status.Branch != "main" {
		t.Errorf("branch = %q, want main", status.Branch)
	}
	if len(status.Staged) != 1 || status.Staged[0].Path != "staged.go" {
		t.Errorf("staged = %+v", status.Staged)
	}
	if len(status.Modified) != 1 || status.Modified[0].Path != "modified.go" {
		t.Errorf("modified = %+v", status.Modified)
	}
	if len(status.Untracked) != 1 || status.Untracked[0].Path != "untracked.go" {
		t.Errorf("untracked = %+v", status.Untracked)
	}
}

func TestParseStatusBothStagedAndModified(t *testing.T) {
	output := []byte("1 MM N... 100644 100644 100644 abc def both.go\x00")
	status, err := ParseStatus(output)
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if len(status.Staged) != 1 || status.Staged[0].Path != "both.go" {
		t.Errorf("staged = %+v", status.Staged)
	}
	if len(status.Modified) != 1 || status.Modified[0].Path != "both.go" {
		t.Errorf("modified = %+v", status.Modified)
	}
}

func TestParseStatusRenamed(t *testing.T) {
	output := []byte("2 R. N... 100644 100644 100644 abc def R100 newname.go\x00oldname.go\x00")
	status, err := ParseStatus(output)
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if len(status.Staged) != 1 {
		t.Fatalf("staged = %+v", status.Staged)
	}
	if status.Staged[0].Path != "newname.go" || status.Staged[0].OldPath != "oldname.go" {
		t.Errorf("rename not parsed: %+v", status.Staged[0])
	}
}

func TestParseStatusEmpty(t *testing.T) {
	status, err := ParseStatus(nil)
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	if !status.Clean() {
		t.Errorf("expected clean status, got %+v", status)
	}
	if status.Summary() != "clean" {
		t.Errorf("summary = %q", status.Summary())
	}
}

func TestSummary(t *testing.T) {
	status := Status{
		Staged:    []FileStatus{{Path: "a"}, {Path: "b"}},
		Untracked: []FileStatus{{Path: "c"}},
	}
	if got := status.Summary(); got != "2 staged, 1 untracked" {
		t.Errorf("summary = %q", got)
	}
}

func TestParseNumstat(t *testing.T) {
	output := []byte("3\t1\tmain.go\n10\t0\tutil.go\n-\t-\timage.png\n")
	added, removed, err := ParseNumstat(output)
	if err != nil {
		t.Fatalf("ParseNumstat: %v", err)
	}
	if added != 13 || removed != 1 {
		t.Errorf("got +%d -%d, want +13 -1", added, removed)
	}
}

func TestRepoNameFromURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"git@github.com:user/repo.git", "repo"},
		{"https://github.com/user/repo.git", "repo"},
		{"https://github.com/user/repo", "repo"},
		{"ssh://git@host/team/project.git", "project"},
	}
	for _, tc := range cases {
		if got := repoNameFromURL(tc.url); got != tc.want {
			t.Errorf("repoNameFromURL(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}
