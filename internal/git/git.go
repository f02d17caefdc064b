// Package git shells out to the git binary for the little repository
// context the client shows next to a thread: repo name, branch, dirty
// file counts, and per-file diffs. Parsing is separated from exec so it
// can be tested without a repository.
package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// FileStatus is one changed path from git status.
type FileStatus struct {
	Path    string
	OldPath string // set for renames
	Staged  bool
	Code    string // two-letter XY field
}

// Status summarizes the working tree.
type Status struct {
	Branch    string
	Staged    []FileStatus
	Modified  []FileStatus
	Untracked []FileStatus
}

// Clean reports whether the working tree has no changes.
func (s Status) Clean() bool {
	return len(s.Staged) == 0 && len(s.Modified) == 0 && len(s.Untracked) == 0
}

// Summary renders a short "2 staged, 1 modified" style line.
func (s Status) Summary() string {
	if s.Clean() {
		return "clean"
	}
	var parts []string
	if n := len(s.Staged); n > 0 {
		parts = append(parts, fmt.Sprintf("%d staged", n))
	}
	if n := len(s.Modified); n > 0 {
		parts = append(parts, fmt.Sprintf("%d modified", n))
	}
	if n := len(s.Untracked); n > 0 {
		parts = append(parts, fmt.Sprintf("%d untracked", n))
	}
	return strings.Join(parts, ", ")
}

// RepoName returns the repository name for a directory: from the origin
// remote URL when one exists, otherwise the directory basename. Empty
// when the directory is not a git repository.
func RepoName(workDir string) string {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = workDir
	if err := cmd.Run(); err != nil {
		return ""
	}

	cmd = exec.Command("git", "remote", "get-url", "origin")
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err == nil {
		if name := repoNameFromURL(strings.TrimSpace(string(output))); name != "" {
			return name
		}
	}

	abs, err := filepath.Abs(workDir)
	if err != nil {
		return ""
	}
	return filepath.Base(abs)
}

// repoNameFromURL extracts the repo name from SSH
// (git@host:user/repo.git) and HTTPS (https://host/user/repo) URLs.
func repoNameFromURL(url string) string {
	url = strings.TrimSuffix(url, ".git")
	if idx := strings.LastIndex(url, ":"); idx != -1 && !strings.Contains(url, "://") {
		url = url[idx+1:]
	}
	if idx := strings.LastIndex(url, "/"); idx != -1 {
		return url[idx+1:]
	}
	return url
}

// CurrentStatus runs git status and parses it.
func CurrentStatus(workDir string) (Status, error) {
	cmd := exec.Command("git", "status", "--porcelain=v2", "--branch", "-z")
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return Status{}, fmt.Errorf("git: status: %w", err)
	}
	return ParseStatus(output)
}

// ParseStatus parses `git status --porcelain=v2 --branch -z` output.
func ParseStatus(output []byte) (Status, error) {
	var status Status
	records := strings.Split(string(output), "\x00")
	for i := 0; i < len(records); i++ {
		record := records[i]
		if record == "" {
			continue
		}
		switch record[0] {
		case '#':
			if rest, ok := strings.CutPrefix(record, "# branch.head "); ok {
				status.Branch = rest
			}
		case '1':
			// 1 XY sub mH mI mW hH hI path
			fields := strings.SplitN(record, " ", 9)
			if len(fields) < 9 {
				continue
			}
			appendEntry(&status, fields[1], fields[8], "")
		case '2':
			// 2 XY sub mH mI mW hH hI Xscore path — old path follows
			// as the next null-separated record.
			fields := strings.SplitN(record, " ", 10)
			if len(fields) < 10 {
				continue
			}
			oldPath := ""
			if i+1 < len(records) {
				i++
				oldPath = records[i]
			}
			appendEntry(&status, fields[1], fields[9], oldPath)
		case 'u':
			// Unmerged entries count as modified.
			fields := strings.SplitN(record, " ", 11)
			if len(fields) < 11 {
				continue
			}
			status.Modified = append(status.Modified, FileStatus{Path: fields[10], Code: fields[1]})
		case '?':
			if rest, ok := strings.CutPrefix(record, "? "); ok {
				status.Untracked = append(status.Untracked, FileStatus{Path: rest, Code: "??"})
			}
		}
	}
	return status, nil
}

// appendEntry files a changed path under staged and/or modified based
// on the XY code. A file with both staged and unstaged edits appears in
// both lists.
func appendEntry(status *Status, code, path, oldPath string) {
	if len(code) != 2 {
		return
	}
	entry := FileStatus{Path: path, OldPath: oldPath, Code: code}
	if code[0] != '.' {
		staged := entry
		staged.Staged = true
		status.Staged = append(status.Staged, staged)
	}
	if code[1] != '.' {
		status.Modified = append(status.Modified, entry)
	}
}

// CurrentBranch returns the checked-out branch name.
func CurrentBranch(workDir string) (string, error) {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git: current branch: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// DiffStat returns added and removed line counts for one path.
func DiffStat(workDir, path string, staged bool) (added, removed int, err error) {
	args := []string{"diff", "--numstat"}
	if staged {
		args = append(args, "--cached")
	}
	args = append(args, "--", path)
	cmd := exec.Command("git", args...)
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return 0, 0, fmt.Errorf("git: diff stat %s: %w", path, err)
	}
	return ParseNumstat(output)
}

// ParseNumstat parses `git diff --numstat` output, summing counts
// across lines. Binary files report "-" and count as zero.
func ParseNumstat(output []byte) (added, removed int, err error) {
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		var a, r int
		if _, err := fmt.Sscanf(fields[0], "%d", &a); err == nil {
			added += a
		}
		if _, err := fmt.Sscanf(fields[1], "%d", &r); err == nil {
			removed += r
		}
	}
	return added, removed, nil
}

// Diff returns the unified diff for one path.
func Diff(workDir, path string, staged bool) (string, error) {
	args := []string{"diff"}
	if staged {
		args = append(args, "--cached")
	}
	args = append(args, "--", path)
	cmd := exec.Command("git", args...)
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git: diff %s: %w", path, err)
	}
	return string(output), nil
}
