package thread

import (
	"path"
	"regexp"
	"strings"
)

// Command-text interpretation: parse a shell command string from a
// commandExecution tool item into read/list/search entries so runs of
// exploration commands can be folded into one timeline row.
//
// Parsing is deliberately conservative. Any segment that does not
// resolve to a recognized command aborts the whole attempt (ParseCommand
// returns nil) and the caller keeps the raw tool item instead.

var readCommands = map[string]bool{
	"cat": true, "sed": true, "head": true, "tail": true,
	"less": true, "more": true, "nl": true,
}

var listCommands = map[string]bool{
	"ls": true, "tree": true, "find": true, "fd": true,
}

var searchCommands = map[string]bool{
	"rg": true, "grep": true, "ripgrep": true, "findstr": true,
}

// Flags that consume the following token as a value when scanning rg or
// grep invocations for positional operands.
var searchValueFlags = map[string]bool{
	"-g": true, "--glob": true, "--iglob": true,
	"-t": true, "--type": true, "-T": true, "--type-not": true,
	"-m": true, "--max-count": true,
	"-A": true, "--after-context": true,
	"-B": true, "--before-context": true,
	"-C": true, "--context": true,
	"--max-depth": true, "--max-filesize": true,
	"-f": true, "--file": true,
	"--include": true, "--exclude": true, "--exclude-dir": true,
}

var dottedPathPattern = regexp.MustCompile(`^\.{1,2}$|\.[A-Za-z0-9_]+$`)

// ParseCommand interprets a raw shell command string. It returns one
// entry per recognized action, or nil when any part of the command is
// not recognized.
func ParseCommand(command string) []ExploreEntry {
	command = strings.TrimSpace(unwrapShell(command))
	if command == "" {
		return nil
	}

	segments := splitSegments(command)
	if len(segments) > 0 {
		if tokens := tokenize(segments[0]); len(tokens) > 0 && tokens[0] == "cd" {
			segments = segments[1:]
		}
	}
	if len(segments) == 0 {
		return nil
	}

	var entries []ExploreEntry
	for _, segment := range segments {
		segEntries := interpretSegment(segment)
		if len(segEntries) == 0 {
			return nil
		}
		entries = append(entries, segEntries...)
	}
	return dedupeEntries(entries)
}

// unwrapShell strips a wrapping shell invocation like `bash -lc "..."`,
// returning the inner command. Non-wrapped input passes through.
func unwrapShell(command string) string {
	tokens := tokenize(command)
	if len(tokens) < 3 {
		return command
	}
	shell := path.Base(tokens[0])
	if shell != "bash" && shell != "sh" && shell != "zsh" {
		return command
	}
	i := 1
	sawCommandFlag := false
	for i < len(tokens) && strings.HasPrefix(tokens[i], "-") {
		if strings.Contains(tokens[i], "c") {
			sawCommandFlag = true
		}
		i++
	}
	if !sawCommandFlag || i != len(tokens)-1 {
		return command
	}
	return tokens[i]
}

// splitSegments splits on unquoted && and ; boundaries and trims each
// segment at an unquoted pipe, tracking quote state character by
// character so separators inside quotes survive.
func splitSegments(command string) []string {
	var segments []string
	var current strings.Builder
	var inSingle, inDouble, piped bool

	flush := func() {
		seg := strings.TrimSpace(current.String())
		if seg != "" {
			segments = append(segments, seg)
		}
		current.Reset()
		piped = false
	}

	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
		case r == '"' && !inSingle:
			inDouble = !inDouble
		case !inSingle && !inDouble && r == '&' && i+1 < len(runes) && runes[i+1] == '&':
			flush()
			i++
			continue
		case !inSingle && !inDouble && r == ';':
			flush()
			continue
		case !inSingle && !inDouble && r == '|':
			// Keep what came before the pipe, ignore the rest of
			// the segment.
			piped = true
		}
		if !piped {
			current.WriteRune(r)
		}
	}
	flush()
	return segments
}

// tokenize splits a segment into tokens, honoring single quotes, double
// quotes, backticks, and backslash escapes. Quote characters are
// stripped from the resulting tokens.
func tokenize(segment string) []string {
	var tokens []string
	var current strings.Builder
	var quote rune
	inToken := false

	flush := func() {
		if inToken {
			tokens = append(tokens, current.String())
			current.Reset()
			inToken = false
		}
	}

	runes := []rune(segment)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
			inToken = true
		case r == '\\' && i+1 < len(runes):
			current.WriteRune(runes[i+1])
			inToken = true
			i++
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	flush()
	return tokens
}

func interpretSegment(segment string) []ExploreEntry {
	tokens := tokenize(segment)
	if len(tokens) == 0 {
		return nil
	}
	name := path.Base(tokens[0])
	args := tokens[1:]

	switch {
	case readCommands[name]:
		return readEntries(args)
	case listCommands[name]:
		return listEntries(args)
	case searchCommands[name]:
		return searchEntries(args)
	}
	return nil
}

func readEntries(args []string) []ExploreEntry {
	var entries []ExploreEntry
	for _, arg := range args {
		if !isPathLike(arg) {
			continue
		}
		entries = append(entries, pathEntry(EntryRead, arg))
	}
	return entries
}

func listEntries(args []string) []ExploreEntry {
	target := "."
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			continue
		}
		if isPathLike(arg) {
			target = arg
			break
		}
	}
	return []ExploreEntry{pathEntry(EntryList, target)}
}

func searchEntries(args []string) []ExploreEntry {
	var pattern, target string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--files" {
			// `rg --files` walks the tree instead of searching.
			return listEntries(args)
		}
		if strings.HasPrefix(arg, "-") {
			if searchValueFlags[flagName(arg)] && !strings.Contains(arg, "=") {
				i++
			}
			continue
		}
		if pattern == "" {
			pattern = arg
			continue
		}
		if target == "" && isPathLike(arg) {
			target = arg
		}
	}
	if pattern == "" {
		return nil
	}
	entry := ExploreEntry{Kind: EntrySearch, Label: pattern}
	if target != "" {
		entry.Detail = target
	}
	return []ExploreEntry{entry}
}

func flagName(arg string) string {
	if i := strings.IndexByte(arg, '='); i >= 0 {
		return arg[:i]
	}
	return arg
}

// isPathLike reports whether a token plausibly names a file or
// directory: not an option flag, no glob metacharacters, and either a
// path separator or a dotted name.
func isPathLike(token string) bool {
	if token == "" || strings.HasPrefix(token, "-") {
		return false
	}
	if strings.ContainsAny(token, "*?[]{}") {
		return false
	}
	if strings.ContainsRune(token, '/') || strings.ContainsRune(token, '\\') {
		return true
	}
	return dottedPathPattern.MatchString(token)
}

func pathEntry(kind EntryKind, p string) ExploreEntry {
	label := path.Base(strings.TrimRight(p, "/"))
	if label == "" || label == "/" {
		label = p
	}
	entry := ExploreEntry{Kind: kind, Label: label}
	if label != p {
		entry.Detail = p
	}
	return entry
}

func dedupeEntries(entries []ExploreEntry) []ExploreEntry {
	seen := make(map[ExploreEntry]bool, len(entries))
	out := entries[:0:0]
	for _, e := range entries {
		if seen[e] {
			continue
		}
		seen[e] = true
		out = append(out, e)
	}
	return out
}
