package thread

import (
	"strings"
	"testing"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(Tuning{})
}

func TestNormalize_RepeatedParagraphBlocks(t *testing.T) {
	n := newTestNormalizer()

	if got := n.Normalize("A\n\nA\n\nA"); got != "A" {
		t.Errorf("triple paragraph: got %q, want %q", got, "A")
	}

	doubled := "First paragraph here.\n\nSecond paragraph here.\n\nFirst paragraph here.\n\nSecond paragraph here."
	want := "First paragraph here.\n\nSecond paragraph here."
	if got := n.Normalize(doubled); got != want {
		t.Errorf("doubled block: got %q, want %q", got, want)
	}
}

func TestNormalize_RepeatedBlocksWithPunctuationVariants(t *testing.T) {
	n := newTestNormalizer()
	// Full-width and half-width punctuation compare equal.
	text := "完成了！\n\n完成了!"
	got := n.Normalize(text)
	if strings.Count(got, "完成了") != 1 {
		t.Errorf("expected single copy, got %q", got)
	}
}

func TestNormalize_WholeTextDoubled(t *testing.T) {
	n := newTestNormalizer()
	base := "The fix is in place and all checks pass."
	got := n.Normalize(base + " " + base)
	if got != base {
		t.Errorf("got %q, want %q", got, base)
	}
}

func TestNormalize_WholeTextTripled(t *testing.T) {
	n := newTestNormalizer()
	base := "所有修改都已经完成了"
	got := n.Normalize(base + "\n" + base + "\n" + base)
	if got != base {
		t.Errorf("got %q, want %q", got, base)
	}
}

func TestNormalize_FragmentedCJKLines(t *testing.T) {
	n := newTestNormalizer()
	text := "你好\n好\n！\n我\n是\n你\n的\n助手\n。"
	want := "你好好！我是你的助手。"
	got := n.Normalize(text)
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if strings.Contains(got, "\n") {
		t.Errorf("joined text still contains newlines: %q", got)
	}
}

func TestNormalize_FragmentedParagraphsJoinedWithSpaces(t *testing.T) {
	n := newTestNormalizer()
	// Word fragments separated by blank lines; alphanumeric neighbors
	// get a space, so the sentence reads normally after the merge.
	text := "The\n\nfix\n\nis\n\nnow\n\ncomplete\n\ntoday"
	got := n.Normalize(text)
	if got != "The fix is now complete today" {
		t.Errorf("got %q", got)
	}
}

func TestNormalize_ListItemsNotMerged(t *testing.T) {
	n := newTestNormalizer()
	text := "- one\n\n- two\n\n- three\n\n- four\n\n- five\n\n- six"
	if got := n.Normalize(text); got != text {
		t.Errorf("markdown list was reshaped: %q", got)
	}
}

func TestNormalize_RichMarkdownGuard(t *testing.T) {
	n := newTestNormalizer()
	text := "```go\nfunc a() {}\n```\n\nok\n\nyes\n\nnow\n\ndone\n\nfine"
	got := n.Normalize(text)
	if !strings.Contains(got, "```go") {
		t.Errorf("code fence lost: %q", got)
	}
	if got != text {
		t.Errorf("fragment merge ran despite code fences: %q", got)
	}
}

func TestNormalize_ImmediateSentenceRepeat(t *testing.T) {
	n := newTestNormalizer()
	text := "The change is ready for review. The change is ready for review."
	want := "The change is ready for review."
	if got := n.Normalize(text); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNormalize_ShortSentenceRepeatKept(t *testing.T) {
	n := newTestNormalizer()
	// Sentences below the dedupe threshold are left alone.
	text := "Yes. Yes."
	if got := n.Normalize(text); got != text {
		t.Errorf("short repeat collapsed: got %q", got)
	}
}

func TestNormalize_AdjacentDuplicateParagraphs(t *testing.T) {
	n := newTestNormalizer()
	text := "Everything is done\n\nEverything  is done"
	got := n.Normalize(text)
	if strings.Count(got, "done") != 1 {
		t.Errorf("duplicate paragraph survived: %q", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := newTestNormalizer()
	inputs := []string{
		"A\n\nA\n\nA",
		"A\n\nA\n\nA\n\nA\n\nA\n\nA",
		"你好\n好\n！\n我\n是\n你\n的\n助手\n。",
		"The change is ready. The change is ready.",
		"plain text with\n\nseveral paragraphs\n\nand nothing wrong",
		"- a\n- b\n- c\n\ntable | row",
		"",
	}
	for _, input := range inputs {
		once := n.Normalize(input)
		twice := n.Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestNormalize_CleanTextUntouched(t *testing.T) {
	n := newTestNormalizer()
	inputs := []string{
		"A single clean paragraph with nothing to fix.",
		"Intro line.\n\nSecond paragraph that is long enough to stand alone.",
		"# Heading\n\nSome body text under it.\n\n- item one\n- item two\n- item three",
	}
	for _, input := range inputs {
		if got := n.Normalize(input); got != input {
			t.Errorf("clean text modified:\n in: %q\nout: %q", input, got)
		}
	}
}

func TestShouldNormalize(t *testing.T) {
	n := newTestNormalizer()
	cases := []struct {
		text string
		want bool
	}{
		{"A\n\nA\n\nA", true},
		{"你好\n好\n！\n我\n是\n你\n的\n助手\n。", true},
		{"The change is ready for review. The change is ready for review.", true},
		{"A single clean paragraph with nothing to fix.", false},
		{"- a\n- b\n- c\n- d\n- e\n- f", false},
	}
	for _, tc := range cases {
		if got := n.ShouldNormalize(tc.text); got != tc.want {
			t.Errorf("ShouldNormalize(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestScore_LowerIsMoreReadable(t *testing.T) {
	n := newTestNormalizer()
	choppy := "Hi\n\nso\n\nok\n\nnow\n\nyes\n\ndone"
	flowing := "Hi, so everything is okay now and the work is done."
	if n.Score(flowing) >= n.Score(choppy) {
		t.Errorf("flowing text should score lower: flowing=%d choppy=%d",
			n.Score(flowing), n.Score(choppy))
	}
}

func TestScore_PenalizesRemovedText(t *testing.T) {
	n := newTestNormalizer()
	clean := "The work is finished and verified."
	doubled := clean + " " + clean
	if n.Score(doubled) <= n.Score(clean) {
		t.Errorf("text needing normalization should score higher: doubled=%d clean=%d",
			n.Score(doubled), n.Score(clean))
	}
}

func TestBetterText_PrefersLongerWhenClean(t *testing.T) {
	n := newTestNormalizer()
	short := "Hi"
	long := "Hi there, more detail"
	if got := n.BetterText(short, long); got != long {
		t.Errorf("got %q, want longer candidate", got)
	}
	if got := n.BetterText(long, short); got != long {
		t.Errorf("order changed the winner: got %q", got)
	}
}

func TestBetterText_PrefersCleanOverRepeated(t *testing.T) {
	n := newTestNormalizer()
	clean := "Everything is in place and the tests pass."
	repeated := clean + " " + clean
	if got := n.BetterText(clean, repeated); got != clean {
		t.Errorf("got %q, want the clean candidate", got)
	}
}

func TestNormalize_CachesResults(t *testing.T) {
	n := newTestNormalizer()
	text := "A\n\nA\n\nA"
	first := n.Normalize(text)
	if n.norm.len() == 0 {
		t.Fatal("expected cache entry after Normalize")
	}
	if second := n.Normalize(text); second != first {
		t.Errorf("cached result differs: %q vs %q", first, second)
	}
}

func TestMemoCache_FIFOEviction(t *testing.T) {
	c := newMemoCache[int](2)
	c.put(1, 10)
	c.put(2, 20)
	c.put(3, 30)
	if _, ok := c.get(1); ok {
		t.Error("oldest entry should have been evicted")
	}
	if v, ok := c.get(3); !ok || v != 30 {
		t.Errorf("newest entry missing: %v %v", v, ok)
	}
	if c.len() != 2 {
		t.Errorf("len = %d, want 2", c.len())
	}
}
