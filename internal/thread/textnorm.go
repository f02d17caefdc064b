package thread

import (
	"strings"
	"unicode"
)

// Text normalization heuristics for assistant message bodies. Backends
// occasionally emit pathological text: whole responses repeated two or
// three times, paragraphs streamed one character per line (most visible
// with CJK output), or the same sentence echoed back to back. Each
// heuristic fires only when its preconditions clearly hold; ambiguous
// input passes through unchanged.
//
// All thresholds live in Tuning so the policy can be adjusted or
// disabled without touching the merge logic that consumes it.

// Tuning holds the heuristic thresholds. Zero values are replaced by
// the defaults from DefaultTuning.
type Tuning struct {
	// Fragmented-paragraph merge: a run of at least FragmentRunMin
	// consecutive paragraphs, each at most FragmentMaxLen runes and
	// totalling at least FragmentMinChars runes, is joined.
	FragmentRunMin   int
	FragmentMaxLen   int
	FragmentMinChars int

	// Fragmented-line merge inside one paragraph: at least LineRunMin
	// lines of at most LineMaxLen runes each, CJK-dominant.
	LineRunMin  int
	LineMaxLen  int
	CJKRatio    float64
	CJKMinChars int

	// Sentence dedupe ignores sentences shorter than DedupeMinLen
	// runes after canonicalization.
	DedupeMinLen int

	// Near-duplicate sentence similarity: shared prefix or suffix of
	// at least AffinityRatio of the shorter sentence, or combined
	// prefix+suffix of at least CombinedRatio.
	AffinityRatio float64
	CombinedRatio float64
}

// DefaultTuning returns the thresholds tuned against observed backend
// failure modes.
func DefaultTuning() Tuning {
	return Tuning{
		FragmentRunMin:   5,
		FragmentMaxLen:   14,
		FragmentMinChars: 12,
		LineRunMin:       6,
		LineMaxLen:       10,
		CJKRatio:         0.35,
		CJKMinChars:      12,
		DedupeMinLen:     6,
		AffinityRatio:    0.72,
		CombinedRatio:    0.92,
	}
}

func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t.FragmentRunMin <= 0 {
		t.FragmentRunMin = d.FragmentRunMin
	}
	if t.FragmentMaxLen <= 0 {
		t.FragmentMaxLen = d.FragmentMaxLen
	}
	if t.FragmentMinChars <= 0 {
		t.FragmentMinChars = d.FragmentMinChars
	}
	if t.LineRunMin <= 0 {
		t.LineRunMin = d.LineRunMin
	}
	if t.LineMaxLen <= 0 {
		t.LineMaxLen = d.LineMaxLen
	}
	if t.CJKRatio <= 0 {
		t.CJKRatio = d.CJKRatio
	}
	if t.CJKMinChars <= 0 {
		t.CJKMinChars = d.CJKMinChars
	}
	if t.DedupeMinLen <= 0 {
		t.DedupeMinLen = d.DedupeMinLen
	}
	if t.AffinityRatio <= 0 {
		t.AffinityRatio = d.AffinityRatio
	}
	if t.CombinedRatio <= 0 {
		t.CombinedRatio = d.CombinedRatio
	}
	return t
}

// Normalizer applies the text heuristics and scores readability, with
// bounded memoization keyed by input text. Not safe for concurrent use;
// each Reconciler owns one.
type Normalizer struct {
	tuning Tuning
	norm   *memoCache[string]
	scores *memoCache[int]
}

// NewNormalizer creates a Normalizer with the given tuning. Zero-value
// tuning fields fall back to defaults.
func NewNormalizer(tuning Tuning) *Normalizer {
	return &Normalizer{
		tuning: tuning.withDefaults(),
		norm:   newMemoCache[string](memoCacheCapacity),
		scores: newMemoCache[int](memoCacheCapacity),
	}
}

// Normalize applies every heuristic in order and returns the cleaned
// text. The result is stable: Normalize(Normalize(s)) == Normalize(s).
func (n *Normalizer) Normalize(text string) string {
	key := memoKey(text)
	if cached, ok := n.norm.get(key); ok {
		return cached
	}
	out := n.normalize(text)
	n.norm.put(key, out)
	return out
}

func (n *Normalizer) normalize(text string) string {
	out := fixpoint(text, collapseRepeatedParagraphBlocks)
	out = fixpoint(out, collapseRepeatedWholeText)
	if n.likelyFragmented(out) {
		out = n.mergeFragmentedParagraphs(out)
	}
	out = n.mergeFragmentedLines(out)
	out = n.dedupeSentences(out)
	out = n.dedupeAdjacentParagraphs(out)
	return out
}

// ShouldNormalize reports whether Normalize is likely to improve the
// text. Messages that fail every gate are left untouched so legitimate
// content is never reshaped.
func (n *Normalizer) ShouldNormalize(text string) bool {
	if collapseRepeatedParagraphBlocks(text) != text {
		return true
	}
	if collapseRepeatedWholeText(text) != text {
		return true
	}
	if n.dedupeSentences(text) != text {
		return true
	}
	if n.likelyFragmented(text) {
		return true
	}
	return !hasRichStructure(text) && n.mergeFragmentedLines(text) != text
}

// Score computes the readability score of a candidate text; lower is
// more readable. Short choppy paragraphs raise the score, and so does
// needing normalization in the first place: up to 12 points are added
// in proportion to how much text the heuristics removed.
func (n *Normalizer) Score(text string) int {
	key := memoKey(text)
	if cached, ok := n.scores.get(key); ok {
		return cached
	}
	score := n.score(text)
	n.scores.put(key, score)
	return score
}

func (n *Normalizer) score(text string) int {
	normalized := n.Normalize(text)
	paragraphs := splitParagraphs(text)

	short := 0
	for _, p := range paragraphs {
		if len([]rune(p)) <= 8 {
			short++
		}
	}
	score := 3*short + len(paragraphs)

	rawLen := compactLen(text)
	normLen := compactLen(normalized)
	if removed := rawLen - normLen; removed > 0 && normLen >= 6 && rawLen > 0 {
		boost := 12 * removed / rawLen
		if boost > 12 {
			boost = 12
		}
		score += boost
	}
	return score
}

// BetterText picks the more readable of two candidate texts for the
// same message: lower score wins; on a tie, the longer normalized text
// wins, unless the normalized texts are compact-equal, in which case
// the longer original wins (it carries more formatting).
func (n *Normalizer) BetterText(a, b string) string {
	if a == b {
		return a
	}
	scoreA, scoreB := n.Score(a), n.Score(b)
	if scoreA < scoreB {
		return a
	}
	if scoreB < scoreA {
		return b
	}
	normA, normB := n.Normalize(a), n.Normalize(b)
	if compactText(normA) == compactText(normB) {
		if len(b) > len(a) {
			return b
		}
		return a
	}
	if len([]rune(normB)) > len([]rune(normA)) {
		return b
	}
	return a
}

// fixpoint reapplies f until the text stops changing, so a block that
// collapses in stages (six copies to three to one) still reaches its
// final form in a single Normalize call.
func fixpoint(text string, f func(string) string) string {
	for {
		next := f(text)
		if next == text {
			return text
		}
		text = next
	}
}

// --- canonical forms ---

// foldPunct maps full-width sentence punctuation to its half-width
// variant so the two spellings compare equal.
func foldPunct(r rune) rune {
	switch r {
	case '！':
		return '!'
	case '？':
		return '?'
	case '，':
		return ','
	case '。':
		return '.'
	}
	return r
}

// canonicalText strips all whitespace and folds punctuation; used for
// duplicate detection.
func canonicalText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(foldPunct(r))
	}
	return b.String()
}

// compactText collapses whitespace runs to a single space.
func compactText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// compactLen counts the non-whitespace runes of s.
func compactLen(s string) int {
	count := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}

func splitParagraphs(text string) []string {
	var paragraphs []string
	var current []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, strings.Join(current, "\n"))
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, "\n"))
	}
	return paragraphs
}

// --- repeated-block collapse ---

// collapseRepeatedParagraphBlocks reduces a text whose paragraphs are
// the same block repeated two or three times to a single copy.
func collapseRepeatedParagraphBlocks(text string) string {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) < 2 {
		return text
	}
	for _, repeats := range []int{2, 3} {
		if len(paragraphs)%repeats != 0 {
			continue
		}
		blockLen := len(paragraphs) / repeats
		if blockLen == 0 {
			continue
		}
		if paragraphBlocksEqual(paragraphs, blockLen, repeats) {
			return strings.Join(paragraphs[:blockLen], "\n\n")
		}
	}
	return text
}

func paragraphBlocksEqual(paragraphs []string, blockLen, repeats int) bool {
	for copyIdx := 1; copyIdx < repeats; copyIdx++ {
		for i := 0; i < blockLen; i++ {
			a := canonicalText(paragraphs[i])
			b := canonicalText(paragraphs[copyIdx*blockLen+i])
			if a == "" || a != b {
				return false
			}
		}
	}
	return true
}

// collapseRepeatedWholeText reduces text that is one block repeated two
// or three times at the character level (whitespace-separated copies of
// the same content) to the first copy.
func collapseRepeatedWholeText(text string) string {
	trimmed := strings.TrimSpace(text)
	canonical := canonicalText(trimmed)
	runes := []rune(canonical)
	if len(runes) < 12 {
		return text
	}
	for _, repeats := range []int{2, 3} {
		if len(runes)%repeats != 0 {
			continue
		}
		partLen := len(runes) / repeats
		part := string(runes[:partLen])
		allEqual := true
		for copyIdx := 1; copyIdx < repeats; copyIdx++ {
			if string(runes[copyIdx*partLen:(copyIdx+1)*partLen]) != part {
				allEqual = false
				break
			}
		}
		if !allEqual {
			continue
		}
		if prefix, ok := prefixWithCanonical(trimmed, part); ok {
			return prefix
		}
	}
	return text
}

// prefixWithCanonical walks the original text until its canonical form
// equals want, returning that prefix trimmed.
func prefixWithCanonical(text, want string) (string, bool) {
	var canonical strings.Builder
	for i, r := range text {
		if !unicode.IsSpace(r) {
			canonical.WriteRune(foldPunct(r))
		}
		if canonical.Len() >= len(want) {
			if canonical.String() != want {
				return "", false
			}
			end := i + len(string(r))
			return strings.TrimSpace(text[:end]), true
		}
	}
	return "", false
}

// --- fragment merging ---

// markdown block prefixes that mark a paragraph as structural rather
// than a stray fragment.
func startsMarkdownBlock(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false
	}
	switch trimmed[0] {
	case '-', '*', '+', '>', '#', '|':
		return true
	}
	if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
		return true
	}
	// Ordered list: digits followed by a dot.
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	return i > 0 && i < len(trimmed) && trimmed[i] == '.'
}

// hasRichStructure reports whether text carries real markdown layout:
// enough structural lines, fenced code, a table row, or indented code.
// Fragment heuristics never run on such text.
func hasRichStructure(text string) bool {
	structural := 0
	fences := 0
	indented := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			fences++
			continue
		}
		if startsMarkdownBlock(trimmed) {
			structural++
		}
		if isTableSeparatorRow(trimmed) {
			return true
		}
		if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			indented++
		}
	}
	return structural >= 3 || fences >= 2 || indented >= 3
}

func isTableSeparatorRow(line string) bool {
	if !strings.Contains(line, "-") || !strings.Contains(line, "|") {
		return false
	}
	for _, r := range line {
		switch r {
		case '|', '-', ':', ' ':
		default:
			return false
		}
	}
	return true
}

// likelyFragmented reports whether the text looks like it was streamed
// in tiny paragraph fragments and carries no markdown structure that
// the merge could damage.
func (n *Normalizer) likelyFragmented(text string) bool {
	if hasRichStructure(text) {
		return false
	}
	paragraphs := splitParagraphs(text)
	run := 0
	runChars := 0
	for _, p := range paragraphs {
		if n.isFragment(p) {
			run++
			runChars += len([]rune(p))
			if run >= n.tuning.FragmentRunMin && runChars >= n.tuning.FragmentMinChars {
				return true
			}
			continue
		}
		run = 0
		runChars = 0
	}
	return false
}

func (n *Normalizer) isFragment(paragraph string) bool {
	if startsMarkdownBlock(paragraph) {
		return false
	}
	if strings.Contains(paragraph, "\n") {
		return false
	}
	length := len([]rune(strings.TrimSpace(paragraph)))
	return length > 0 && length <= n.tuning.FragmentMaxLen
}

// mergeFragmentedParagraphs joins runs of tiny consecutive paragraphs
// into one, inserting a space only between alphanumeric neighbors and
// never between CJK characters.
func (n *Normalizer) mergeFragmentedParagraphs(text string) string {
	paragraphs := splitParagraphs(text)
	var out []string
	i := 0
	for i < len(paragraphs) {
		if !n.isFragment(paragraphs[i]) {
			out = append(out, paragraphs[i])
			i++
			continue
		}
		j := i
		runChars := 0
		for j < len(paragraphs) && n.isFragment(paragraphs[j]) {
			runChars += len([]rune(paragraphs[j]))
			j++
		}
		if j-i >= n.tuning.FragmentRunMin && runChars >= n.tuning.FragmentMinChars {
			out = append(out, joinFragments(paragraphs[i:j]))
		} else {
			out = append(out, paragraphs[i:j]...)
		}
		i = j
	}
	return strings.Join(out, "\n\n")
}

// joinFragments concatenates fragments, adding a space only where two
// alphanumeric characters would otherwise run together.
func joinFragments(fragments []string) string {
	var b strings.Builder
	for _, fragment := range fragments {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		if b.Len() > 0 {
			prev, _ := lastRune(b.String())
			next := firstRune(fragment)
			if isWordRune(prev) && isWordRune(next) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(fragment)
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func lastRune(s string) (rune, bool) {
	var last rune
	found := false
	for _, r := range s {
		last = r
		found = true
	}
	return last, found
}

// mergeFragmentedLines joins CJK-dominant runs of very short lines
// inside a single paragraph, with no separator at all.
func (n *Normalizer) mergeFragmentedLines(text string) string {
	if hasRichStructure(text) {
		return text
	}
	paragraphs := strings.Split(text, "\n\n")
	for pi, paragraph := range paragraphs {
		lines := strings.Split(paragraph, "\n")
		if len(lines) < n.tuning.LineRunMin {
			continue
		}
		var out []string
		i := 0
		for i < len(lines) {
			if !n.isShortLine(lines[i]) {
				out = append(out, lines[i])
				i++
				continue
			}
			j := i
			for j < len(lines) && n.isShortLine(lines[j]) {
				j++
			}
			run := lines[i:j]
			if j-i >= n.tuning.LineRunMin && n.cjkDominant(run) {
				out = append(out, joinLines(run))
			} else {
				out = append(out, run...)
			}
			i = j
		}
		paragraphs[pi] = strings.Join(out, "\n")
	}
	return strings.Join(paragraphs, "\n\n")
}

func (n *Normalizer) isShortLine(line string) bool {
	if startsMarkdownBlock(line) {
		return false
	}
	length := len([]rune(strings.TrimSpace(line)))
	return length > 0 && length <= n.tuning.LineMaxLen
}

func (n *Normalizer) cjkDominant(lines []string) bool {
	total := 0
	visible := 0
	cjk := 0
	for _, line := range lines {
		for _, r := range line {
			total++
			if unicode.IsSpace(r) {
				continue
			}
			visible++
			if isCJK(r) {
				cjk++
			}
		}
		total++ // the joined newline
	}
	if total < n.tuning.CJKMinChars || visible == 0 {
		return false
	}
	return float64(cjk)/float64(visible) >= n.tuning.CJKRatio
}

func joinLines(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(strings.TrimSpace(line))
	}
	return b.String()
}

// --- sentence dedupe ---

// splitSentences splits on CJK and ASCII sentence terminators, keeping
// each terminator attached to its sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range text {
		current.WriteRune(r)
		switch r {
		case '。', '！', '？', '!', '?':
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

// dedupeSentences collapses immediately-repeated sentences and detects
// whole-text repetition at the sentence-block level, keeping the
// best-quality block.
func (n *Normalizer) dedupeSentences(text string) string {
	sentences := splitSentences(text)
	if len(sentences) < 2 {
		return text
	}

	// Immediate repeats.
	var kept []string
	for _, sentence := range sentences {
		if len(kept) > 0 {
			prev := canonicalText(kept[len(kept)-1])
			cur := canonicalText(sentence)
			if len([]rune(cur)) >= n.tuning.DedupeMinLen && prev == cur {
				continue
			}
		}
		kept = append(kept, sentence)
	}

	changed := len(kept) != len(sentences)

	// Whole-text repetition in equal sentence blocks.
	for _, repeats := range []int{2, 3} {
		if len(kept)%repeats != 0 || len(kept) < repeats {
			continue
		}
		blockLen := len(kept) / repeats
		if len([]rune(canonicalText(strings.Join(kept[:blockLen], "")))) < n.tuning.DedupeMinLen {
			continue
		}
		if !n.sentenceBlocksNearEqual(kept, blockLen, repeats) {
			continue
		}
		best := 0
		bestQuality := blockQuality(kept[:blockLen])
		for copyIdx := 1; copyIdx < repeats; copyIdx++ {
			quality := blockQuality(kept[copyIdx*blockLen : (copyIdx+1)*blockLen])
			if quality > bestQuality {
				bestQuality = quality
				best = copyIdx
			}
		}
		kept = kept[best*blockLen : (best+1)*blockLen]
		changed = true
		break
	}

	if !changed {
		return text
	}
	return strings.TrimSpace(strings.Join(kept, ""))
}

func (n *Normalizer) sentenceBlocksNearEqual(sentences []string, blockLen, repeats int) bool {
	for copyIdx := 1; copyIdx < repeats; copyIdx++ {
		for i := 0; i < blockLen; i++ {
			if !n.nearDuplicate(sentences[i], sentences[copyIdx*blockLen+i]) {
				return false
			}
		}
	}
	return true
}

// nearDuplicate reports whether two sentences say the same thing:
// canonically equal, one containing the other, or sharing enough of a
// prefix or suffix.
func (n *Normalizer) nearDuplicate(a, b string) bool {
	ca, cb := canonicalText(a), canonicalText(b)
	if ca == "" || cb == "" {
		return ca == cb
	}
	if ca == cb {
		return true
	}
	if strings.Contains(ca, cb) || strings.Contains(cb, ca) {
		return true
	}
	ra, rb := []rune(ca), []rune(cb)
	shorter := len(ra)
	if len(rb) < shorter {
		shorter = len(rb)
	}
	prefix := commonPrefixLen(ra, rb)
	suffix := commonSuffixLen(ra, rb)
	if float64(prefix) >= n.tuning.AffinityRatio*float64(shorter) {
		return true
	}
	if float64(suffix) >= n.tuning.AffinityRatio*float64(shorter) {
		return true
	}
	combined := prefix + suffix
	if combined > shorter {
		combined = shorter
	}
	return float64(combined) >= n.tuning.CombinedRatio*float64(shorter)
}

func commonPrefixLen(a, b []rune) int {
	i := 0
	for i < len(a) && i < len(b) && a[i] == b[i] {
		i++
	}
	return i
}

func commonSuffixLen(a, b []rune) int {
	i := 0
	for i < len(a) && i < len(b) && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}

// blockQuality ranks a candidate sentence block: more compact content
// and punctuation is better, hard line breaks are worse.
func blockQuality(sentences []string) int {
	joined := strings.Join(sentences, "")
	quality := compactLen(joined)
	for _, r := range joined {
		switch {
		case strings.ContainsRune(",.;:!?，。；：！？", r):
			quality += 2
		case r == '\n':
			quality--
		}
	}
	return quality
}

// dedupeAdjacentParagraphs drops a paragraph that duplicates the one
// immediately before it.
func (n *Normalizer) dedupeAdjacentParagraphs(text string) string {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) < 2 {
		return text
	}
	out := paragraphs[:1]
	for _, p := range paragraphs[1:] {
		prev := canonicalText(out[len(out)-1])
		cur := canonicalText(p)
		if len([]rune(cur)) >= n.tuning.DedupeMinLen && prev == cur {
			continue
		}
		out = append(out, p)
	}
	if len(out) == len(paragraphs) {
		return text
	}
	return strings.Join(out, "\n\n")
}
