package textproc

import (
	"regexp"
	"strings"
)

// secondaryRun matches one maximal run of secondary-script characters.
var secondaryRun = regexp.MustCompile(`[^\x00-\x7F]+`)

// fieldMarker matches an ASCII label whose colon was swallowed by a trailing
// secondary-script run ("Ministry नाम:"). The label is preserved and the
// colon reattached even when the value itself is secondary-script only.
var fieldMarker = regexp.MustCompile(`([A-Za-z][A-Za-z0-9 /().-]*[A-Za-z0-9)])[ \t]*[^\x00-\x7F:]+:`)

// Normalize applies the cleaning strategy selected by label and returns text
// containing only target-script content. An empty result is a valid outcome
// meaning nothing was recoverable, not an error.
func Normalize(text string, label Label) string {
	if text == "" {
		return ""
	}

	var lines []string
	switch label {
	case LabelSecondaryFirst:
		lines = normalizeLines(text, secondaryFirstSegments)
	case LabelTargetFirst:
		lines = normalizeLines(text, targetFirstSegments)
	default:
		lines = normalizeLines(text, mixedSegments)
	}

	out := make([]string, 0, len(lines))
	for _, ln := range lines {
		ln = collapseSpaces(removeArtifacts(ln))
		if ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}

type segmentFunc func(line string) []string

func normalizeLines(text string, segs segmentFunc) []string {
	var lines []string
	for _, ln := range strings.Split(text, "\n") {
		lines = append(lines, segs(ln)...)
	}
	return lines
}

// secondaryFirstSegments keeps the target text following each secondary run,
// up to the next secondary run or the end of the line. Lines without
// secondary content are kept whole.
func secondaryFirstSegments(line string) []string {
	if !secondaryRun.MatchString(line) {
		return []string{line}
	}
	pieces := secondaryRun.Split(line, -1)
	var segs []string
	for _, p := range pieces[1:] {
		if p = strings.TrimSpace(p); p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// targetFirstSegments keeps the target text preceding each secondary run.
// Label-colon-secondary field patterns are recognized first so the field
// marker survives even when its value was secondary-script only.
func targetFirstSegments(line string) []string {
	if !secondaryRun.MatchString(line) {
		return []string{line}
	}
	line = fieldMarker.ReplaceAllString(line, "$1:")
	pieces := secondaryRun.Split(line, -1)
	var segs []string
	for _, p := range pieces[:len(pieces)-1] {
		if p = strings.TrimSpace(p); p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// mixedSegments applies both directional techniques plus a whole-line
// secondary-run removal pass and unions the distinct segments in order of
// first appearance.
func mixedSegments(line string) []string {
	if !secondaryRun.MatchString(line) {
		return []string{line}
	}
	seen := map[string]struct{}{}
	var segs []string
	add := func(ss []string) {
		for _, s := range ss {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			segs = append(segs, s)
		}
	}
	add(secondaryFirstSegments(line))
	add(targetFirstSegments(line))
	if stripped := strings.TrimSpace(secondaryRun.ReplaceAllString(line, " ")); stripped != "" {
		add([]string{stripped})
	}
	return segs
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

var spaceRun = regexp.MustCompile(`[ \t]{2,}`)
