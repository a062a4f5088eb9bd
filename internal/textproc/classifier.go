package textproc

import "regexp"

// Label classifies the bilingual layout of raw document text.
type Label string

const (
	// LabelSecondaryFirst means secondary-script runs lead and the target
	// text follows them (e.g. a Devanagari label followed by its English
	// rendering).
	LabelSecondaryFirst Label = "SECONDARY_FIRST"
	// LabelTargetFirst means target-script text leads and secondary runs
	// trail it.
	LabelTargetFirst Label = "TARGET_FIRST"
	// LabelMixed is the conservative default for ties and low counts.
	LabelMixed Label = "MIXED"
)

// minDominantCount is the threshold a dominant adjacency count must reach
// before a directional label is assigned. Below it we fall back to MIXED,
// which selects the union-of-strategies cleaning path.
const minDominantCount = 1

// Adjacency patterns between secondary-script runs (any rune above 0x7F) and
// target-script letters. Field-style (label-colon) adjacencies are counted
// separately in both orderings since they are the strongest layout signal in
// GeM documents.
var (
	secThenTarget  = regexp.MustCompile(`[^\x00-\x7F]+[ \t]+[A-Za-z]`)
	targetThenSec  = regexp.MustCompile(`[A-Za-z][ \t]+[^\x00-\x7F]+`)
	secFieldAdj    = regexp.MustCompile(`[^\x00-\x7F]+[ \t]+[A-Za-z][A-Za-z0-9 /().-]*:`)
	targetFieldAdj = regexp.MustCompile(`[A-Za-z][A-Za-z0-9 /().-]*[ \t]*[^\x00-\x7F]+:`)
)

// Classify inspects raw extracted text and labels its bilingual layout.
// It is a pure function and never fails; text with neither pattern simply
// classifies as MIXED.
func Classify(text string) Label {
	secondaryFirst := len(secThenTarget.FindAllStringIndex(text, -1)) +
		len(secFieldAdj.FindAllStringIndex(text, -1))
	targetFirst := len(targetThenSec.FindAllStringIndex(text, -1)) +
		len(targetFieldAdj.FindAllStringIndex(text, -1))

	switch {
	case secondaryFirst > targetFirst && secondaryFirst >= minDominantCount:
		return LabelSecondaryFirst
	case targetFirst > secondaryFirst && targetFirst >= minDominantCount:
		return LabelTargetFirst
	default:
		return LabelMixed
	}
}
