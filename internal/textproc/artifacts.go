package textproc

import "regexp"

// Known artifact substrings left behind by the PDF text layer and OCR of
// bilingual GeM documents. The cid tokens come from broken font encodings;
// the remaining patterns are boilerplate fragments that survive
// secondary-script removal and carry no field data.
var artifactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\(cid:\d+\)`),
	regexp.MustCompile(`(?i)MSME Registration number.*?GSTIN`),
	regexp.MustCompile(`(?i)Registration number.*?GSTIN`),
	regexp.MustCompile(`(?i)Tax invoice.*?Buyer`),
	regexp.MustCompile(`(?i)Delivery Instructions.*?NA`),
}

func removeArtifacts(s string) string {
	for _, p := range artifactPatterns {
		s = p.ReplaceAllString(s, "")
	}
	return s
}
