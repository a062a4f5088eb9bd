package textproc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_TargetFirstReconstructsFieldMarker(t *testing.T) {
	// label survives with its colon even though the value was secondary only
	got := Normalize("Ministry नाम: वित्त मंत्रालय", LabelTargetFirst)
	assert.Equal(t, "Ministry:", got)
}

func TestNormalize_SecondaryFirstKeepsTrailingTarget(t *testing.T) {
	got := Normalize("वित्त मंत्रालय Ministry: Finance", LabelSecondaryFirst)
	assert.Equal(t, "Ministry: Finance", got)
}

func TestNormalize_PureASCIIPassesThroughUnchanged(t *testing.T) {
	text := "Bid Number: GEMC-511687-123\nMinistry: Finance\nTotal Quantity: 40"
	for _, label := range []Label{LabelSecondaryFirst, LabelTargetFirst, LabelMixed} {
		assert.Equal(t, text, Normalize(text, label), "label %s", label)
	}
}

func TestNormalize_MixedUnionsBothDirections(t *testing.T) {
	got := Normalize("वित्त Finance मंत्रालय", LabelMixed)
	// secondary-first keeps "Finance मंत्रालय"-side pieces, target-first the
	// leading ones; the union holds "Finance" exactly once
	assert.Equal(t, "Finance", got)
}

func TestNormalize_EmptyInput(t *testing.T) {
	for _, label := range []Label{LabelSecondaryFirst, LabelTargetFirst, LabelMixed} {
		assert.Equal(t, "", Normalize("", label))
	}
}

func TestNormalize_AllSecondaryYieldsEmpty(t *testing.T) {
	assert.Equal(t, "", Normalize("वित्त मंत्रालय", LabelSecondaryFirst))
	assert.Equal(t, "", Normalize("वित्त मंत्रालय", LabelMixed))
}

func TestNormalize_RemovesCIDArtifacts(t *testing.T) {
	got := Normalize("Total (cid:123) Quantity: 40", LabelMixed)
	assert.Equal(t, "Total Quantity: 40", got)
}

func TestNormalize_CollapsesWhitespace(t *testing.T) {
	got := Normalize("Bid Number:    GEMC-1\t\tend", LabelMixed)
	assert.Equal(t, "Bid Number: GEMC-1 end", got)
}

func TestNormalize_MultilineKeepsLineOrder(t *testing.T) {
	text := "वित्त First line\nवित्त Second line"
	got := Normalize(text, LabelSecondaryFirst)
	assert.Equal(t, "First line\nSecond line", got)
}
