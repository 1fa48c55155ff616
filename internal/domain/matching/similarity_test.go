package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameSimilarity_IdenticalIsOne(t *testing.T) {
	assert.Equal(t, 1.0, NameSimilarity("Acme Corp", "Acme Corp"))
	assert.Equal(t, 1.0, NameSimilarity("acme corp", "ACME CORP"))
}

func TestNameSimilarity_Reflexive(t *testing.T) {
	for _, name := range []string{"Acme", "John Smith", "a b c"} {
		assert.Equal(t, 1.0, NameSimilarity(name, name))
	}
}

func TestNameSimilarity_SubstringContainment(t *testing.T) {
	assert.Equal(t, 0.8, NameSimilarity("Acme", "Acme Corp"))
	// Symmetric under containment in either direction.
	assert.Equal(t, 0.8, NameSimilarity("Acme Corp", "Acme"))
}

func TestNameSimilarity_WordOverlap(t *testing.T) {
	// {john, smith} vs {smith, enterprises}: intersection 1, union 3.
	assert.InDelta(t, 1.0/3.0, NameSimilarity("John Smith", "Smith Enterprises"), 1e-9)
}

func TestNameSimilarity_NoOverlap(t *testing.T) {
	assert.Equal(t, 0.0, NameSimilarity("Alpha Beta", "Gamma Delta"))
}

func TestNameSimilarity_Empty(t *testing.T) {
	assert.Equal(t, 0.0, NameSimilarity("", "Acme"))
	assert.Equal(t, 0.0, NameSimilarity("Acme", ""))
	assert.Equal(t, 0.0, NameSimilarity("", ""))
}

func TestExtractCandidateNames_FiltersBankingTerms(t *testing.T) {
	names := ExtractCandidateNames("Payment from Acme via online transfer")

	assert.Contains(t, names, "Acme")
	assert.NotContains(t, names, "Payment")
	assert.NotContains(t, names, "from")
	assert.NotContains(t, names, "online")
}

func TestExtractCandidateNames_IncludesBigrams(t *testing.T) {
	names := ExtractCandidateNames("Deposit John Smith invoice")

	assert.Contains(t, names, "John")
	assert.Contains(t, names, "Smith")
	assert.Contains(t, names, "John Smith")
	// Bigrams touching a banking term are excluded.
	assert.NotContains(t, names, "Deposit John")
}

func TestExtractCandidateNames_SinglesBeforeBigrams(t *testing.T) {
	names := ExtractCandidateNames("John Smith")

	assert.Equal(t, []string{"John", "Smith", "John Smith"}, names)
}

func TestExtractCandidateNames_MinTokenLength(t *testing.T) {
	// Single-letter tokens never come out of the word pattern.
	names := ExtractCandidateNames("A Acme B")

	assert.Equal(t, []string{"Acme"}, names)
}

func TestExtractCandidateNames_Empty(t *testing.T) {
	assert.Nil(t, ExtractCandidateNames(""))
	assert.Nil(t, ExtractCandidateNames("123 456"))
}
