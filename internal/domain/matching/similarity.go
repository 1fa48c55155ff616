package matching

import (
	"regexp"
	"strings"
)

// wordPattern extracts alphabetic tokens of length >= 2.
var wordPattern = regexp.MustCompile(`\b[A-Za-z]{2,}\b`)

// bankingTerms are generic statement words that never identify a customer.
var bankingTerms = map[string]bool{
	"payment": true, "from": true, "to": true, "transfer": true,
	"bank": true, "transaction": true, "ref": true, "reference": true,
	"deposit": true, "withdrawal": true, "fee": true, "charge": true,
	"via": true, "online": true, "mobile": true, "app": true,
	"card": true, "cash": true, "check": true,
}

// ExtractCandidateNames pulls potential customer names out of a transaction
// description: single tokens first, then adjacent-pair bigrams, banking
// terms excluded. Order matters downstream - earlier candidates win
// confidence ties.
func ExtractCandidateNames(description string) []string {
	if description == "" {
		return nil
	}

	words := wordPattern.FindAllString(description, -1)

	var names []string
	for _, word := range words {
		if !bankingTerms[strings.ToLower(word)] {
			names = append(names, word)
		}
	}

	for i := 0; i+1 < len(words); i++ {
		if bankingTerms[strings.ToLower(words[i])] || bankingTerms[strings.ToLower(words[i+1])] {
			continue
		}
		names = append(names, words[i]+" "+words[i+1])
	}

	return names
}

// NameSimilarity scores how well two names match, in [0, 1]:
// identical (case-insensitive) 1.0, substring containment 0.8, otherwise
// the Jaccard overlap of their word sets.
func NameSimilarity(name1, name2 string) float64 {
	if name1 == "" || name2 == "" {
		return 0.0
	}

	lower1 := strings.ToLower(name1)
	lower2 := strings.ToLower(name2)

	if lower1 == lower2 {
		return 1.0
	}

	if strings.Contains(lower1, lower2) || strings.Contains(lower2, lower1) {
		return 0.8
	}

	words1 := wordSet(lower1)
	words2 := wordSet(lower2)
	if len(words1) == 0 || len(words2) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range words1 {
		if words2[w] {
			intersection++
		}
	}
	union := len(words1) + len(words2) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}
