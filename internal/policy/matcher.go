package policy

import (
	"math"
	"regexp"
	"strings"
)

var (
	tokenPattern  = regexp.MustCompile(`[a-zA-Z]{2,}`)
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+`)
	numberPattern = regexp.MustCompile(`\b\d{6,}\b`)
)

// Boost constants applied on top of the raw cosine score. The sum is not
// clamped before the final confidence rule; scores above 1.0 are expected.
const (
	audienceBoost  = 0.08
	tagBoost       = 0.03
	scoreThreshold = 0.08
)

// tokenize lowercases text and counts alphabetic tokens of length >= 2,
// producing a sparse term-frequency vector.
func tokenize(text string) map[string]int {
	counts := make(map[string]int)
	for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		counts[token]++
	}
	return counts
}

// cosineSimilarity computes the normalized dot product of two term-frequency
// vectors. Either vector being empty yields 0.
func cosineSimilarity(a, b map[string]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot float64
	for term, av := range a {
		if bv, ok := b[term]; ok {
			dot += float64(av) * float64(bv)
		}
	}
	var normA, normB float64
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sanitizeQuestion replaces emails and long numeric sequences with redaction
// markers. Applied to stored receipts and logged events, never to the answer
// returned to the caller.
func sanitizeQuestion(question string) string {
	question = emailPattern.ReplaceAllString(question, "[REDACTED_EMAIL]")
	question = numberPattern.ReplaceAllString(question, "[REDACTED_NUMBER]")
	return question
}

// indexText concatenates the searchable fields of a document.
func indexText(doc Document) string {
	return strings.Join([]string{
		doc.Title,
		doc.Category,
		doc.Audience,
		doc.Content,
		strings.Join(doc.Tags, " "),
	}, " ")
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
