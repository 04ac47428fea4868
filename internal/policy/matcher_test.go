package policy

import "testing"

func TestTokenizeCountsAlphabeticTerms(t *testing.T) {
	counts := tokenize("Remote work: work from home, 3 days a week!")
	if counts["work"] != 2 {
		t.Fatalf("expected work counted twice, got %d", counts["work"])
	}
	if _, ok := counts["a"]; ok {
		t.Fatal("single-letter tokens must be dropped")
	}
	if _, ok := counts["3"]; ok {
		t.Fatal("numeric tokens must be dropped")
	}
	if counts["remote"] != 1 {
		t.Fatalf("expected lowercased remote, got %d", counts["remote"])
	}
}

func TestCosineSimilarityBounds(t *testing.T) {
	a := tokenize("vacation leave policy")
	if got := cosineSimilarity(a, a); got < 0.999 {
		t.Fatalf("identical vectors should score ~1, got %f", got)
	}
	b := tokenize("completely unrelated text")
	if got := cosineSimilarity(a, b); got != 0 {
		t.Fatalf("disjoint vectors should score 0, got %f", got)
	}
	if got := cosineSimilarity(a, map[string]int{}); got != 0 {
		t.Fatalf("empty vector should score 0, got %f", got)
	}
}

func TestSanitizeQuestion(t *testing.T) {
	got := sanitizeQuestion("Contact alex.kim@example.com about payroll id 12345678")
	want := "Contact [REDACTED_EMAIL] about payroll id [REDACTED_NUMBER]"
	if got != want {
		t.Fatalf("sanitize: got %q, want %q", got, want)
	}

	// Short numbers stay intact.
	if got := sanitizeQuestion("3 days per week"); got != "3 days per week" {
		t.Fatalf("short number redacted: %q", got)
	}
}
