// Package policy implements the lexical policy matcher: a bag-of-words
// cosine score over a static corpus with role and tag boosts. It is not a
// semantic search engine and does not pretend to be one.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
)

// Document is one policy in the static corpus, loaded once at startup and
// immutable for the process lifetime.
type Document struct {
	ID          string   `json:"policy_id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Audience    string   `json:"audience"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags"`
	Effective   string   `json:"effective_date"`
	LastUpdated string   `json:"last_updated"`
}

// Citation names a policy document referenced by an answer.
type Citation struct {
	PolicyID string `json:"policy_id"`
	Title    string `json:"title"`
}

// QueryResult is the answer produced for one question.
type QueryResult struct {
	ResponseID       string
	Answer           string
	Confidence       float64
	Citations        []Citation
	GovernanceNotice string
}

// LoadDocuments reads the policy corpus from a JSON dataset file.
func LoadDocuments(path string) ([]Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy: read dataset %s: %w", path, err)
	}
	var docs []Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("policy: parse dataset %s: %w", path, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("policy: dataset %s is empty", path)
	}
	return docs, nil
}
