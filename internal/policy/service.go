package policy

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/meridian-hr/meridian/internal/eventlog"
	"github.com/meridian-hr/meridian/internal/platform/httpx"
	"github.com/meridian-hr/meridian/internal/rbac"
	"github.com/meridian-hr/meridian/internal/store"
)

const governanceNotice = "Output is policy guidance only. Personal data is redacted in analytics logs and subject to GDPR controls."

const escalationAnswer = "No direct policy match was found with high confidence. " +
	"Escalate to HR for interpretation and policy exception handling."

// ConsentChecker gates queries on the actor's consent flag.
type ConsentChecker interface {
	EnsureConsent(actor rbac.Actor, purpose string) error
}

// Service answers policy questions against the in-memory index built once at
// construction.
type Service struct {
	docs       []Document
	index      map[string]map[string]int
	store      *store.Store
	log        *eventlog.Log
	governance ConsentChecker
}

// NewService builds the term-frequency index over the corpus.
func NewService(docs []Document, st *store.Store, log *eventlog.Log, governance ConsentChecker) *Service {
	index := make(map[string]map[string]int, len(docs))
	for _, doc := range docs {
		index[doc.ID] = tokenize(indexText(doc))
	}
	return &Service{docs: docs, index: index, store: st, log: log, governance: governance}
}

// List returns the full corpus.
func (s *Service) List(ctx context.Context) []Document {
	return s.docs
}

type scoredDoc struct {
	doc   Document
	score float64
}

// Query scores the question against every document, ranks, and renders an
// answer with citations. The actor's consent is required before any scoring
// runs; a receipt is persisted and a sanitized policy_query event appended.
func (s *Service) Query(ctx context.Context, actor rbac.Actor, question string) (QueryResult, error) {
	if err := s.governance.EnsureConsent(actor, "policy_assistance"); err != nil {
		return QueryResult{}, err
	}

	qTokens := tokenize(question)
	roleKeyword := strings.ToLower(string(actor.Role))
	questionLower := strings.ToLower(question)

	scored := make([]scoredDoc, 0, len(s.docs))
	for _, doc := range s.docs {
		score := cosineSimilarity(qTokens, s.index[doc.ID])
		if strings.Contains(strings.ToLower(doc.Audience), roleKeyword) {
			score += audienceBoost
		}
		for _, tag := range doc.Tags {
			if strings.Contains(questionLower, strings.ToLower(tag)) {
				score += tagBoost
			}
		}
		scored = append(scored, scoredDoc{doc: doc, score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	top := scored[0]
	var answer string
	var citations []Citation
	var confidence float64
	if top.score < scoreThreshold {
		answer = escalationAnswer
		citations = []Citation{{PolicyID: top.doc.ID, Title: top.doc.Title}}
		confidence = round3(max(top.score, 0.2))
	} else {
		answer = fmt.Sprintf("Based on '%s', %s Follow the documented approval chain and record all actions in the HRIS workflow log.",
			top.doc.Title, top.doc.Content)
		for _, sd := range scored[:min(2, len(scored))] {
			citations = append(citations, Citation{PolicyID: sd.doc.ID, Title: sd.doc.Title})
		}
		confidence = round3(min(0.99, top.score+0.25))
	}

	citedIDs := make([]string, len(citations))
	for i, c := range citations {
		citedIDs[i] = c.PolicyID
	}
	sanitized := sanitizeQuestion(question)
	responseID := "pol-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	if err := s.store.Update(func(state *store.State) error {
		state.PolicyReceipts[responseID] = &store.PolicyReceipt{
			ID:         responseID,
			UserID:     actor.ID,
			Question:   sanitized,
			Citations:  citedIDs,
			Confidence: confidence,
		}
		return nil
	}); err != nil {
		return QueryResult{}, err
	}

	if err := s.log.Append("policy_query", actor.ID, string(actor.Role), map[string]any{
		"response_id": responseID,
		"question":    sanitized,
		"confidence":  confidence,
		"citations":   citedIDs,
	}); err != nil {
		return QueryResult{}, err
	}

	return QueryResult{
		ResponseID:       responseID,
		Answer:           answer,
		Confidence:       confidence,
		Citations:        citations,
		GovernanceNotice: governanceNotice,
	}, nil
}

// Feedback records an accuracy flag against a prior response. The receipt is
// validated but never mutated; the feedback lives only in the event log.
func (s *Service) Feedback(ctx context.Context, actor rbac.Actor, responseID string, accurate bool, comment string) error {
	var exists bool
	if err := s.store.View(func(state *store.State) error {
		_, exists = state.PolicyReceipts[responseID]
		return nil
	}); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("policy: response %s: %w", responseID, httpx.ErrNotFound)
	}

	return s.log.Append("policy_feedback", actor.ID, string(actor.Role), map[string]any{
		"response_id": responseID,
		"accurate":    accurate,
		"comment":     comment,
	})
}
