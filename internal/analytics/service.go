// Package analytics derives KPI reports by replaying the event log. No
// counter is maintained anywhere else; every figure is reconstructible from
// the log alone.
package analytics

import (
	"context"
	"math"

	"golang.org/x/sync/singleflight"

	"github.com/meridian-hr/meridian/internal/eventlog"
)

// UsageMetrics summarizes policy query traffic.
type UsageMetrics struct {
	TotalPolicyQueries int
	UniqueUsers        int
	QueriesByRole      map[string]int
}

// AccuracyMetrics summarizes feedback on policy answers.
type AccuracyMetrics struct {
	FeedbackSamples int
	AccuracyRate    float64
}

// AutomationMetrics splits manual workflow actions from system-generated
// ones. The two event tags feeding this are workflow_action and
// automation_event.
type AutomationMetrics struct {
	TotalWorkflowActions int
	AutomatedActions     int
	AutomationRate       float64
}

// KPIReport is the full dashboard payload.
type KPIReport struct {
	Usage            UsageMetrics
	ResponseAccuracy AccuracyMetrics
	Automation       AutomationMetrics
}

// Service replays the event log on demand.
type Service struct {
	log   *eventlog.Log
	group singleflight.Group
}

// NewService constructs an analytics Service over the given log.
func NewService(log *eventlog.Log) *Service {
	return &Service{log: log}
}

// KPIs replays the full event log into the KPI report. Concurrent callers
// share one replay through singleflight.
func (s *Service) KPIs(ctx context.Context) (KPIReport, error) {
	ch := s.group.DoChan("kpis", func() (any, error) {
		return s.computeKPIs()
	})
	select {
	case <-ctx.Done():
		return KPIReport{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return KPIReport{}, res.Err
		}
		return res.Val.(KPIReport), nil
	}
}

func (s *Service) computeKPIs() (KPIReport, error) {
	events, err := s.log.ReadAll()
	if err != nil {
		return KPIReport{}, err
	}

	queriesByRole := make(map[string]int)
	uniqueUsers := make(map[string]struct{})
	totalQueries := 0
	feedbackTotal := 0
	accurateCount := 0
	manualCount := 0
	automatedCount := 0

	for _, ev := range events {
		switch ev.Type {
		case "policy_query":
			totalQueries++
			role := ev.ActorRole
			if role == "" {
				role = "UNKNOWN"
			}
			queriesByRole[role]++
			uniqueUsers[ev.ActorID] = struct{}{}
		case "policy_feedback":
			feedbackTotal++
			if accurate, _ := ev.Details["accurate"].(bool); accurate {
				accurateCount++
			}
		case "workflow_action":
			manualCount += detailCount(ev.Details, "count")
		case "automation_event":
			automatedCount += detailCount(ev.Details, "action_count")
		}
	}

	totalActions := manualCount + automatedCount
	report := KPIReport{
		Usage: UsageMetrics{
			TotalPolicyQueries: totalQueries,
			UniqueUsers:        len(uniqueUsers),
			QueriesByRole:      queriesByRole,
		},
		Automation: AutomationMetrics{
			TotalWorkflowActions: totalActions,
			AutomatedActions:     automatedCount,
		},
	}
	report.ResponseAccuracy.FeedbackSamples = feedbackTotal
	if feedbackTotal > 0 {
		report.ResponseAccuracy.AccuracyRate = round4(float64(accurateCount) / float64(feedbackTotal))
	}
	if totalActions > 0 {
		report.Automation.AutomationRate = round4(float64(automatedCount) / float64(totalActions))
	}
	return report, nil
}

// RecentEvents returns the last limit records in arrival order.
func (s *Service) RecentEvents(ctx context.Context, limit int) ([]eventlog.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.log.Recent(limit)
}

// detailCount reads an integer detail field, defaulting to 1 the way the
// replay treats legacy records missing the field.
func detailCount(details map[string]any, key string) int {
	v, ok := details[key]
	if !ok {
		return 1
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 1
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
