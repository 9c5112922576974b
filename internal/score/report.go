package score

import (
	"sort"

	"github.com/ppiankov/pacta/internal/model"
)

// Quality thresholds the extraction pipeline is held to.
const (
	ThresholdPrecision = 0.70
	ThresholdRecall    = 0.70
	ThresholdF1        = 0.70
	ThresholdDirection = 0.85
	ThresholdWho       = 0.80
	ThresholdDeadline  = 0.75
)

// Thresholds keyed by metric name, for serialized reports.
var Thresholds = map[string]float64{
	"precision":          ThresholdPrecision,
	"recall":             ThresholdRecall,
	"f1":                 ThresholdF1,
	"direction_accuracy": ThresholdDirection,
	"who_accuracy":       ThresholdWho,
	"deadline_accuracy":  ThresholdDeadline,
}

// SessionRecords is the per-session payload in ground truth and prediction
// files: a commitments list in either extraction schema.
type SessionRecords struct {
	Commitments []map[string]any `json:"commitments"`
}

// SessionResult holds evaluation counters for a single call session.
type SessionResult struct {
	SessionID      string
	GTCount        int
	PredCount      int
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	Matches        []MatchResult
	UnmatchedPreds []int
}

func (s *SessionResult) Precision() float64 {
	return ratio(s.TruePositives, s.TruePositives+s.FalsePositives)
}

func (s *SessionResult) Recall() float64 {
	return ratio(s.TruePositives, s.TruePositives+s.FalseNegatives)
}

func (s *SessionResult) F1() float64 {
	return f1(s.Precision(), s.Recall())
}

// EvalReport aggregates detection and field-accuracy counters across
// sessions.
type EvalReport struct {
	Sessions []SessionResult

	TotalGT   int
	TotalPred int
	TotalTP   int
	TotalFP   int
	TotalFN   int

	DirectionCorrect int
	DirectionTotal   int
	WhoCorrect       int
	WhoTotal         int
	ToWhomCorrect    int
	ToWhomTotal      int
	DeadlineCorrect  int
	DeadlineTotal    int
}

func (r *EvalReport) Precision() float64 {
	return ratio(r.TotalTP, r.TotalTP+r.TotalFP)
}

func (r *EvalReport) Recall() float64 {
	return ratio(r.TotalTP, r.TotalTP+r.TotalFN)
}

func (r *EvalReport) F1() float64 {
	return f1(r.Precision(), r.Recall())
}

func (r *EvalReport) DirectionAccuracy() float64 {
	return ratio(r.DirectionCorrect, r.DirectionTotal)
}

func (r *EvalReport) WhoAccuracy() float64 {
	return ratio(r.WhoCorrect, r.WhoTotal)
}

func (r *EvalReport) ToWhomAccuracy() float64 {
	return ratio(r.ToWhomCorrect, r.ToWhomTotal)
}

func (r *EvalReport) DeadlineAccuracy() float64 {
	return ratio(r.DeadlineCorrect, r.DeadlineTotal)
}

func ratio(num, denom int) float64 {
	if denom == 0 {
		return 0.0
	}
	return float64(num) / float64(denom)
}

func f1(p, r float64) float64 {
	if p+r == 0 {
		return 0.0
	}
	return 2 * p * r / (p + r)
}

// normalizeRecords maps raw session records onto canonical commitments.
// Records failing normalization are dropped.
func normalizeRecords(records []map[string]any) []model.Commitment {
	out := make([]model.Commitment, 0, len(records))
	for _, raw := range records {
		if c, ok := model.FromRaw(raw); ok {
			out = append(out, *c)
		}
	}
	return out
}

// EvaluateSession matches and scores one session's predictions against its
// ground truth.
func EvaluateSession(sessionID string, groundTruth, predictions []model.Commitment) *SessionResult {
	matches, unmatched := MatchCommitments(groundTruth, predictions)

	tp := 0
	fn := 0
	for _, m := range matches {
		if m.Matched() {
			tp++
		} else {
			fn++
		}
	}

	return &SessionResult{
		SessionID:      sessionID,
		GTCount:        len(groundTruth),
		PredCount:      len(predictions),
		TruePositives:  tp,
		FalsePositives: len(unmatched),
		FalseNegatives: fn,
		Matches:        matches,
		UnmatchedPreds: unmatched,
	}
}

// Evaluate scores predictions against ground truth across all sessions.
// Sessions are visited in sorted key order so reports are reproducible;
// underscore-prefixed keys are metadata, not sessions.
func Evaluate(groundTruth, predictions map[string]SessionRecords) *EvalReport {
	report := &EvalReport{}

	sessionIDs := make([]string, 0, len(groundTruth))
	for id := range groundTruth {
		if len(id) > 0 && id[0] == '_' {
			continue
		}
		sessionIDs = append(sessionIDs, id)
	}
	sort.Strings(sessionIDs)

	for _, id := range sessionIDs {
		gtList := normalizeRecords(groundTruth[id].Commitments)
		predList := normalizeRecords(predictions[id].Commitments)

		sr := EvaluateSession(id, gtList, predList)
		report.Sessions = append(report.Sessions, *sr)

		report.TotalGT += sr.GTCount
		report.TotalPred += sr.PredCount
		report.TotalTP += sr.TruePositives
		report.TotalFP += sr.FalsePositives
		report.TotalFN += sr.FalseNegatives

		for _, m := range sr.Matches {
			if !m.Matched() {
				continue
			}
			report.DirectionTotal++
			if m.DirectionMatch {
				report.DirectionCorrect++
			}
			report.WhoTotal++
			if m.WhoMatch {
				report.WhoCorrect++
			}
			report.ToWhomTotal++
			if m.ToWhomMatch {
				report.ToWhomCorrect++
			}
			report.DeadlineTotal++
			if m.DeadlineMatch {
				report.DeadlineCorrect++
			}
		}
	}

	return report
}
