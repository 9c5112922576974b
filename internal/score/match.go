package score

import (
	"sort"

	"github.com/ppiankov/pacta/internal/model"
)

// Minimum similarity for quote-based matching.
const quoteSimilarityThreshold = 0.40

// Minimum similarity for text-based matching.
const textSimilarityThreshold = 0.35

// Minimum combined score for a pair to count as a match.
const matchThreshold = 0.25

// MatchResult links one ground-truth commitment to a prediction.
// PredIndex of -1 means the ground-truth item was missed.
type MatchResult struct {
	GTIndex        int
	PredIndex      int
	Similarity     float64
	DirectionMatch bool
	WhoMatch       bool
	ToWhomMatch    bool
	DeadlineMatch  bool
}

// Matched reports whether this result pairs with a prediction.
func (m MatchResult) Matched() bool {
	return m.PredIndex >= 0
}

// MatchCommitments pairs ground-truth commitments with predictions using
// greedy best-match over a multi-signal score. Returns the per-GT match
// results and the indices of unmatched predictions, sorted ascending.
func MatchCommitments(groundTruth, predictions []model.Commitment) ([]MatchResult, []int) {
	if len(groundTruth) == 0 {
		unmatched := make([]int, len(predictions))
		for i := range predictions {
			unmatched[i] = i
		}
		return []MatchResult{}, unmatched
	}

	if len(predictions) == 0 {
		matches := make([]MatchResult, len(groundTruth))
		for i := range groundTruth {
			matches[i] = MatchResult{GTIndex: i, PredIndex: -1}
		}
		return matches, []int{}
	}

	type pair struct {
		gt, pred int
		score    float64
	}

	pairs := make([]pair, 0, len(groundTruth)*len(predictions))
	for i, gt := range groundTruth {
		for j, pred := range predictions {
			pairs = append(pairs, pair{gt: i, pred: j, score: pairScore(gt, pred)})
		}
	}

	// Stable sort keeps (gt, pred) order among equal scores, which makes
	// the assignment deterministic.
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].score > pairs[b].score
	})

	usedGT := make(map[int]bool)
	usedPred := make(map[int]bool)
	var matches []MatchResult

	for _, p := range pairs {
		if usedGT[p.gt] || usedPred[p.pred] {
			continue
		}
		if p.score < matchThreshold {
			break
		}

		gt := groundTruth[p.gt]
		pred := predictions[p.pred]
		matches = append(matches, MatchResult{
			GTIndex:        p.gt,
			PredIndex:      p.pred,
			Similarity:     p.score,
			DirectionMatch: Normalize(gt.Direction) == Normalize(pred.Direction),
			WhoMatch:       speakerMatch(gt.Who, pred.Who),
			ToWhomMatch:    speakerMatch(gt.ToWhom, pred.ToWhom),
			DeadlineMatch:  deadlineMatch(gt.Deadline, pred.Deadline),
		})
		usedGT[p.gt] = true
		usedPred[p.pred] = true
	}

	for i := range groundTruth {
		if !usedGT[i] {
			matches = append(matches, MatchResult{GTIndex: i, PredIndex: -1})
		}
	}

	unmatched := make([]int, 0)
	for j := range predictions {
		if !usedPred[j] {
			unmatched = append(unmatched, j)
		}
	}
	sort.Ints(unmatched)

	return matches, unmatched
}

// pairScore weights the matching signals: quote is strongest, then text,
// then speaker identity.
func pairScore(gt, pred model.Commitment) float64 {
	quoteSim := Similarity(gt.Quote, pred.Quote)
	textSim := Similarity(gt.Text, pred.Text)
	whoSim := 0.0
	if speakerMatch(gt.Who, pred.Who) {
		whoSim = 1.0
	}

	switch {
	case quoteSim >= quoteSimilarityThreshold:
		return 0.5*quoteSim + 0.3*textSim + 0.2*whoSim
	case textSim >= textSimilarityThreshold:
		return 0.3*quoteSim + 0.5*textSim + 0.2*whoSim
	default:
		return 0.33*quoteSim + 0.34*textSim + 0.33*whoSim
	}
}
