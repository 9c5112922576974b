package score

import (
	"fmt"
	"math"
	"strings"
)

// FormatReport renders the evaluation report as human-readable text.
// With verbose set, every match, miss, and false positive is shown with
// its field errors.
func FormatReport(report *EvalReport, groundTruth, predictions map[string]SessionRecords, verbose bool) string {
	var lines []string
	rule := strings.Repeat("=", 72)

	lines = append(lines, rule)
	lines = append(lines, "  COMMITMENT EXTRACTION EVALUATION REPORT")
	lines = append(lines, rule)
	lines = append(lines, "")

	lines = append(lines, "DETECTION METRICS")
	lines = append(lines, strings.Repeat("-", 40))
	lines = append(lines, fmt.Sprintf("  Ground truth commitments:  %d", report.TotalGT))
	lines = append(lines, fmt.Sprintf("  Predicted commitments:     %d", report.TotalPred))
	lines = append(lines, fmt.Sprintf("  True positives (matched):  %d", report.TotalTP))
	lines = append(lines, fmt.Sprintf("  False positives (extra):   %d", report.TotalFP))
	lines = append(lines, fmt.Sprintf("  False negatives (missed):  %d", report.TotalFN))
	lines = append(lines, "")

	p := report.Precision()
	r := report.Recall()
	f := report.F1()
	lines = append(lines, fmt.Sprintf("  Precision:  %.3f  %s  %s", p, bar(p, 20), status(p, ThresholdPrecision)))
	lines = append(lines, fmt.Sprintf("  Recall:     %.3f  %s  %s", r, bar(r, 20), status(r, ThresholdRecall)))
	lines = append(lines, fmt.Sprintf("  F1:         %.3f  %s  %s", f, bar(f, 20), status(f, ThresholdF1)))
	lines = append(lines, "")

	lines = append(lines, "FIELD ACCURACY (on matched commitments)")
	lines = append(lines, strings.Repeat("-", 40))
	if report.DirectionTotal > 0 {
		da := report.DirectionAccuracy()
		lines = append(lines, fmt.Sprintf("  Direction:  %.3f  (%d/%d)  %s",
			da, report.DirectionCorrect, report.DirectionTotal, status(da, ThresholdDirection)))
	} else {
		lines = append(lines, "  Direction:  N/A (no matches)")
	}
	if report.WhoTotal > 0 {
		wa := report.WhoAccuracy()
		lines = append(lines, fmt.Sprintf("  Who:        %.3f  (%d/%d)  %s",
			wa, report.WhoCorrect, report.WhoTotal, status(wa, ThresholdWho)))
	} else {
		lines = append(lines, "  Who:        N/A (no matches)")
	}
	if report.ToWhomTotal > 0 {
		ta := report.ToWhomAccuracy()
		lines = append(lines, fmt.Sprintf("  To whom:    %.3f  (%d/%d)",
			ta, report.ToWhomCorrect, report.ToWhomTotal))
	} else {
		lines = append(lines, "  To whom:    N/A (no matches)")
	}
	if report.DeadlineTotal > 0 {
		dla := report.DeadlineAccuracy()
		lines = append(lines, fmt.Sprintf("  Deadline:   %.3f  (%d/%d)  %s",
			dla, report.DeadlineCorrect, report.DeadlineTotal, status(dla, ThresholdDeadline)))
	} else {
		lines = append(lines, "  Deadline:   N/A (no matches)")
	}
	lines = append(lines, "")

	lines = append(lines, "PER-SESSION BREAKDOWN")
	lines = append(lines, strings.Repeat("-", 72))
	lines = append(lines, fmt.Sprintf("  %-24s %4s %4s %4s %4s %4s  %5s %5s %5s",
		"Session", "GT", "Pred", "TP", "FP", "FN", "P", "R", "F1"))
	lines = append(lines, "  "+strings.Repeat("-", 68))
	for i := range report.Sessions {
		sr := &report.Sessions[i]
		lines = append(lines, fmt.Sprintf("  %-24s %4d %4d %4d %4d %4d  %5.2f %5.2f %5.2f",
			sr.SessionID, sr.GTCount, sr.PredCount,
			sr.TruePositives, sr.FalsePositives, sr.FalseNegatives,
			sr.Precision(), sr.Recall(), sr.F1()))
	}
	lines = append(lines, "")

	if verbose {
		lines = append(lines, "DETAILED MATCHES")
		lines = append(lines, rule)

		for i := range report.Sessions {
			sr := &report.Sessions[i]
			gtList := normalizeRecords(groundTruth[sr.SessionID].Commitments)
			predList := normalizeRecords(predictions[sr.SessionID].Commitments)

			lines = append(lines, fmt.Sprintf("\n--- %s ---", sr.SessionID))

			for _, m := range sr.Matches {
				if m.Matched() {
					gt := gtList[m.GTIndex]
					pred := predList[m.PredIndex]
					lines = append(lines, fmt.Sprintf("\n  MATCH (sim=%.2f):", m.Similarity))
					lines = append(lines, fmt.Sprintf("    GT:   [%s] %s -> %s: %s", gt.Direction, gt.Who, gt.ToWhom, gt.Text))
					lines = append(lines, fmt.Sprintf("    Pred: [%s] %s -> %s: %s", pred.Direction, pred.Who, pred.ToWhom, pred.Text))

					var fieldErrs []string
					if !m.DirectionMatch {
						fieldErrs = append(fieldErrs, fmt.Sprintf("direction: GT=%s vs Pred=%s", gt.Direction, pred.Direction))
					}
					if !m.WhoMatch {
						fieldErrs = append(fieldErrs, fmt.Sprintf("who: GT=%s vs Pred=%s", gt.Who, pred.Who))
					}
					if !m.ToWhomMatch {
						fieldErrs = append(fieldErrs, fmt.Sprintf("to_whom: GT=%s vs Pred=%s", gt.ToWhom, pred.ToWhom))
					}
					if !m.DeadlineMatch {
						fieldErrs = append(fieldErrs, fmt.Sprintf("deadline: GT=%s vs Pred=%s", gt.Deadline, pred.Deadline))
					}
					if len(fieldErrs) > 0 {
						lines = append(lines, fmt.Sprintf("    FIELD ERRORS: %s", strings.Join(fieldErrs, "; ")))
					}
				} else {
					gt := gtList[m.GTIndex]
					lines = append(lines, "\n  MISS (FN):")
					lines = append(lines, fmt.Sprintf("    GT: [%s] %s -> %s: %s", gt.Direction, gt.Who, gt.ToWhom, gt.Text))
					if gt.Quote != "" {
						lines = append(lines, fmt.Sprintf("    Quote: %q", truncate(gt.Quote, 100)))
					}
				}
			}

			for _, predIdx := range sr.UnmatchedPreds {
				pred := predList[predIdx]
				lines = append(lines, "\n  FALSE POSITIVE:")
				lines = append(lines, fmt.Sprintf("    Pred: [%s] %s -> %s: %s", pred.Direction, pred.Who, pred.ToWhom, pred.Text))
				if pred.Quote != "" {
					lines = append(lines, fmt.Sprintf("    Quote: %q", truncate(pred.Quote, 100)))
				}
			}
		}
		lines = append(lines, "")
	}

	lines = append(lines, rule)
	allPass := p >= ThresholdPrecision && r >= ThresholdRecall && f >= ThresholdF1
	switch {
	case report.TotalGT == 0:
		lines = append(lines, "  VERDICT: NO GROUND TRUTH DATA -- annotate ground_truth.json first")
	case allPass:
		lines = append(lines, "  VERDICT: PASS -- commitment extraction meets quality thresholds")
	default:
		lines = append(lines, "  VERDICT: FAIL -- commitment extraction needs improvement")
		if p < ThresholdPrecision {
			lines = append(lines, fmt.Sprintf("    - Precision %.3f < %.2f (too many false positives)", p, ThresholdPrecision))
		}
		if r < ThresholdRecall {
			lines = append(lines, fmt.Sprintf("    - Recall %.3f < %.2f (too many missed commitments)", r, ThresholdRecall))
		}
	}
	lines = append(lines, rule)

	return strings.Join(lines, "\n")
}

// ReportJSON converts the report to a JSON-serializable structure. Field
// accuracies over zero matches are nil, distinct from an accuracy of 0.
func ReportJSON(report *EvalReport) map[string]any {
	sessions := make([]map[string]any, 0, len(report.Sessions))
	for i := range report.Sessions {
		sr := &report.Sessions[i]
		sessions = append(sessions, map[string]any{
			"session_id": sr.SessionID,
			"gt_count":   sr.GTCount,
			"pred_count": sr.PredCount,
			"tp":         sr.TruePositives,
			"fp":         sr.FalsePositives,
			"fn":         sr.FalseNegatives,
			"precision":  round4(sr.Precision()),
			"recall":     round4(sr.Recall()),
			"f1":         round4(sr.F1()),
		})
	}

	return map[string]any{
		"detection": map[string]any{
			"ground_truth_count": report.TotalGT,
			"prediction_count":   report.TotalPred,
			"true_positives":     report.TotalTP,
			"false_positives":    report.TotalFP,
			"false_negatives":    report.TotalFN,
			"precision":          round4(report.Precision()),
			"recall":             round4(report.Recall()),
			"f1":                 round4(report.F1()),
		},
		"field_accuracy": map[string]any{
			"direction": accuracyOrNil(report.DirectionAccuracy(), report.DirectionTotal),
			"who":       accuracyOrNil(report.WhoAccuracy(), report.WhoTotal),
			"to_whom":   accuracyOrNil(report.ToWhomAccuracy(), report.ToWhomTotal),
			"deadline":  accuracyOrNil(report.DeadlineAccuracy(), report.DeadlineTotal),
		},
		"thresholds": Thresholds,
		"sessions":   sessions,
	}
}

func bar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func status(value, threshold float64) string {
	if value >= threshold {
		return "PASS"
	}
	return "FAIL"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func accuracyOrNil(value float64, total int) any {
	if total == 0 {
		return nil
	}
	return round4(value)
}
