package extract

import (
	"testing"

	"github.com/ppiankov/pacta/internal/model"
)

func TestVerifyQuotes_ExactMatch(t *testing.T) {
	transcript := "SPEAKER_ME: I'll send the report by Friday. SPEAKER_OTHER: Great, thanks."
	commitments := []model.Commitment{
		{Text: "send the report", Quote: "I'll send the report by Friday"},
	}

	supported, total := VerifyQuotes(commitments, transcript)
	if total != 1 {
		t.Fatalf("Expected 1 quote checked, got %d", total)
	}
	if supported != 1 {
		t.Errorf("Expected exact quote to be supported, got %d/%d", supported, total)
	}
}

func TestVerifyQuotes_Paraphrased(t *testing.T) {
	transcript := "SPEAKER_ME: I will send over the quarterly report by Friday morning."
	commitments := []model.Commitment{
		{Text: "send the report", Quote: "I will send over the quarterly report by Friday"},
	}

	supported, _ := VerifyQuotes(commitments, transcript)
	if supported != 1 {
		t.Errorf("Expected lightly paraphrased quote to be supported")
	}
}

func TestVerifyQuotes_Fabricated(t *testing.T) {
	transcript := "SPEAKER_ME: Let's talk about the garden. SPEAKER_OTHER: Sure."
	commitments := []model.Commitment{
		{Text: "deploy the release", Quote: "I promise to deploy the release to production tonight"},
	}

	supported, total := VerifyQuotes(commitments, transcript)
	if total != 1 || supported != 0 {
		t.Errorf("Expected fabricated quote to be unsupported, got %d/%d", supported, total)
	}
}

func TestVerifyQuotes_EmptyQuotesSkipped(t *testing.T) {
	commitments := []model.Commitment{
		{Text: "one"},
		{Text: "two", Quote: ""},
	}

	supported, total := VerifyQuotes(commitments, "anything")
	if total != 0 || supported != 0 {
		t.Errorf("Expected no quotes checked, got %d/%d", supported, total)
	}
}
