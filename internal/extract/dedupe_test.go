package extract

import "testing"

func TestDedupe_RemovesRepeatsAcrossSchemas(t *testing.T) {
	commitments := []map[string]any{
		{"what": "Send the proposal", "who": "SPEAKER_ME", "to_whom": "SPEAKER_OTHER_1"},
		{"commitment_text": "send the proposal", "committer_label": "speaker_me", "recipient_label": "speaker_other_1"},
		{"what": "Review the contract", "who": "SPEAKER_OTHER_1", "to_whom": "SPEAKER_ME"},
	}

	unique := Dedupe(commitments)
	if len(unique) != 2 {
		t.Fatalf("Expected 2 unique commitments, got %d", len(unique))
	}
	if unique[0]["what"] != "Send the proposal" {
		t.Errorf("Expected first occurrence kept, got %v", unique[0])
	}
	if unique[1]["what"] != "Review the contract" {
		t.Errorf("Expected order preserved, got %v", unique[1])
	}
}

func TestDedupe_KeepsRecordsWithoutKey(t *testing.T) {
	commitments := []map[string]any{
		{"timestamp": "00:01:00"},
		{"timestamp": "00:02:00"},
	}

	unique := Dedupe(commitments)
	if len(unique) != 2 {
		t.Errorf("Expected keyless records kept, got %d of 2", len(unique))
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	commitments := []map[string]any{
		{"what": "a", "who": "x", "to_whom": "y"},
		{"what": "b", "who": "x", "to_whom": "y"},
	}

	once := Dedupe(commitments)
	twice := Dedupe(once)
	if len(once) != len(twice) {
		t.Errorf("Expected idempotent dedupe, got %d then %d", len(once), len(twice))
	}
}

func TestDedupe_Empty(t *testing.T) {
	if got := Dedupe(nil); len(got) != 0 {
		t.Errorf("Expected empty result for nil input, got %d", len(got))
	}
}
