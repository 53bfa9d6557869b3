package domain

import "testing"

func TestNormalizeStatusBothVocabularies(t *testing.T) {
	cases := map[string]CaseStatus{
		"new":                   StatusNewRequest,
		"NEW":                   StatusNewRequest,
		"new_request":           StatusNewRequest,
		"cassign":               StatusConsultantAssigned,
		"consultant_assigned":   StatusConsultantAssigned,
		"contacted":             StatusCustomerContacted,
		"customer_contacted":    StatusCustomerContacted,
		"receipt":               StatusReceiptCreated,
		"receipt_created":       StatusReceiptCreated,
		"vassign":               StatusValuationAssigned,
		"valuating":             StatusValuationInProgress,
		"valuation_in_progress": StatusValuationInProgress,
		"valuated":              StatusValuationCompleted,
		"review":                StatusConsultantReview,
		"sent":                  StatusResultsSent,
		"done":                  StatusCompleted,
		"hold":                  StatusOnHold,
		"void":                  StatusCancelled,
		"canceled":              StatusCancelled,
		"inprogress":            StatusValuationInProgress,
		"  Completed  ":         StatusCompleted,
	}
	for raw, want := range cases {
		if got := NormalizeStatus(raw); got != want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalizeStatusDefaultsToNewRequest(t *testing.T) {
	for _, raw := range []string{"", "???", "legacy-garbage", "  "} {
		if got := NormalizeStatus(raw); got != StatusNewRequest {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", raw, got, StatusNewRequest)
		}
	}
}

func TestNormalizeDenormalizeRoundTrip(t *testing.T) {
	for _, status := range AllStatuses() {
		for _, vocab := range []StatusVocabulary{VocabularyBackend, VocabularyWorkflow} {
			raw := DenormalizeStatus(status, vocab)
			if got := NormalizeStatus(raw); got != status {
				t.Fatalf("round trip via %s: %q -> %q -> %q", vocab, status, raw, got)
			}
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	raws := []string{"new", "valuating", "done", "garbage", "HOLD", "results_sent"}
	for _, raw := range raws {
		once := NormalizeStatus(raw)
		if again := NormalizeStatus(string(once)); again != once {
			t.Fatalf("normalize not idempotent for %q: %q != %q", raw, once, again)
		}
	}
}

func TestDenormalizeUnknownStatusFallsBack(t *testing.T) {
	if got := DenormalizeStatus(CaseStatus("bogus"), VocabularyBackend); got != "new" {
		t.Fatalf("backend fallback = %q, want %q", got, "new")
	}
	if got := DenormalizeStatus(CaseStatus("bogus"), VocabularyWorkflow); got != string(StatusNewRequest) {
		t.Fatalf("workflow fallback = %q, want %q", got, StatusNewRequest)
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range AllStatuses() {
		want := status == StatusCompleted || status == StatusCancelled
		if got := status.IsTerminal(); got != want {
			t.Fatalf("IsTerminal(%q) = %v, want %v", status, got, want)
		}
	}
}
