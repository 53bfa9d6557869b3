package domain

import "strings"

// CaseStatus is the canonical workflow position of a valuation case. Every
// decision in the system (action resolution, queue membership, progress)
// reads this value; the two legacy vocabularies exist only at the edges.
type CaseStatus string

const (
	StatusNewRequest          CaseStatus = "new_request"
	StatusConsultantAssigned  CaseStatus = "consultant_assigned"
	StatusCustomerContacted   CaseStatus = "customer_contacted"
	StatusReceiptCreated      CaseStatus = "receipt_created"
	StatusValuationAssigned   CaseStatus = "valuation_assigned"
	StatusValuationInProgress CaseStatus = "valuation_in_progress"
	StatusValuationCompleted  CaseStatus = "valuation_completed"
	StatusConsultantReview    CaseStatus = "consultant_review"
	StatusResultsSent         CaseStatus = "results_sent"
	StatusCompleted           CaseStatus = "completed"
	StatusOnHold              CaseStatus = "on_hold"
	StatusCancelled           CaseStatus = "cancelled"
)

// StatusVocabulary selects one of the two legacy spellings of a status.
type StatusVocabulary string

const (
	// VocabularyBackend is the compact code set used by the legacy backend.
	VocabularyBackend StatusVocabulary = "backend"
	// VocabularyWorkflow is the descriptive workflow vocabulary.
	VocabularyWorkflow StatusVocabulary = "workflow"
)

// backendCodes maps canonical statuses to the compact backend code set.
var backendCodes = map[CaseStatus]string{
	StatusNewRequest:          "new",
	StatusConsultantAssigned:  "cassign",
	StatusCustomerContacted:   "contacted",
	StatusReceiptCreated:      "receipt",
	StatusValuationAssigned:   "vassign",
	StatusValuationInProgress: "valuating",
	StatusValuationCompleted:  "valuated",
	StatusConsultantReview:    "review",
	StatusResultsSent:         "sent",
	StatusCompleted:           "done",
	StatusOnHold:              "hold",
	StatusCancelled:           "void",
}

// rawStatuses accepts both vocabularies plus legacy spellings seen in old
// records. Keys are lowercase.
var rawStatuses = map[string]CaseStatus{}

func init() {
	for status, code := range backendCodes {
		rawStatuses[string(status)] = status
		rawStatuses[code] = status
	}
	// Legacy spellings from partially migrated records.
	rawStatuses["inprogress"] = StatusValuationInProgress
	rawStatuses["in_progress"] = StatusValuationInProgress
	rawStatuses["complete"] = StatusCompleted
	rawStatuses["canceled"] = StatusCancelled
	rawStatuses["onhold"] = StatusOnHold
	rawStatuses["pending"] = StatusNewRequest
}

// NormalizeStatus coerces a raw status string from either vocabulary into
// the canonical enumeration. Unknown or empty input maps to
// StatusNewRequest; legacy records arrive with missing statuses and must
// still be workable, so this is a documented default rather than an error.
func NormalizeStatus(raw string) CaseStatus {
	if status, ok := rawStatuses[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return status
	}
	return StatusNewRequest
}

// DenormalizeStatus renders a canonical status in the requested legacy
// vocabulary. It exists for display compatibility only; decision logic
// never consumes its output.
func DenormalizeStatus(status CaseStatus, vocabulary StatusVocabulary) string {
	if vocabulary == VocabularyBackend {
		if code, ok := backendCodes[status]; ok {
			return code
		}
		return backendCodes[StatusNewRequest]
	}
	if _, ok := backendCodes[status]; ok {
		return string(status)
	}
	return string(StatusNewRequest)
}

// IsTerminal reports whether no further workflow action can change the case.
func (s CaseStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// AllStatuses returns the canonical enumeration in workflow order.
func AllStatuses() []CaseStatus {
	return []CaseStatus{
		StatusNewRequest,
		StatusConsultantAssigned,
		StatusCustomerContacted,
		StatusReceiptCreated,
		StatusValuationAssigned,
		StatusValuationInProgress,
		StatusValuationCompleted,
		StatusConsultantReview,
		StatusResultsSent,
		StatusCompleted,
		StatusOnHold,
		StatusCancelled,
	}
}
