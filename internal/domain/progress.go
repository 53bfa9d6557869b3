package domain

// progressByStatus maps canonical statuses to completion percentages.
// Display and ordering only; transition guards never read this.
var progressByStatus = map[CaseStatus]int{
	StatusNewRequest:          10,
	StatusConsultantAssigned:  20,
	StatusCustomerContacted:   30,
	StatusReceiptCreated:      40,
	StatusValuationAssigned:   50,
	StatusValuationInProgress: 60,
	StatusValuationCompleted:  75,
	StatusConsultantReview:    85,
	StatusResultsSent:         95,
	StatusCompleted:           100,
	StatusOnHold:              50,
	StatusCancelled:           100,
}

// defaultProgress is reported for anything the table does not recognize.
// Treated as "just submitted"; never negative, never unset.
const defaultProgress = 10

// ProgressOf returns the completion percentage for a canonical status.
func ProgressOf(status CaseStatus) int {
	if pct, ok := progressByStatus[status]; ok {
		return pct
	}
	return defaultProgress
}

// ProgressOfRaw accepts either legacy vocabulary and normalizes first, so
// legacy spellings resolve to the same percentage as their canonical form.
func ProgressOfRaw(raw string) int {
	return ProgressOf(NormalizeStatus(raw))
}
