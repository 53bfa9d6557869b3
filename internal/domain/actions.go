package domain

// Role identifies which specialist is acting on a case.
type Role string

const (
	RoleConsultant Role = "consultant"
	RoleAppraiser  Role = "appraiser"
)

// KnownRole reports whether the role participates in the workflow. Unknown
// roles fail closed everywhere.
func KnownRole(role Role) bool {
	return role == RoleConsultant || role == RoleAppraiser
}

// ActionKey identifies a workflow action a role may take on a case.
type ActionKey string

const (
	ActionContactCustomer ActionKey = "contactCustomer"
	ActionCreateReceipt   ActionKey = "createReceipt"
	ActionSendToAppraisal ActionKey = "sendToAppraisal"
	ActionStartValuation  ActionKey = "startValuation"
	ActionFinishValuation ActionKey = "finishValuation"
	ActionSendResults     ActionKey = "sendResults"
	ActionMarkComplete    ActionKey = "markComplete"
	ActionCancelCase      ActionKey = "cancelCase"
	ActionPlaceOnHold     ActionKey = "placeOnHold"
	ActionResumeCase      ActionKey = "resumeCase"
	ActionViewTimeline    ActionKey = "viewTimeline"
)

// primaryActions lists the state-changing actions per role and status,
// ordered most time-critical first. Hold/resume/cancel/view are appended
// uniformly for non-terminal statuses.
var primaryActions = map[Role]map[CaseStatus][]ActionKey{
	RoleConsultant: {
		StatusNewRequest:         {ActionContactCustomer},
		StatusConsultantAssigned: {ActionContactCustomer},
		StatusCustomerContacted:  {ActionCreateReceipt},
		StatusReceiptCreated:     {ActionSendToAppraisal},
		StatusValuationCompleted: {ActionMarkComplete},
		StatusConsultantReview:   {ActionSendResults},
		StatusResultsSent:        {ActionMarkComplete},
	},
	RoleAppraiser: {
		StatusValuationAssigned:   {ActionStartValuation},
		StatusValuationInProgress: {ActionFinishValuation},
		StatusValuationCompleted:  {ActionSendResults, ActionMarkComplete},
		StatusResultsSent:         {ActionMarkComplete},
	},
}

// AvailableActions returns the ordered actions a role may take in the given
// status. Terminal statuses allow only timeline inspection; an unknown role
// gets nothing.
func AvailableActions(role Role, status CaseStatus) []ActionKey {
	if !KnownRole(role) {
		return nil
	}
	if status.IsTerminal() {
		return []ActionKey{ActionViewTimeline}
	}
	actions := append([]ActionKey{}, primaryActions[role][status]...)
	actions = append(actions, ActionPlaceOnHold, ActionResumeCase)
	if role == RoleConsultant {
		actions = append(actions, ActionCancelCase)
	}
	return append(actions, ActionViewTimeline)
}

// ActionAllowed reports whether the action appears in AvailableActions.
func ActionAllowed(role Role, status CaseStatus, action ActionKey) bool {
	for _, candidate := range AvailableActions(role, status) {
		if candidate == action {
			return true
		}
	}
	return false
}

// transitionTargets maps state-changing actions to the status they produce.
// Actions absent from this table leave the status untouched.
var transitionTargets = map[ActionKey]CaseStatus{
	ActionContactCustomer: StatusCustomerContacted,
	ActionCreateReceipt:   StatusReceiptCreated,
	ActionSendToAppraisal: StatusValuationInProgress,
	ActionStartValuation:  StatusValuationInProgress,
	ActionFinishValuation: StatusValuationCompleted,
	ActionSendResults:     StatusResultsSent,
	ActionMarkComplete:    StatusCompleted,
	ActionCancelCase:      StatusCancelled,
}

// NextStatus resolves the status an accepted action produces. The second
// return is false for note-only actions (hold, resume, view), which keep
// the case's workflow position.
func NextStatus(action ActionKey, current CaseStatus) (CaseStatus, bool) {
	if target, ok := transitionTargets[action]; ok {
		return target, true
	}
	return current, false
}
