package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/valuation-service/internal/domain"
	"github.com/spec-kit/valuation-service/internal/notify"
	"github.com/spec-kit/valuation-service/internal/queue"
	"github.com/spec-kit/valuation-service/internal/repository"
	apperrors "github.com/spec-kit/valuation-service/pkg/util"
)

type transitionFixture struct {
	svc      *TransitionService
	repo     *fakeCaseRepo
	notifier *recordingNotifier
}

func newTransitionFixture(t *testing.T, status domain.CaseStatus, carat float64) (*transitionFixture, *domain.Case) {
	t.Helper()
	repo := newFakeCaseRepo()
	notifier := &recordingNotifier{}
	svc := NewTransitionService(TransitionDependencies{
		CaseRepo: repo,
		Receipts: NewReceiptIssuer(),
		Notifier: notifier,
		Logger:   zap.NewNop(),
	})
	c := &domain.Case{
		Status:   status,
		Priority: domain.PriorityNormal,
		Contact:  domain.Contact{FullName: "Dana Berg", Email: "dana@example.com"},
		Spec:     domain.DiamondSpec{Shape: "round", CaratWeight: carat},
	}
	require.NoError(t, repo.Create(context.Background(), c))
	return &transitionFixture{svc: svc, repo: repo, notifier: notifier}, c
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	return domainErr.Code
}

func TestSendToAppraisalMovesCaseBetweenQueues(t *testing.T) {
	fx, c := newTransitionFixture(t, domain.StatusReceiptCreated, 1.2)

	updated, err := fx.svc.Transition(context.Background(), c.ID, domain.RoleConsultant, "cons-1", TransitionInput{
		Action: domain.ActionSendToAppraisal,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusValuationInProgress, updated.Status)

	all, err := fx.repo.ListWithFilter(context.Background(), repository.CaseFilter{})
	require.NoError(t, err)
	appraiserView := queue.Segment(all, domain.RoleAppraiser, queue.KindWorkQueue, "app-1")
	require.Len(t, appraiserView, 1)
	assert.Equal(t, c.ID, appraiserView[0].ID)

	consultantView := queue.Segment(all, domain.RoleConsultant, queue.KindWorkQueue, "cons-1")
	assert.Empty(t, consultantView)
}

func TestFinishValuationRecordsEstimate(t *testing.T) {
	fx, c := newTransitionFixture(t, domain.StatusValuationInProgress, 1.2)
	value := 5400.0
	updated, err := fx.svc.Transition(context.Background(), c.ID, domain.RoleAppraiser, "app-1", TransitionInput{
		Action:         domain.ActionFinishValuation,
		EstimatedValue: &value,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusValuationCompleted, updated.Status)
	require.NotNil(t, updated.EstimatedValue)
	assert.Equal(t, value, *updated.EstimatedValue)
}

func TestFinishValuationRejectsZeroCarat(t *testing.T) {
	fx, c := newTransitionFixture(t, domain.StatusValuationInProgress, 0)
	value := 5400.0
	_, err := fx.svc.Transition(context.Background(), c.ID, domain.RoleAppraiser, "app-1", TransitionInput{
		Action:         domain.ActionFinishValuation,
		EstimatedValue: &value,
	})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	stored, err := fx.repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusValuationInProgress, stored.Status)
	timeline, err := fx.repo.Timeline(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, timeline)
}

func TestFinishValuationRequiresEstimate(t *testing.T) {
	fx, c := newTransitionFixture(t, domain.StatusValuationInProgress, 1.2)
	_, err := fx.svc.Transition(context.Background(), c.ID, domain.RoleAppraiser, "app-1", TransitionInput{
		Action: domain.ActionFinishValuation,
	})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
}

func TestMarkCompleteThenEverythingRejected(t *testing.T) {
	fx, c := newTransitionFixture(t, domain.StatusValuationCompleted, 1.2)
	updated, err := fx.svc.Transition(context.Background(), c.ID, domain.RoleConsultant, "cons-1", TransitionInput{
		Action: domain.ActionMarkComplete,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)

	for _, action := range []domain.ActionKey{
		domain.ActionContactCustomer,
		domain.ActionSendToAppraisal,
		domain.ActionMarkComplete,
		domain.ActionCancelCase,
		domain.ActionPlaceOnHold,
	} {
		_, err := fx.svc.Transition(context.Background(), c.ID, domain.RoleConsultant, "cons-1", TransitionInput{Action: action})
		assert.Equal(t, "INVALID_TRANSITION", errCode(t, err), "action %s", action)
	}

	// viewTimeline stays available in terminal states.
	_, err = fx.svc.Transition(context.Background(), c.ID, domain.RoleConsultant, "cons-1", TransitionInput{
		Action: domain.ActionViewTimeline,
	})
	assert.NoError(t, err)
}

func TestAcceptedTransitionAppendsExactlyOneEntry(t *testing.T) {
	fx, c := newTransitionFixture(t, domain.StatusNewRequest, 1.2)
	_, err := fx.svc.Transition(context.Background(), c.ID, domain.RoleConsultant, "cons-1", TransitionInput{
		Action:  domain.ActionContactCustomer,
		Channel: "phone",
		Message: "left voicemail",
	})
	require.NoError(t, err)

	timeline, err := fx.repo.Timeline(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, domain.StatusCustomerContacted, timeline[0].Status)
	assert.Equal(t, "cons-1", timeline[0].ActorRef)

	comms, err := fx.repo.Communications(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, comms, 1)
	assert.Equal(t, "phone", comms[0].Channel)
}

func TestRejectedTransitionAppendsNothing(t *testing.T) {
	fx, c := newTransitionFixture(t, domain.StatusNewRequest, 1.2)
	_, err := fx.svc.Transition(context.Background(), c.ID, domain.RoleAppraiser, "app-1", TransitionInput{
		Action: domain.ActionFinishValuation,
	})
	assert.Equal(t, "INVALID_TRANSITION", errCode(t, err))
	timeline, err := fx.repo.Timeline(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, timeline)
}

func TestCreateReceiptSetsNumberOnce(t *testing.T) {
	fx, c := newTransitionFixture(t, domain.StatusCustomerContacted, 1.2)
	updated, err := fx.svc.Transition(context.Background(), c.ID, domain.RoleConsultant, "cons-1", TransitionInput{
		Action: domain.ActionCreateReceipt,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ReceiptNumber)
	first := *updated.ReceiptNumber
	assert.Contains(t, first, "RCP-")
}

func TestCreateReceiptAbortsWhenIssuerDown(t *testing.T) {
	repo := newFakeCaseRepo()
	svc := NewTransitionService(TransitionDependencies{
		CaseRepo: repo,
		Receipts: failingReceiptIssuer{},
		Notifier: &recordingNotifier{},
		Logger:   zap.NewNop(),
	})
	c := &domain.Case{
		Status:  domain.StatusCustomerContacted,
		Contact: domain.Contact{FullName: "Dana Berg", Email: "dana@example.com"},
		Spec:    domain.DiamondSpec{CaratWeight: 1.2},
	}
	require.NoError(t, repo.Create(context.Background(), c))

	_, err := svc.Transition(context.Background(), c.ID, domain.RoleConsultant, "cons-1", TransitionInput{
		Action: domain.ActionCreateReceipt,
	})
	assert.Equal(t, "COLLABORATOR_FAILURE", errCode(t, err))

	// Load-bearing failure: no receipt, no status change, no entry.
	stored, err := repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ReceiptNumber)
	assert.Equal(t, domain.StatusCustomerContacted, stored.Status)
	timeline, err := repo.Timeline(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Empty(t, timeline)
}

func TestMarkCompleteSurvivesNotifierFailure(t *testing.T) {
	fx, c := newTransitionFixture(t, domain.StatusValuationCompleted, 1.2)
	fx.notifier.fail = true

	updated, err := fx.svc.Transition(context.Background(), c.ID, domain.RoleAppraiser, "app-1", TransitionInput{
		Action: domain.ActionMarkComplete,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
}

func TestSendResultsNotifiesCustomer(t *testing.T) {
	fx, c := newTransitionFixture(t, domain.StatusValuationCompleted, 1.2)
	updated, err := fx.svc.Transition(context.Background(), c.ID, domain.RoleAppraiser, "app-1", TransitionInput{
		Action: domain.ActionSendResults,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResultsSent, updated.Status)
	assert.Contains(t, fx.notifier.sentTemplates(), notify.TemplateValuationResults)

	comms, err := fx.repo.Communications(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, comms, 1)
	assert.Equal(t, "email", comms[0].Channel)
}

func TestPlaceOnHoldKeepsWorkflowPosition(t *testing.T) {
	fx, c := newTransitionFixture(t, domain.StatusReceiptCreated, 1.2)
	updated, err := fx.svc.Transition(context.Background(), c.ID, domain.RoleConsultant, "cons-1", TransitionInput{
		Action: domain.ActionPlaceOnHold,
		Note:   "customer travelling",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReceiptCreated, updated.Status)

	timeline, err := fx.repo.Timeline(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, domain.StatusOnHold, timeline[0].Status)
	assert.Equal(t, "customer travelling", timeline[0].Note)

	// Resuming appends another note and the position is still intact.
	updated, err = fx.svc.Transition(context.Background(), c.ID, domain.RoleConsultant, "cons-1", TransitionInput{
		Action: domain.ActionResumeCase,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReceiptCreated, updated.Status)
}

func TestCancelIsTerminal(t *testing.T) {
	fx, c := newTransitionFixture(t, domain.StatusCustomerContacted, 1.2)
	updated, err := fx.svc.Transition(context.Background(), c.ID, domain.RoleConsultant, "cons-1", TransitionInput{
		Action: domain.ActionCancelCase,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, updated.Status)

	_, err = fx.svc.Transition(context.Background(), c.ID, domain.RoleConsultant, "cons-1", TransitionInput{
		Action: domain.ActionContactCustomer,
	})
	assert.Equal(t, "INVALID_TRANSITION", errCode(t, err))
}

func TestLegacyStatusNormalizedBeforeGuard(t *testing.T) {
	fx, c := newTransitionFixture(t, domain.CaseStatus("receipt"), 1.2)
	updated, err := fx.svc.Transition(context.Background(), c.ID, domain.RoleConsultant, "cons-1", TransitionInput{
		Action: domain.ActionSendToAppraisal,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusValuationInProgress, updated.Status)
}

func TestConcurrentTransitionLoserGetsConflict(t *testing.T) {
	fx, c := newTransitionFixture(t, domain.StatusReceiptCreated, 1.2)

	// Simulate a racing transition bumping the version between this
	// caller's read and its write.
	loaded, err := fx.repo.GetByID(context.Background(), c.ID)
	require.NoError(t, err)
	_, err = fx.svc.Transition(context.Background(), c.ID, domain.RoleConsultant, "cons-1", TransitionInput{
		Action: domain.ActionSendToAppraisal,
	})
	require.NoError(t, err)

	loaded.Status = domain.StatusValuationInProgress
	applyErr := fx.repo.ApplyTransition(context.Background(), loaded, loaded.Version, domain.TimelineEntry{}, nil)
	assert.ErrorIs(t, applyErr, repository.ErrVersionConflict)

	timeline, err := fx.repo.Timeline(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Len(t, timeline, 1)
}
