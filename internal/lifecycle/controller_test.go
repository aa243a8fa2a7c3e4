package lifecycle

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carsch18/AI-OPS/internal/audit"
	"github.com/carsch18/AI-OPS/internal/automation"
	"github.com/carsch18/AI-OPS/internal/hub"
	"github.com/carsch18/AI-OPS/internal/models"
	"github.com/carsch18/AI-OPS/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	controller *Controller
	actions    *store.MemoryStore
	ledger     *audit.MemoryLedger
	hub        *hub.Hub
	deliveries *int64
}

// newFixture wires a controller against an in-memory backend and a fake
// automation controller that accepts every delivery.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	var deliveries int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&deliveries, 1)
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.NotEmpty(t, payload["action_id"])
		assert.NotEmpty(t, payload["callback_url"])
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	actions := store.NewMemoryStore()
	ledger := audit.NewMemoryLedger()
	h := hub.New(nil)
	bridge := automation.NewBridge(srv.URL, "http://localhost:8000/automation/callback", "playbooks", ledger)

	return &fixture{
		controller: NewController(actions, ledger, h, bridge),
		actions:    actions,
		ledger:     ledger,
		hub:        h,
		deliveries: &deliveries,
	}
}

func seedAction(t *testing.T, actions *store.MemoryStore) *models.Action {
	t.Helper()
	return seedActionWithStatus(t, actions, models.StatusPending)
}

func seedActionWithStatus(t *testing.T, actions *store.MemoryStore, status models.ActionStatus) *models.Action {
	t.Helper()
	a := &models.Action{
		ID:          uuid.New(),
		CreatedAt:   time.Now().UTC(),
		ActionType:  models.ActionRestartService,
		Target:      "web-1",
		Description: "Restart the stuck web frontend",
		Severity:    models.SeverityHigh,
		Status:      status,
	}
	require.NoError(t, actions.Create(a))
	return a
}

func eventTypes(t *testing.T, ledger *audit.MemoryLedger) []string {
	t.Helper()
	events, err := ledger.Recent(50)
	require.NoError(t, err)
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.EventType)
	}
	return types
}

func TestApproveDeliversToAutomationAndCallbackCompletes(t *testing.T) {
	f := newFixture(t)
	a := seedAction(t, f.actions)

	res, err := f.controller.Decide(DecisionRequest{
		ActionID:   a.ID.String(),
		Decision:   "approve",
		ApprovedBy: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "approved", res.Status)
	require.NotNil(t, res.Execution)
	assert.True(t, res.Execution.Triggered)
	assert.Equal(t, "webhook", res.Execution.ExecutionMode)
	assert.EqualValues(t, 1, atomic.LoadInt64(f.deliveries))

	got, err := f.actions.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExecuting, got.Status)
	assert.Equal(t, "alice", got.ResolvedBy)

	// The executor reports completion.
	require.NoError(t, f.controller.HandleCallback(Callback{
		ActionID: a.ID.String(),
		Status:   "completed",
		Success:  true,
		Message:  "service restarted",
	}))
	got, err = f.actions.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	types := eventTypes(t, f.ledger)
	assert.Contains(t, types, "ACTION_APPROVE")
	assert.Contains(t, types, models.EventAutomationTriggered)
	assert.Contains(t, types, "AUTOMATION_COMPLETED")
}

func TestRejectSkipsAutomation(t *testing.T) {
	f := newFixture(t)
	a := seedAction(t, f.actions)

	res, err := f.controller.Decide(DecisionRequest{
		ActionID:   a.ID.String(),
		Decision:   "reject",
		ApprovedBy: "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, "rejected", res.Status)
	assert.Nil(t, res.Execution)
	assert.EqualValues(t, 0, atomic.LoadInt64(f.deliveries))

	got, err := f.actions.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReject, got.Status)

	types := eventTypes(t, f.ledger)
	assert.Equal(t, []string{"ACTION_REJECT"}, types)
}

func TestModifyRecordsChangedFields(t *testing.T) {
	f := newFixture(t)
	a := seedAction(t, f.actions)

	res, err := f.controller.Decide(DecisionRequest{
		ActionID:       a.ID.String(),
		Decision:       "modify",
		ApprovedBy:     "carol",
		ModifiedAction: map[string]interface{}{"target": "web-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "modified", res.Status)

	events, err := f.ledger.Recent(1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ACTION_MODIFY", events[0].EventType)
	assert.Contains(t, string(events[0].Metadata), "web-2")
}

func TestInvalidDecision(t *testing.T) {
	f := newFixture(t)
	_, err := f.controller.Decide(DecisionRequest{
		ActionID: uuid.NewString(),
		Decision: "escalate",
	})
	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestMalformedActionID(t *testing.T) {
	f := newFixture(t)
	_, err := f.controller.Decide(DecisionRequest{
		ActionID: "not-a-uuid",
		Decision: "approve",
	})
	assert.Error(t, err)
}

func TestSecondDecisionLosesTheRace(t *testing.T) {
	f := newFixture(t)
	a := seedAction(t, f.actions)

	_, err := f.controller.Decide(DecisionRequest{
		ActionID:   a.ID.String(),
		Decision:   "reject",
		ApprovedBy: "alice",
	})
	require.NoError(t, err)

	_, err = f.controller.Decide(DecisionRequest{
		ActionID:   a.ID.String(),
		Decision:   "approve",
		ApprovedBy: "bob",
	})
	assert.ErrorIs(t, err, ErrDecisionConflict)

	// The first decision stands.
	got, err := f.actions.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReject, got.Status)
	assert.Equal(t, "alice", got.ResolvedBy)
}

func TestDecisionOnUnknownIDIsSoftNoop(t *testing.T) {
	f := newFixture(t)

	res, err := f.controller.Decide(DecisionRequest{
		ActionID:   uuid.NewString(),
		Decision:   "approve",
		ApprovedBy: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "approved", res.Status)
	assert.Nil(t, res.Execution)
	assert.Contains(t, res.Message, "automation not triggered")
	assert.EqualValues(t, 0, atomic.LoadInt64(f.deliveries))
}

func TestApprovedByDefaultsToAdmin(t *testing.T) {
	f := newFixture(t)
	a := seedAction(t, f.actions)

	_, err := f.controller.Decide(DecisionRequest{
		ActionID: a.ID.String(),
		Decision: "reject",
	})
	require.NoError(t, err)

	got, err := f.actions.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.ResolvedBy)
}

func TestFailureCallbackMarksFailed(t *testing.T) {
	f := newFixture(t)
	a := seedActionWithStatus(t, f.actions, models.StatusExecuting)

	require.NoError(t, f.controller.HandleCallback(Callback{
		ActionID: a.ID.String(),
		Status:   "failed",
		Success:  false,
		Message:  "playbook exited 2",
	}))

	got, err := f.actions.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Contains(t, eventTypes(t, f.ledger), "AUTOMATION_FAILED")
}

func TestDuplicateCallbacksAreIdempotent(t *testing.T) {
	f := newFixture(t)
	a := seedActionWithStatus(t, f.actions, models.StatusExecuting)

	cb := Callback{ActionID: a.ID.String(), Status: "completed", Success: true, Message: "done"}
	require.NoError(t, f.controller.HandleCallback(cb))
	require.NoError(t, f.controller.HandleCallback(cb))

	got, err := f.actions.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	// Each delivery leaves its own audit entry.
	events, err := f.ledger.Recent(10)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestCallbackCannotCompleteUnapprovedAction(t *testing.T) {
	f := newFixture(t)
	a := seedAction(t, f.actions)

	c := &recordingConn{}
	require.NoError(t, f.hub.Register(c))

	require.NoError(t, f.controller.HandleCallback(Callback{
		ActionID: a.ID.String(),
		Status:   "completed",
		Success:  true,
		Message:  "service restarted",
	}))

	// The action was never approved, so it stays PENDING.
	got, err := f.actions.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)

	// The ignored callback leaves no audit entry and no broadcast.
	events, err := f.ledger.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Len(t, c.events, 1)
}

func TestCallbackCannotOverturnHumanDecision(t *testing.T) {
	f := newFixture(t)
	a := seedAction(t, f.actions)

	_, err := f.controller.Decide(DecisionRequest{
		ActionID:   a.ID.String(),
		Decision:   "reject",
		ApprovedBy: "alice",
	})
	require.NoError(t, err)

	require.NoError(t, f.controller.HandleCallback(Callback{
		ActionID: a.ID.String(),
		Status:   "completed",
		Success:  true,
		Message:  "service restarted",
	}))

	got, err := f.actions.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReject, got.Status)
	assert.Equal(t, "alice", got.ResolvedBy)

	// Only the decision is on record.
	assert.Equal(t, []string{"ACTION_REJECT"}, eventTypes(t, f.ledger))
}

func TestCallbackForUnknownActionIsAccepted(t *testing.T) {
	f := newFixture(t)
	err := f.controller.HandleCallback(Callback{
		ActionID: uuid.NewString(),
		Status:   "completed",
		Success:  true,
		Message:  "late result",
	})
	assert.NoError(t, err)
}

func TestCallbackRejectsMalformedID(t *testing.T) {
	f := newFixture(t)
	err := f.controller.HandleCallback(Callback{ActionID: "bogus"})
	assert.Error(t, err)
}

func TestOneAuditEventPerCommittedTransition(t *testing.T) {
	f := newFixture(t)
	a := seedAction(t, f.actions)

	_, err := f.controller.Decide(DecisionRequest{
		ActionID:   a.ID.String(),
		Decision:   "approve",
		ApprovedBy: "alice",
	})
	require.NoError(t, err)
	require.NoError(t, f.controller.HandleCallback(Callback{
		ActionID: a.ID.String(),
		Status:   "completed",
		Success:  true,
		Message:  "done",
	}))

	counts := map[string]int{}
	for _, typ := range eventTypes(t, f.ledger) {
		counts[typ]++
	}
	// One entry per committed transition plus the bridge delivery record.
	assert.Equal(t, map[string]int{
		"ACTION_APPROVE":                1,
		models.EventAutomationTriggered: 1,
		"AUTOMATION_COMPLETED":          1,
	}, counts)

	// A losing decision commits no transition and leaves no entry.
	_, err = f.controller.Decide(DecisionRequest{
		ActionID:   a.ID.String(),
		Decision:   "reject",
		ApprovedBy: "bob",
	})
	assert.ErrorIs(t, err, ErrDecisionConflict)
	events, err := f.ledger.Recent(50)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestDecisionNotifiesObservers(t *testing.T) {
	f := newFixture(t)
	a := seedAction(t, f.actions)

	c := &recordingConn{}
	require.NoError(t, f.hub.Register(c))

	_, err := f.controller.Decide(DecisionRequest{
		ActionID:   a.ID.String(),
		Decision:   "reject",
		ApprovedBy: "alice",
	})
	require.NoError(t, err)

	require.Len(t, c.events, 2)
	msg := c.events[1].(map[string]interface{})
	assert.Equal(t, "action_resolved", msg["type"])
	assert.Equal(t, "reject", msg["decision"])
}

type recordingConn struct {
	events []interface{}
}

func (c *recordingConn) WriteJSON(v interface{}) error {
	c.events = append(c.events, v)
	return nil
}
