package tools

import (
	"strings"
	"testing"

	"github.com/carsch18/AI-OPS/internal/audit"
	"github.com/carsch18/AI-OPS/internal/hub"
	"github.com/carsch18/AI-OPS/internal/models"
	"github.com/carsch18/AI-OPS/internal/monitoring"
	"github.com/carsch18/AI-OPS/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() (*Registry, *store.MemoryStore, *audit.MemoryLedger, *hub.Hub) {
	actions := store.NewMemoryStore()
	ledger := audit.NewMemoryLedger()
	h := hub.New(nil)
	// The monitor points at a closed port so every diagnostic fails fast.
	monitor := monitoring.NewClient("http://127.0.0.1:1")
	return NewRegistry(monitor, actions, ledger, h), actions, ledger, h
}

func TestProposeRemediationCreatesPendingAction(t *testing.T) {
	r, actions, ledger, _ := newTestRegistry()

	out := r.Execute("propose_remediation", map[string]interface{}{
		"action_type":   "restart_service",
		"target":        "nginx",
		"description":   "Restart nginx to clear stuck workers",
		"impact":        "2-3 seconds downtime",
		"rollback_plan": "Restore previous unit state",
		"severity":      "HIGH",
	})

	assert.Contains(t, out, "PROPOSED ACTION (ID: ")
	assert.Contains(t, out, "AWAITING HUMAN APPROVAL")
	assert.Contains(t, out, "Target: nginx")

	pending, err := actions.ListByStatus(models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	a := pending[0]
	assert.Equal(t, models.ActionRestartService, a.ActionType)
	assert.Equal(t, models.SeverityHigh, a.Severity)
	assert.Equal(t, models.StatusPending, a.Status)
	// The confirmation carries the truncated id.
	assert.Contains(t, out, a.ID.String()[:8])

	events, err := ledger.Recent(10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventActionProposed, events[0].EventType)
	assert.Equal(t, models.ActorAI, events[0].Actor)
	require.NotNil(t, events[0].ActionID)
	assert.Equal(t, a.ID, *events[0].ActionID)
}

func TestProposeRemediationDefaults(t *testing.T) {
	r, actions, _, _ := newTestRegistry()

	r.Execute("propose_remediation", map[string]interface{}{
		"action_type": "format_disk",
		"target":      "db-1",
		"description": "something",
		"severity":    "EXTREME",
	})

	pending, err := actions.ListByStatus(models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.ActionCustom, pending[0].ActionType)
	assert.Equal(t, models.SeverityMedium, pending[0].Severity)
	assert.Equal(t, "Unknown", pending[0].Impact)
	assert.Equal(t, "Manual intervention required", pending[0].RollbackPlan)
}

func TestProposeRemediationBroadcastsToObservers(t *testing.T) {
	r, _, _, h := newTestRegistry()
	c := &recordingConn{}
	require.NoError(t, h.Register(c))

	r.Execute("propose_remediation", map[string]interface{}{
		"action_type": "clear_cache",
		"target":      "redis",
		"description": "Flush hot keys",
	})

	// initial snapshot plus the pending_action delta
	require.Len(t, c.events, 2)
	assert.Equal(t, "pending_action", c.events[1].(map[string]interface{})["type"])
}

func TestUnknownTool(t *testing.T) {
	r, _, _, _ := newTestRegistry()
	assert.Equal(t, "Unknown tool: get_quantum_state", r.Execute("get_quantum_state", nil))
}

func TestDiagnosticsDegradeToErrorText(t *testing.T) {
	r, actions, ledger, _ := newTestRegistry()

	for _, name := range []string{
		"get_cpu_usage", "get_memory_usage", "get_active_alerts",
		"get_top_processes_by_cpu", "get_system_info", "get_load_average",
		"get_disk_io", "get_network_traffic",
	} {
		out := r.Execute(name, map[string]interface{}{})
		assert.True(t, strings.HasPrefix(out, "Error: "), "tool %s returned %q", name, out)
	}

	// Diagnostics never create actions or audit entries.
	pending, err := actions.ListByStatus(models.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
	events, err := ledger.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDiagnoseAlertJoinsSequence(t *testing.T) {
	r, _, _, _ := newTestRegistry()
	out := r.Execute("diagnose_alert", map[string]interface{}{"alert_name": "cpu_usage"})
	// Five diagnostics, each degraded to an error line, joined by blank lines.
	assert.Len(t, strings.Split(out, "\n\n"), 5)
}

func TestDefinitionsIncludeAllTools(t *testing.T) {
	r, _, _, _ := newTestRegistry()
	defs := r.Definitions()
	require.Len(t, defs, 10)

	names := map[string]bool{}
	for _, d := range defs {
		fn := d["function"].(map[string]interface{})
		names[fn["name"].(string)] = true
	}
	assert.True(t, names["propose_remediation"])
	assert.True(t, names["diagnose_alert"])
	assert.True(t, names["get_cpu_usage"])
}

// recordingConn is a hub.Conn double.
type recordingConn struct {
	events []interface{}
}

func (c *recordingConn) WriteJSON(v interface{}) error {
	c.events = append(c.events, v)
	return nil
}
