// Package automation delivers approved actions to the external automation
// controller. The controller owns the actual mutation; the only thing this
// package ever runs locally is a dry-run.
package automation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/carsch18/AI-OPS/internal/audit"
	"github.com/carsch18/AI-OPS/internal/models"
)

// playbooks maps an action type to the fixed-name procedure the local
// fallback is allowed to dry-run.
var playbooks = map[models.ActionType]string{
	models.ActionRestartService:   "restart_service.yml",
	models.ActionKillProcess:      "kill_process.yml",
	models.ActionClearCache:       "clear_cache.yml",
	models.ActionRestartContainer: "restart_container.yml",
	models.ActionRunPlaybook:      "health_check.yml",
}

const fallbackPlaybook = "health_check.yml"

// Result is the immediate delivery outcome returned to the approving
// operator. Final completion arrives later through the callback endpoint.
type Result struct {
	Triggered     bool   `json:"triggered"`
	ExecutionMode string `json:"execution_mode,omitempty"` // webhook or local_dry_run
	StatusCode    int    `json:"status_code,omitempty"`
	Playbook      string `json:"playbook,omitempty"`
	Error         string `json:"error,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Bridge sends approved actions to the automation controller, falling back
// to a local dry-run when the controller is unreachable.
type Bridge struct {
	endpoint    string
	callbackURL string
	playbookDir string
	ledger      audit.Ledger
	httpClient  *http.Client
}

func NewBridge(endpoint, callbackURL, playbookDir string, ledger audit.Ledger) *Bridge {
	return &Bridge{
		endpoint:    endpoint,
		callbackURL: callbackURL,
		playbookDir: playbookDir,
		ledger:      ledger,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Trigger delivers one approved action. Any primary-path failure (transport
// error, timeout, non-2xx) degrades to the local dry-run path instead of
// failing the approval.
func (b *Bridge) Trigger(a *models.Action) *Result {
	payload := map[string]interface{}{
		"action_id":    a.ID.String(),
		"action_type":  a.ActionType,
		"target":       a.Target,
		"description":  a.Description,
		"severity":     a.Severity,
		"callback_url": b.callbackURL,
	}

	body, _ := json.Marshal(payload)
	resp, err := b.httpClient.Post(b.endpoint, "application/json", bytes.NewReader(body))
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			b.ledger.Append(audit.Event(models.EventAutomationTriggered, models.ActorSystem,
				fmt.Sprintf("Sent to automation controller: %s on %s", a.ActionType, a.Target),
				payload, &a.ID))
			return &Result{
				Triggered:     true,
				ExecutionMode: "webhook",
				StatusCode:    resp.StatusCode,
				Message:       "Action delivered to automation controller",
			}
		}
		err = fmt.Errorf("automation controller returned status %d", resp.StatusCode)
	}

	slog.Warn("automation controller unreachable, using local dry-run", "action_id", a.ID, "error", err)
	b.ledger.Append(audit.Event(models.EventAutomationFailed, models.ActorSystem,
		fmt.Sprintf("Automation trigger failed: %s", err), nil, &a.ID))

	return b.localDryRun(a)
}

// localDryRun verifies ansible-playbook is installed and check-runs the
// playbook mapped to the action type. It never performs the real mutation;
// --check is not optional.
func (b *Bridge) localDryRun(a *models.Action) *Result {
	if _, err := exec.LookPath("ansible-playbook"); err != nil {
		return &Result{
			Triggered: false,
			Error:     "ansible-playbook not found",
			Message:   "Install Ansible to enable local dry-run execution",
		}
	}

	playbook, ok := playbooks[a.ActionType]
	if !ok {
		playbook = fallbackPlaybook
	}

	cmd := exec.Command("ansible-playbook",
		filepath.Join(b.playbookDir, playbook),
		"-i", "localhost,",
		"-c", "local",
		"-e", "action_id="+a.ID.String(),
		"-e", "target="+a.Target,
		"-e", "service="+a.Target,
		"-e", "process="+a.Target,
		"-e", "container="+a.Target,
		"--check",
	)

	b.ledger.Append(audit.Event(models.EventLocalExecution, models.ActorSystem,
		fmt.Sprintf("Running locally in dry-run mode: %s", playbook),
		map[string]interface{}{"playbook": playbook, "target": a.Target}, &a.ID))

	if err := cmd.Start(); err != nil {
		return &Result{
			Triggered: false,
			Error:     err.Error(),
		}
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			slog.Warn("local dry-run exited with error", "action_id", a.ID, "playbook", playbook, "error", err)
		}
	}()

	return &Result{
		Triggered:     true,
		ExecutionMode: "local_dry_run",
		Playbook:      playbook,
		Message:       "Playbook executed in dry-run mode",
	}
}
