package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/carsch18/AI-OPS/internal/audit"
	"github.com/carsch18/AI-OPS/internal/hub"
	"github.com/carsch18/AI-OPS/internal/models"
	"github.com/carsch18/AI-OPS/internal/monitoring"
	"github.com/carsch18/AI-OPS/internal/store"
	"github.com/google/uuid"
)

// ToolCall represents a tool call from the AI.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction represents the function part of a tool call.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Registry maps capability names requested by the reasoning agent to
// concrete operations. Every diagnostic is read-only; propose_remediation is
// the single mutating capability and the sole path that creates an Action.
type Registry struct {
	monitor *monitoring.Client
	actions store.ActionStore
	ledger  audit.Ledger
	hub     *hub.Hub
}

func NewRegistry(monitor *monitoring.Client, actions store.ActionStore, ledger audit.Ledger, h *hub.Hub) *Registry {
	return &Registry{
		monitor: monitor,
		actions: actions,
		ledger:  ledger,
		hub:     h,
	}
}

// Definitions returns all available tools in OpenAI-compatible format.
func (r *Registry) Definitions() []map[string]interface{} {
	return []map[string]interface{}{
		readOnlyTool("get_cpu_usage", "Get real-time CPU usage percentage with breakdown",
			map[string]interface{}{
				"duration_seconds": map[string]interface{}{"type": "integer", "default": 60},
			}),
		readOnlyTool("get_memory_usage", "Get memory/RAM usage with breakdown", nil),
		readOnlyTool("get_active_alerts", "Get all active alerts from the monitoring system", nil),
		readOnlyTool("get_top_processes_by_cpu", "Get top processes consuming CPU",
			map[string]interface{}{
				"limit": map[string]interface{}{"type": "integer", "default": 10},
			}),
		readOnlyTool("get_system_info", "Get system information", nil),
		readOnlyTool("get_load_average", "Get system load average", nil),
		readOnlyTool("get_disk_io", "Get disk I/O statistics", nil),
		readOnlyTool("get_network_traffic", "Get network traffic statistics", nil),
		readOnlyTool("diagnose_alert", "Perform comprehensive diagnosis of an alert",
			map[string]interface{}{
				"alert_name": map[string]interface{}{"type": "string"},
			}),
		r.proposeRemediationTool(),
	}
}

func readOnlyTool(name, description string, properties map[string]interface{}) map[string]interface{} {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	return map[string]interface{}{
		"type": "function",
		"function": map[string]interface{}{
			"name":        name,
			"description": description,
			"parameters": map[string]interface{}{
				"type":       "object",
				"properties": properties,
				"required":   []string{},
			},
		},
	}
}

func (r *Registry) proposeRemediationTool() map[string]interface{} {
	return map[string]interface{}{
		"type": "function",
		"function": map[string]interface{}{
			"name":        "propose_remediation",
			"description": "Propose a remediation action that requires human approval. Use this when you've identified an issue and want to fix it.",
			"parameters": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"action_type": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"restart_service", "kill_process", "clear_cache", "scale_up", "scale_down", "restart_container", "run_playbook", "custom"},
						"description": "Type of remediation action",
					},
					"target": map[string]interface{}{
						"type":        "string",
						"description": "Target of the action (e.g., service name, process name, container ID)",
					},
					"description": map[string]interface{}{
						"type":        "string",
						"description": "Detailed description of what the action will do",
					},
					"impact": map[string]interface{}{
						"type":        "string",
						"description": "Expected impact (e.g., '2-3 seconds downtime')",
					},
					"rollback_plan": map[string]interface{}{
						"type":        "string",
						"description": "How to rollback if the action fails",
					},
					"severity": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"},
						"description": "Severity/risk level of the action",
					},
				},
				"required": []string{"action_type", "target", "description"},
			},
		},
	}
}

// Execute runs one tool and returns its text result. The caller is an
// external reasoning process, so nothing here escalates to a hard failure:
// transport errors, parse errors and unknown tool names all come back as
// explanatory strings the agent can read.
func (r *Registry) Execute(toolName string, args map[string]interface{}) string {
	switch toolName {
	case "get_cpu_usage":
		return degrade(r.monitor.CPUUsage(intArg(args, "duration_seconds", 60)))
	case "get_memory_usage":
		return degrade(r.monitor.MemoryUsage())
	case "get_active_alerts":
		return degrade(r.monitor.ActiveAlerts())
	case "get_top_processes_by_cpu":
		return degrade(r.monitor.TopProcesses(intArg(args, "limit", 10)))
	case "get_system_info":
		return degrade(r.monitor.SystemInfo())
	case "get_load_average":
		return degrade(r.monitor.LoadAverage())
	case "get_disk_io":
		return degrade(r.monitor.DiskIO())
	case "get_network_traffic":
		return degrade(r.monitor.NetworkTraffic())
	case "diagnose_alert":
		return r.diagnose()
	case "propose_remediation":
		return r.proposeRemediation(args)
	default:
		return fmt.Sprintf("Unknown tool: %s", toolName)
	}
}

// diagnose runs a fixed sequence of diagnostics and joins their output.
func (r *Registry) diagnose() string {
	sequence := []string{
		"get_active_alerts",
		"get_cpu_usage",
		"get_memory_usage",
		"get_load_average",
		"get_top_processes_by_cpu",
	}
	results := make([]string, 0, len(sequence))
	for _, name := range sequence {
		results = append(results, r.Execute(name, map[string]interface{}{}))
	}
	return strings.Join(results, "\n\n")
}

// proposeRemediation creates a PENDING action, audits it and notifies
// observers. No other capability may create an action.
func (r *Registry) proposeRemediation(args map[string]interface{}) string {
	actionType := models.ActionType(stringArg(args, "action_type", string(models.ActionCustom)))
	if !models.ValidActionType(actionType) {
		actionType = models.ActionCustom
	}
	severity := models.Severity(stringArg(args, "severity", string(models.SeverityMedium)))
	if !models.ValidSeverity(severity) {
		severity = models.SeverityMedium
	}

	action := &models.Action{
		ID:           uuid.New(),
		CreatedAt:    time.Now().UTC(),
		ActionType:   actionType,
		Target:       stringArg(args, "target", "unknown"),
		Description:  stringArg(args, "description", ""),
		Impact:       stringArg(args, "impact", "Unknown"),
		RollbackPlan: stringArg(args, "rollback_plan", "Manual intervention required"),
		Severity:     severity,
		Status:       models.StatusPending,
	}

	if err := r.actions.Create(action); err != nil {
		return fmt.Sprintf("Error: failed to store proposed action: %s", err)
	}

	r.ledger.Append(audit.Event(models.EventActionProposed, models.ActorAI,
		fmt.Sprintf("Proposed: %s on %s", action.ActionType, action.Target),
		map[string]interface{}{
			"action_type": action.ActionType,
			"target":      action.Target,
			"description": action.Description,
			"severity":    action.Severity,
		}, &action.ID))

	r.hub.PendingAction(action)

	return fmt.Sprintf("PROPOSED ACTION (ID: %s)\n\nAction: %s\nTarget: %s\nDescription: %s\nImpact: %s\nRollback: %s\n\nAWAITING HUMAN APPROVAL",
		shortID(action.ID), action.ActionType, action.Target, action.Description, action.Impact, action.RollbackPlan)
}

// degrade converts a monitoring failure into an explanatory result so a
// broken collaborator never aborts the enclosing conversation.
func degrade(result string, err error) string {
	if err != nil {
		return fmt.Sprintf("Error: %s", err)
	}
	return result
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

func stringArg(args map[string]interface{}, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func intArg(args map[string]interface{}, key string, fallback int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return fallback
}
