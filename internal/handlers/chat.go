package handlers

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/carsch18/AI-OPS/internal/llm"
	"github.com/carsch18/AI-OPS/internal/tools"
	"github.com/gofiber/fiber/v2"
)

const supervisorPrompt = `You are the Supervisor Agent for an AIOps platform. Your role is to:
1. Analyze incoming requests and alerts
2. Use monitoring tools to gather data
3. When you identify an issue that needs fixing, use propose_remediation to suggest a fix

IMPORTANT: When proposing remediation, always provide:
- Clear action_type (restart_service, kill_process, etc.)
- Specific target
- Detailed description
- Expected impact
- Rollback plan

Be concise and action-oriented.`

const remediationPrompt = `You are a Remediation Agent. When asked to fix something, you MUST use the propose_remediation tool.

DO NOT describe what you would do - ACTUALLY CALL the propose_remediation function with:
- action_type: restart_service, kill_process, clear_cache, scale_up, scale_down, restart_container, run_playbook, or custom
- target: The specific service, process, or component
- description: What the action will do
- impact: Expected impact (e.g., "2-3 seconds downtime")
- rollback_plan: How to undo if it fails
- severity: LOW, MEDIUM, HIGH, or CRITICAL

You MUST call propose_remediation. DO NOT just describe it - EXECUTE THE TOOL.`

var fixKeywords = []string{"fix", "remediate", "restart", "kill", "stop", "resolve", "clear", "scale"}

var investigationKeywords = []string{"diagnose", "investigate", "alert", "problem", "issue", "why", "analyze"}

// ChatHandler is the reasoning-agent round trip: it forwards the operator
// message to the LLM together with the tool definitions and feeds each tool
// result back as the observation for the agent's next step.
type ChatHandler struct {
	client   *llm.Client
	registry *tools.Registry
}

func NewChatHandler(client *llm.Client, registry *tools.Registry) *ChatHandler {
	return &ChatHandler{client: client, registry: registry}
}

type chatResponse struct {
	Response              string   `json:"response"`
	ToolsUsed             []string `json:"tools_used"`
	InvestigationComplete bool     `json:"investigation_complete"`
}

func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Message is required",
		})
	}

	lower := strings.ToLower(req.Message)
	wantsFix := containsAny(lower, fixKeywords)
	isInvestigation := containsAny(lower, investigationKeywords)

	// Direct test mode bypasses the LLM entirely.
	if strings.Contains(lower, "test") || strings.Contains(lower, "demo") {
		result := h.registry.Execute("propose_remediation", map[string]interface{}{
			"action_type":   "restart_service",
			"target":        "test-service",
			"description":   "Test remediation action for approval workflow demo",
			"impact":        "No actual impact - demo only",
			"rollback_plan": "N/A - test only",
			"severity":      "LOW",
		})
		return c.JSON(chatResponse{Response: result, ToolsUsed: []string{"propose_remediation"}})
	}

	if !h.client.Configured() {
		return c.JSON(h.fallback(lower, wantsFix))
	}

	prompt := supervisorPrompt
	toolChoice := "auto"
	if wantsFix {
		prompt = remediationPrompt
		toolChoice = "required"
	}

	messages := []llm.Message{
		{Role: "system", Content: prompt},
		{Role: "user", Content: req.Message},
	}

	assistant, err := h.client.ChatCompletion(messages, h.registry.Definitions(), toolChoice)
	if err != nil {
		slog.Error("LLM completion failed", "error", err)
		return c.JSON(chatResponse{Response: "Error: " + err.Error()})
	}

	if len(assistant.ToolCalls) == 0 {
		content := assistant.Content
		if content == "" {
			content = "I understand. How can I help?"
		}
		return c.JSON(chatResponse{Response: content, ToolsUsed: []string{}})
	}

	var toolsUsed []string
	messages = append(messages, *assistant)
	for _, tc := range assistant.ToolCalls {
		toolsUsed = append(toolsUsed, tc.Function.Name)

		args := map[string]interface{}{}
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			slog.Warn("unparseable tool arguments", "tool", tc.Function.Name, "error", err)
		}

		result := h.registry.Execute(tc.Function.Name, args)
		messages = append(messages, llm.Message{
			Role:       "tool",
			ToolCallID: tc.ID,
			Content:    result,
		})
	}

	final, err := h.client.ChatCompletion(messages, nil, "")
	if err != nil {
		slog.Error("LLM final completion failed", "error", err)
		return c.JSON(chatResponse{Response: "Error: " + err.Error(), ToolsUsed: toolsUsed})
	}

	return c.JSON(chatResponse{
		Response:              final.Content,
		ToolsUsed:             toolsUsed,
		InvestigationComplete: isInvestigation,
	})
}

// fallback serves a degraded conversation when no LLM is configured.
func (h *ChatHandler) fallback(lower string, wantsFix bool) chatResponse {
	switch {
	case strings.Contains(lower, "cpu"):
		return chatResponse{
			Response:  h.registry.Execute("get_cpu_usage", map[string]interface{}{}),
			ToolsUsed: []string{"get_cpu_usage"},
		}
	case wantsFix:
		return chatResponse{
			Response: h.registry.Execute("propose_remediation", map[string]interface{}{
				"action_type":   "restart_service",
				"target":        "demo-service",
				"description":   "Demo remediation action (LLM not configured)",
				"impact":        "No actual impact - demo only",
				"rollback_plan": "N/A",
				"severity":      "LOW",
			}),
			ToolsUsed: []string{"propose_remediation"},
		}
	default:
		return chatResponse{
			Response:  h.registry.Execute("get_active_alerts", map[string]interface{}{}),
			ToolsUsed: []string{"get_active_alerts"},
		}
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
