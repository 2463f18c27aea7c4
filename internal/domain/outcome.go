package domain

// ToolFailureKind classifies why a tool invocation did not succeed.
type ToolFailureKind string

const (
	ToolFailureNone               ToolFailureKind = ""
	ToolFailureExecutionFailed    ToolFailureKind = "execution-failed"
	ToolFailureConfirmationDenied ToolFailureKind = "confirmation-denied"
	ToolFailurePolicyDenied       ToolFailureKind = "policy-denied"
	ToolFailureTimeout            ToolFailureKind = "timeout"
	ToolFailureValidation         ToolFailureKind = "validation"
)

// ToolResult is the success/failure payload of a tool execution.
type ToolResult struct {
	Success     bool            `json:"success"`
	Output      string          `json:"output,omitempty"`
	FailureKind ToolFailureKind `json:"failure_kind,omitempty"`
}

// SuccessResult builds a successful tool result.
func SuccessResult(output string) ToolResult {
	return ToolResult{Success: true, Output: output}
}

// FailureResult builds a failed tool result with the given kind.
func FailureResult(kind ToolFailureKind, message string) ToolResult {
	return ToolResult{Success: false, Output: message, FailureKind: kind}
}

// ToolOutcome is the recorded outcome of one tool call. Synthesized outcomes
// are fabricated by the orchestrator (early stop, thrown fault) without the
// tool actually running.
type ToolOutcome struct {
	ToolCallID  string     `json:"tool_call_id"`
	ToolName    string     `json:"tool_name"`
	Result      ToolResult `json:"result"`
	Content     string     `json:"content"`
	Synthesized bool       `json:"synthesized,omitempty"`
}

// SyntheticOutcome builds a fabricated failure outcome for a tool call.
func SyntheticOutcome(call ToolCall, kind ToolFailureKind, message string) ToolOutcome {
	return ToolOutcome{
		ToolCallID:  call.ID,
		ToolName:    call.Name,
		Result:      FailureResult(kind, message),
		Content:     message,
		Synthesized: true,
	}
}
