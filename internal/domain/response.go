package domain

// Attachment is a binary artifact produced by a tool and delivered alongside
// the outgoing response.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type,omitempty"`
	Path     string `json:"path,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

// OutgoingResponse is the single user-visible result of a turn. At most one
// is produced per turn.
type OutgoingResponse struct {
	Text           string         `json:"text,omitempty"`
	VoiceRequested bool           `json:"voice_requested,omitempty"`
	VoiceText      string         `json:"voice_text,omitempty"`
	Attachments    []Attachment   `json:"attachments,omitempty"`
	SkipHistory    bool           `json:"skip_history,omitempty"`
	Hints          map[string]any `json:"hints,omitempty"`
}

// TextOnly builds a plain text response.
func TextOnly(text string) *OutgoingResponse {
	return &OutgoingResponse{Text: text}
}

// HasText reports whether the response carries non-blank text.
func (r *OutgoingResponse) HasText() bool {
	return r != nil && len([]rune(r.Text)) > 0 && !isBlank(r.Text)
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// StopReason tags why the tool loop halted before a natural final answer.
type StopReason string

const (
	StopNone              StopReason = ""
	StopMaxModelCalls     StopReason = "max-model-calls"
	StopMaxToolExecutions StopReason = "max-tool-executions"
	StopDeadline          StopReason = "deadline"
	StopPolicy            StopReason = "policy-stop"
)
