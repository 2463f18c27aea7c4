package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ReadFileTool reads a file from the workspace.
type ReadFileTool struct {
	workspace string
}

// NewReadFileTool creates a read_file tool rooted at the workspace.
func NewReadFileTool(workspace string) *ReadFileTool {
	return &ReadFileTool{workspace: workspace}
}

func (t *ReadFileTool) Name() string { return "read_file" }

func (t *ReadFileTool) Description() string {
	return "Read the contents of a file. Returns the file content as text."
}

func (t *ReadFileTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Path to the file, relative to the workspace",
			},
		},
		"required": []string{"path"},
	}
}

func (t *ReadFileTool) Execute(_ Context, params map[string]any) (string, error) {
	path := GetString(params, "path", "")
	if path == "" {
		return "", fmt.Errorf("path parameter is required")
	}
	resolved, err := t.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

func (t *ReadFileTool) resolve(path string) (string, error) {
	full := filepath.Join(t.workspace, filepath.Clean("/"+path))
	if !strings.HasPrefix(full, filepath.Clean(t.workspace)+string(os.PathSeparator)) &&
		full != filepath.Clean(t.workspace) {
		return "", fmt.Errorf("path escapes workspace: %s", path)
	}
	return full, nil
}

// ListDirTool lists directory entries in the workspace.
type ListDirTool struct {
	workspace string
}

// NewListDirTool creates a list_dir tool rooted at the workspace.
func NewListDirTool(workspace string) *ListDirTool {
	return &ListDirTool{workspace: workspace}
}

func (t *ListDirTool) Name() string { return "list_dir" }

func (t *ListDirTool) Description() string {
	return "List the entries of a directory."
}

func (t *ListDirTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{
				"type":        "string",
				"description": "Directory path, relative to the workspace. Defaults to the workspace root.",
			},
		},
	}
}

func (t *ListDirTool) Execute(_ Context, params map[string]any) (string, error) {
	path := GetString(params, "path", ".")
	full := filepath.Join(t.workspace, filepath.Clean("/"+path))
	entries, err := os.ReadDir(full)
	if err != nil {
		return "", fmt.Errorf("list dir: %w", err)
	}
	var sb strings.Builder
	for _, e := range entries {
		if e.IsDir() {
			sb.WriteString(e.Name() + "/\n")
		} else {
			sb.WriteString(e.Name() + "\n")
		}
	}
	if sb.Len() == 0 {
		return "(empty)", nil
	}
	return sb.String(), nil
}

// CurrentTimeTool reports the current time.
type CurrentTimeTool struct {
	now func() time.Time
}

// NewCurrentTimeTool creates a current_time tool.
func NewCurrentTimeTool() *CurrentTimeTool {
	return &CurrentTimeTool{now: time.Now}
}

func (t *CurrentTimeTool) Name() string { return "current_time" }

func (t *CurrentTimeTool) Description() string {
	return "Get the current date and time."
}

func (t *CurrentTimeTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *CurrentTimeTool) Execute(_ Context, _ map[string]any) (string, error) {
	return t.now().Format(time.RFC1123), nil
}

// SwitchSkillToolName is a control tool: the tool loop intercepts it instead
// of executing it, recording a continuation request for the outer pipeline.
const SwitchSkillToolName = "switch_skill"

// SwitchSkillTool only contributes a definition so the model can request a
// skill/tier switch; Execute is never reached in the normal flow.
type SwitchSkillTool struct{}

// NewSwitchSkillTool creates the switch_skill control tool.
func NewSwitchSkillTool() *SwitchSkillTool { return &SwitchSkillTool{} }

func (t *SwitchSkillTool) Name() string { return SwitchSkillToolName }

func (t *SwitchSkillTool) Description() string {
	return "Switch the active skill/model tier for the rest of this conversation turn."
}

func (t *SwitchSkillTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"skill": map[string]any{
				"type":        "string",
				"description": "Target skill or tier name (e.g. fast, balanced, deep)",
			},
		},
		"required": []string{"skill"},
	}
}

func (t *SwitchSkillTool) Execute(_ Context, params map[string]any) (string, error) {
	skill := GetString(params, "skill", "")
	if skill == "" {
		return "", fmt.Errorf("skill parameter is required")
	}
	return "Switching to skill: " + skill, nil
}
