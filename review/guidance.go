package review

import "fmt"

// Guidance is the structured soft-block payload returned to the agent when
// a push is refused. It is a successful result flagged isError, never a
// transport error.
type Guidance struct {
	Error               bool     `json:"error"`
	Code                string   `json:"code"`
	Message             string   `json:"message"`
	PendingChangesCount int      `json:"pending_changes_count"`
	RequiredAction      string   `json:"required_action"`
	NextSteps           []string `json:"next_steps"`
	ReviewTool          string   `json:"review_tool"`
}

type guidanceText struct {
	message string
	action  string
	steps   []string
}

var texts = map[string]guidanceText{
	"en": {
		message: "Push blocked: %d pending change(s) have not been reviewed.",
		action:  "Call %s to review the pending changes before pushing.",
		steps: []string{
			"Call %s to list the pending changes (this marks them as reviewed).",
			"Check that the changes match what you intend to push.",
			"Call %s again with the same message.",
		},
	},
	"zh": {
		message: "推送已阻止：有 %d 个待处理变更尚未审查。",
		action:  "推送前请先调用 %s 审查待处理变更。",
		steps: []string{
			"调用 %s 列出待处理变更（此操作会将其标记为已审查）。",
			"确认这些变更符合你要推送的内容。",
			"使用相同的提交信息再次调用 %s。",
		},
	},
}

// NotReviewed builds the guidance for a blocked push. reviewTool and
// pushTool are the advertised (possibly prefixed) tool names. Unknown
// languages fall back to English.
func NotReviewed(pending int, reviewTool, pushTool, language string) Guidance {
	t, ok := texts[language]
	if !ok {
		t = texts["en"]
	}
	return Guidance{
		Error:               true,
		Code:                CodeChangesNotReviewed,
		Message:             fmt.Sprintf(t.message, pending),
		PendingChangesCount: pending,
		RequiredAction:      fmt.Sprintf(t.action, reviewTool),
		NextSteps: []string{
			fmt.Sprintf(t.steps[0], reviewTool),
			t.steps[1],
			fmt.Sprintf(t.steps[2], pushTool),
		},
		ReviewTool: reviewTool,
	}
}

// ToolError marks the result as a soft failure in the tool result envelope.
func (Guidance) ToolError() bool { return true }
