package completion

// Models is the closed, ordered list of selectable completion models.
var Models = []string{
	"claude-4-sonnet",
	"claude-3-7-sonnet",
	"mistral-large2",
	"openai-gpt-4.1",
	"snowflake-arctic",
}

// DefaultModel is preselected for new sessions.
var DefaultModel = Models[0]

// InsightsModel answers questions about analytics tables.
const InsightsModel = "claude-3-7-sonnet"

// IsAllowed reports whether model is on the allow-list.
func IsAllowed(model string) bool {
	return IndexOf(model) >= 0
}

// IndexOf returns the position of model in Models, or -1.
func IndexOf(model string) int {
	for i, m := range Models {
		if m == model {
			return i
		}
	}
	return -1
}
