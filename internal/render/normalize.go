package render

import (
	"fmt"
	"strings"
)

var escapeReplacer = strings.NewReplacer(
	`\r\n`, "\n",
	`\n`, "\n",
	`\t`, "\t",
)

// NormalizeForDisplay turns literal escape sequences (backslash-n,
// backslash-r-backslash-n, backslash-t) into the characters they name.
// nil becomes "" and other values are formatted with fmt.Sprint.
func NormalizeForDisplay(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return escapeReplacer.Replace(s)
	default:
		return fmt.Sprint(v)
	}
}
