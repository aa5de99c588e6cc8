package journal

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// maxScriptLen bounds the script text kept per record.
const maxScriptLen = 4096

var dataURLPattern = regexp.MustCompile(`data:([\w.+-]+/[\w.+-]+)?;base64,[A-Za-z0-9+/=]+`)

// RedactScript replaces embedded data URL payloads with a size marker and
// truncates the result to maxScriptLen bytes.
func RedactScript(script string) string {
	out := dataURLPattern.ReplaceAllStringFunc(script, func(m string) string {
		sub := dataURLPattern.FindStringSubmatch(m)
		prefix := len("data:") + len(sub[1]) + len(";base64,")
		return fmt.Sprintf("data:%s;base64,[REDACTED %d bytes]", sub[1], len(m)-prefix)
	})
	return truncate(out, maxScriptLen)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
