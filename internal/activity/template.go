package activity

import "strings"

// Render performs pure {token} substitution on a rule template. The
// template is trimmed first; tokens without a matching context field are
// left verbatim so operators can spot typos in the delivered text instead
// of silently losing them.
func Render(template string, fields map[string]string) string {
	out := strings.TrimSpace(template)
	if out == "" {
		return ""
	}

	for key, value := range fields {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}

	return out
}
