// Package template provides placeholder substitution for action node
// configuration. Templates use {field} placeholders resolved against the
// triggering event payload.
package template

import "regexp"

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// Render replaces every {field} placeholder in input with the string value of
// payload[field]. Placeholders with no matching payload field render as an
// empty string.
func Render(input string, payload map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		field := placeholderPattern.FindStringSubmatch(match)[1]

		return payload[field]
	})
}

// RenderConfig returns a copy of config with every string value rendered
// against the payload. Non-string values pass through unchanged.
func RenderConfig(config map[string]any, payload map[string]string) map[string]any {
	resolved := make(map[string]any, len(config))

	for key, value := range config {
		if str, ok := value.(string); ok {
			resolved[key] = Render(str, payload)

			continue
		}

		resolved[key] = value
	}

	return resolved
}
