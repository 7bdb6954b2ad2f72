package listing

import (
	"encoding/json"
	"fmt"
	"strings"
)

const noDescription = "(no text)"

// CleanDescription returns display text for a stored description. Some
// import sources put a serialized object in the description column; its
// text, name or description member is used in that order.
func CleanDescription(description *string) string {
	if description == nil {
		return noDescription
	}

	desc := strings.TrimSpace(*description)
	if desc == "" {
		return noDescription
	}

	if !strings.HasPrefix(desc, "{") {
		return desc
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(desc), &obj); err != nil {
		return noDescription
	}

	for _, key := range []string{"text", "name", "description"} {
		v, ok := obj[key]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}

	return noDescription
}
