package memento

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// DefaultLabelLength is the number of runes of a payload's canonical string
// form kept in a snapshot label.
const DefaultLabelLength = 9

const labelEllipsis = "..."

// deriveLabel returns the first length runes of value's canonical string,
// marking truncation with an ellipsis.
func deriveLabel(value any, length int) string {
	if length <= 0 {
		length = DefaultLabelLength
	}
	text := canonicalString(value)
	if utf8.RuneCountInString(text) <= length {
		return text
	}
	runes := []rune(text)
	return string(runes[:length]) + labelEllipsis
}

func canonicalString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	}
	if encoded, err := json.Marshal(value); err == nil {
		return string(encoded)
	}
	return fmt.Sprint(value)
}
