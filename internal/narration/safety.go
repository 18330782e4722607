package narration

import (
	"regexp"
	"strings"
)

// Words scrubbed from narrations regardless of what the model returns.
// Matched on word boundaries so "painful" is not caught by "pain".
var unsafeWords = regexp.MustCompile(`(?i)\b(scary|frightening|dangerous|violent|hurt|pain|death|die|kill)\b`)

// filterText scrubs words unsuitable for young readers and caps the
// narration at maxWords, which scales with reader age and page count.
func filterText(text string, maxWords int) string {
	words := strings.Fields(unsafeWords.ReplaceAllString(text, ""))
	if len(words) > maxWords {
		return strings.Join(words[:maxWords], " ") + "..."
	}
	return strings.Join(words, " ")
}
