package index

import "fmt"

// FormatTokens formats a token count for display, e.g. "~500 tokens" or
// "~2k tokens".
func FormatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("~%d tokens", tokens)
	}
	return fmt.Sprintf("~%dk tokens", (tokens+500)/1000)
}
