package discord

import "fmt"

// NoMessage is the placeholder body used when a highlight payload is
// incomplete. Formatting never blocks delivery.
const NoMessage = "No message"

// FormatHighlight composes the outbound message for a highlight.
// When name, title, author and text are all present the result is a fenced
// quotation block attributing the highlight; otherwise it is the placeholder.
func FormatHighlight(name, title, author, text string) string {
	if name == "" || title == "" || author == "" || text == "" {
		return NoMessage
	}
	return fmt.Sprintf("```\n%s highlighted:\n\n%s\nby %s\n\n%s\n```", name, title, author, text)
}
