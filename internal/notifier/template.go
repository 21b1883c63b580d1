package notifier

import (
	"fmt"
	"html"
	"strings"

	"tender-scout-go/internal/models"
)

const maxHashtagLen = 50

// RenderTenderMessage formats a tender into the HTML alert sent to the
// Telegram channel.
func RenderTenderMessage(t models.Tender) string {
	var b strings.Builder

	b.WriteString("<b>🔔 New Tender Alert!</b>\n\n")
	fmt.Fprintf(&b, "<b>Title:</b> %s\n\n", html.EscapeString(t.Title))

	b.WriteString("<i>📋 Key Details</i>\n")
	fmt.Fprintf(&b, "• <b>Organization:</b> %s\n", html.EscapeString(t.Organization))
	fmt.Fprintf(&b, "• <b>Location:</b> %s\n", html.EscapeString(t.Location))
	fmt.Fprintf(&b, "• <b>Posted Date:</b> %s\n", html.EscapeString(t.PostedDate))
	fmt.Fprintf(&b, "• <b>Closing Date:</b> %s\n\n", html.EscapeString(t.ClosingDate))

	b.WriteString("<i>📝 Description:</i>\n")
	b.WriteString(html.EscapeString(t.TenderContent))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "<a href=\"%s\">View Full Details</a>\n\n", html.EscapeString(t.URL))
	fmt.Fprintf(&b, "<code>Source: %s</code>\n", html.EscapeString(t.Source))
	fmt.Fprintf(&b, "<code>%s</code>\n", hashtags(t.Title+" "+t.Organization))

	return b.String()
}

// hashtags derives a bounded hashtag line from distinct words longer than
// three characters.
func hashtags(text string) string {
	seen := make(map[string]struct{})
	var tags []string
	for _, word := range strings.Fields(text) {
		if len(word) <= 3 {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		tags = append(tags, "#"+word)
	}

	// Cap the line at whole tags so multi-byte runes are never split.
	var b strings.Builder
	for _, tag := range tags {
		add := len(tag)
		if b.Len() > 0 {
			add++
		}
		if b.Len()+add > maxHashtagLen {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tag)
	}
	return b.String()
}
