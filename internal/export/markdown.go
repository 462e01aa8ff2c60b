package export

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownExporter exports transcripts to Markdown format.
type MarkdownExporter struct{}

// Export writes the transcript as Markdown.
func (e *MarkdownExporter) Export(t *Transcript, w io.Writer) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", t.Topic))

	sb.WriteString("## Debate Information\n\n")
	sb.WriteString(fmt.Sprintf("- **Debate:** `%d`\n", t.DebateID))
	sb.WriteString(fmt.Sprintf("- **Room:** `%s`\n", t.RoomID))
	sb.WriteString(fmt.Sprintf("- **Messages:** %d\n", len(t.Messages)))
	sb.WriteString("\n")

	sb.WriteString("## Transcript\n\n")

	if len(t.Messages) == 0 {
		sb.WriteString("*No messages recorded.*\n\n")
	} else {
		for _, msg := range t.Messages {
			sb.WriteString(fmt.Sprintf("### %s\n", senderLabel(msg)))
			sb.WriteString(fmt.Sprintf("*%s*\n\n", msg.CreatedAt.Format("January 2, 2006 at 3:04 PM")))
			sb.WriteString(msg.Content)
			sb.WriteString("\n\n---\n\n")
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return "md"
}
