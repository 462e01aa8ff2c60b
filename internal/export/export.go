// Package export handles exporting debate transcripts to various formats.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/colosseum-live/arena/internal/core"
)

// Format represents an export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
	FormatJSON     Format = "json"
)

// Transcript is a debate's exportable history.
type Transcript struct {
	DebateID uint64         `json:"debate_id"`
	Topic    string         `json:"topic"`
	RoomID   string         `json:"room_id"`
	Messages []core.Message `json:"messages"`
}

// Exporter defines the interface for exporting transcripts.
type Exporter interface {
	Export(t *Transcript, w io.Writer) error
	FileExtension() string
}

// GetExporter returns an exporter for the given format.
func GetExporter(format Format) (Exporter, error) {
	switch format {
	case FormatMarkdown:
		return &MarkdownExporter{}, nil
	case FormatPDF:
		return &PDFExporter{}, nil
	case FormatJSON:
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// GenerateFilename creates a filename for the export.
func GenerateFilename(t *Transcript, ext string) string {
	topic := t.Topic
	if len(topic) > 50 {
		topic = topic[:50]
	}

	// Replace unsafe characters
	replacer := strings.NewReplacer(
		" ", "_",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	topic = replacer.Replace(topic)

	return fmt.Sprintf("debate_%d_%s.%s", t.DebateID, topic, ext)
}

func senderLabel(msg core.Message) string {
	if msg.IsSystem() {
		return "Moderator"
	}
	return msg.Sender
}
