package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/colosseum-live/arena/internal/export"
)

var (
	exportFormat string
	exportOutput string
	exportTopic  string
)

var exportCmd = &cobra.Command{
	Use:   "export <debate-id>",
	Short: "Export a debate transcript to markdown, json or pdf",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debateID, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid debate id: %s", args[0])
		}

		chatSvc, closeStore, err := openChat()
		if err != nil {
			return err
		}
		defer closeStore()

		msgs, err := chatSvc.Messages(debateID)
		if err != nil {
			return err
		}
		if len(msgs) == 0 {
			return fmt.Errorf("no messages for debate %d", debateID)
		}

		topic := exportTopic
		if topic == "" {
			topic = fmt.Sprintf("Debate %d", debateID)
		}

		transcript := &export.Transcript{
			DebateID: debateID,
			Topic:    topic,
			RoomID:   msgs[0].RoomID,
			Messages: msgs,
		}

		exporter, err := export.GetExporter(export.Format(exportFormat))
		if err != nil {
			return err
		}

		path := exportOutput
		if path == "" {
			path = export.GenerateFilename(transcript, exporter.FileExtension())
		}

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()

		if err := exporter.Export(transcript, f); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Printf("Exported debate %d to %s\n", debateID, path)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "Export format: markdown, json, pdf")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: generated from topic)")
	exportCmd.Flags().StringVar(&exportTopic, "topic", "", "Topic shown in the export header")
}
