package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/colosseum-live/arena/internal/chat"
	"github.com/colosseum-live/arena/internal/feed"
	"github.com/colosseum-live/arena/internal/store"
)

var transcriptCmd = &cobra.Command{
	Use:   "transcript <debate-id>",
	Short: "Print a debate's full message history",
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
			fmt.Printf("No messages for debate %d\n", debateID)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, msg := range msgs {
			fmt.Fprintf(w, "%s\t%s\t%s\n", msg.CreatedAt.Format("15:04:05"), msg.Sender, msg.Content)
		}
		return w.Flush()
	},
}

// openChat wires a read-only chat service against the configured database.
func openChat() (*chat.Service, func(), error) {
	st, err := store.NewSQLiteStore(appConfig.Storage.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := st.Initialize(); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return chat.NewService(st, feed.NewHub()), func() { st.Close() }, nil
}
