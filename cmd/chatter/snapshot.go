package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/johndosdos/chatter-client/components/chat"
	"github.com/johndosdos/chatter-client/internal/api"
	"github.com/johndosdos/chatter-client/internal/model"
	"github.com/johndosdos/chatter-client/internal/view"
)

func runSnapshot(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	_, client, id, closeLog, err := session(ctx)
	if err != nil {
		return err
	}
	defer closeLog()

	state := view.New(id)
	settle(ctx, client, state, view.Started{})

	if flagChat != "" {
		chatID := model.ID(flagChat)
		name := flagChat
		if i := state.ContactIndex(chatID); i >= 0 {
			name = state.Contacts[i].Name
		}
		settle(ctx, client, state, view.SelectChat{ChatID: chatID, Name: name})
	}

	var out io.Writer = cmd.OutOrStdout()
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		defer f.Close()
		out = f
	}

	return chat.Page(state).Render(ctx, out)
}

// settle applies msg and performs the read-only effects it leads to,
// until none are left. A snapshot never writes: joins, read receipts and
// emissions are skipped.
func settle(ctx context.Context, client *api.Client, state *view.State, msg view.Msg) {
	queue := []view.Msg{msg}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		for _, e := range state.Update(next) {
			switch e := e.(type) {
			case view.FetchContacts:
				contacts, err := client.Contacts(ctx)
				queue = append(queue, view.ContactsLoaded{Contacts: contacts, Err: err})
			case view.FetchPicture:
				picture, err := client.ProfilePicture(ctx)
				queue = append(queue, view.PictureLoaded{Picture: picture, Err: err})
			case view.FetchChatInfo:
				info, err := client.Chat(ctx, e.ChatID)
				queue = append(queue, view.ChatInfoLoaded{ChatID: e.ChatID, Info: info, Err: err})
			case view.FetchHistory:
				messages, err := client.Messages(ctx, e.ChatID)
				queue = append(queue, view.HistoryLoaded{ChatID: e.ChatID, Messages: messages, Err: err})
			default:
				log.Debug().Msgf("snapshot: skipping %T", e)
			}
		}
	}
}
