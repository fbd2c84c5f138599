// Package chat renders the client view state as HTML fragments.
package chat

//go:generate templ generate

import (
	"github.com/microcosm-cc/bluemonday"

	"github.com/johndosdos/chatter-client/internal/model"
	"github.com/johndosdos/chatter-client/internal/view"
)

// DefaultAvatar is shown for users without a profile picture.
const DefaultAvatar = "/static/img/default-avatar.png"

// Message content is user supplied; keep formatting, drop scripts.
var policy = bluemonday.UGCPolicy()

// AvatarSrc returns an image source for a base64 picture.
func AvatarSrc(picture string) string {
	if picture == "" {
		return DefaultAvatar
	}
	return "data:image/png;base64," + picture
}

func isActive(s *view.State, chatID model.ID) bool {
	active, ok := s.Selected()
	return ok && active == chatID
}

// In order to group messages by sender, we need to reference the
// previous message.
func sameSender(messages []view.Message, i int) bool {
	return i > 0 && messages[i-1].SenderID == messages[i].SenderID
}

func statusLabel(status string) string {
	if status == model.StatusRead {
		return "Read"
	}
	return "Sent"
}
