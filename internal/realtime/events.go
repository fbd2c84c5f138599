package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/johndosdos/chatter-client/internal/model"
)

// ErrUnknownEvent is returned by Decode for events the client does not
// handle.
var ErrUnknownEvent = errors.New("realtime: unknown event")

// Encode wraps an outbound payload in an envelope frame.
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("realtime: could not encode %s payload: %w", event, err)
	}
	return json.Marshal(model.Envelope{Event: event, Data: data})
}

// Decode turns an inbound frame into one of model.ReceivedMessage,
// model.ContactListUpdate, model.ContactItemUpdate,
// model.ProfilePictureUpdate or model.UserConnected.
func Decode(p []byte) (any, error) {
	var env model.Envelope
	if err := json.Unmarshal(p, &env); err != nil {
		return nil, fmt.Errorf("realtime: could not decode frame: %w", err)
	}

	var (
		ev  any
		err error
	)
	switch env.Event {
	case model.EventReceiveMessage:
		var m model.ReceivedMessage
		err = json.Unmarshal(env.Data, &m)
		ev = m
	case model.EventUpdateContactList:
		var m model.ContactListUpdate
		err = json.Unmarshal(env.Data, &m)
		ev = m
	case model.EventUpdateContactItem:
		var m model.ContactItemUpdate
		err = json.Unmarshal(env.Data, &m)
		ev = m
	case model.EventUpdateProfilePicture:
		var m model.ProfilePictureUpdate
		err = json.Unmarshal(env.Data, &m)
		ev = m
	case model.EventUserConnected:
		var m model.UserConnected
		err = json.Unmarshal(env.Data, &m)
		ev = m
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	if err != nil {
		return nil, fmt.Errorf("realtime: could not decode %s payload: %w", env.Event, err)
	}
	return ev, nil
}
