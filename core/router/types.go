// Package router turns inbound updates into outbound actions. It owns
// the menu state machine and never touches the network: handlers are
// unit-testable by inspecting the returned actions.
package router

import "github.com/mrhouse-klg/housebot/core/menu"

// UpdateKind tags the inbound update union.
type UpdateKind int

const (
	// KindCommand is a slash command such as /start.
	KindCommand UpdateKind = iota
	// KindText is a plain text message, usually a reply-keyboard press.
	KindText
	// KindCallback is an inline-keyboard button press.
	KindCallback
)

// Update is one inbound event, already decoded from the webhook payload.
// Exactly the fields matching Kind are meaningful.
type Update struct {
	ID     int
	ChatID int64
	UserID int64

	Kind    UpdateKind
	Command string // KindCommand: normalized, with leading slash
	Text    string // KindText

	CallbackID string // KindCallback: platform ack identifier
	MessageID  int    // KindCallback: message carrying the keyboard
	Action     string // KindCallback: opaque action, e.g. "select:Шопино"
}

// Action is one outbound side effect requested by a handler.
type Action interface {
	action()
}

// SendText sends a plain text message, optionally with a keyboard.
type SendText struct {
	ChatID   int64
	Text     string
	Keyboard menu.Grid
}

// SendPhoto sends an image with a caption and an inline keyboard.
// Fallback, when set, is what the executor degrades to if the image
// cannot be delivered.
type SendPhoto struct {
	ChatID   int64
	ImageRef string
	Caption  string
	Keyboard menu.Grid
	Fallback *SendText
}

func (SendText) action()  {}
func (SendPhoto) action() {}
