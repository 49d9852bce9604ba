package telegram

import (
	"fmt"

	tele "gopkg.in/telebot.v4"
)

// NewBot constructs a telebot client for outbound traffic. No poller is
// attached: updates arrive through the webhook ingress, the bot is only
// ever used to send. Offline skips the startup getMe round trip, which
// tests rely on.
func NewBot(token string, offline bool) (*tele.Bot, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:   token,
		Client:  BuildHTTPClient(),
		Offline: offline,
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	return bot, nil
}
