package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender is the part of *bot.Bot the notifier needs.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Telegram posts booking changes to one chat.
type Telegram struct {
	sender Sender
	chatID int64
}

func NewTelegram(sender Sender, chatID int64) *Telegram {
	return &Telegram{sender: sender, chatID: chatID}
}

// NewTelegramBot connects to the Bot API with token.
func NewTelegramBot(token string, chatID int64) (*Telegram, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return NewTelegram(b, chatID), nil
}

func (t *Telegram) Notify(ctx context.Context, e Event) error {
	_, err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    t.chatID,
		Text:      Format(e),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send booking %d notification: %w", e.BookingID, err)
	}
	return nil
}

var headlines = map[Kind]string{
	KindConfirmed: "✅ Booking #%d confirmed",
	KindUpdated:   "✏️ Booking #%d updated",
	KindCanceled:  "❌ Booking #%d canceled",
}

// Format renders e as an HTML chat message.
func Format(e Event) string {
	var sb strings.Builder
	headline, ok := headlines[e.Kind]
	if !ok {
		headline = "Booking #%d changed"
	}
	fmt.Fprintf(&sb, "<b>"+headline+"</b>\n", e.BookingID)

	start, end := e.Window.Start.UTC(), e.Window.End.UTC()
	fmt.Fprintf(&sb, "%s %s-%s UTC (%s)\n",
		start.Format("Mon, 02 Jan 2006"), start.Format("15:04"), end.Format("15:04"),
		humanize.RelTime(start, e.At, "ago", "from now"))

	if e.Creator != "" {
		fmt.Fprintf(&sb, "By: %s\n", html.EscapeString(e.Creator))
	}
	if len(e.Rooms) > 0 {
		fmt.Fprintf(&sb, "Rooms: %s\n", html.EscapeString(strings.Join(e.Rooms, ", ")))
	}
	if e.Attendees > 0 {
		fmt.Fprintf(&sb, "Attendees: %s", humanize.Comma(int64(e.Attendees)))
	}
	return strings.TrimRight(sb.String(), "\n")
}
