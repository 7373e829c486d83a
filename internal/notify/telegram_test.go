package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/room_booking/internal/model"
)

type fakeSender struct {
	sent []*bot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &models.Message{ID: len(f.sent)}, nil
}

func sampleEvent() Event {
	start := time.Date(2030, 5, 6, 14, 0, 0, 0, time.UTC)
	return Event{
		Kind:      KindConfirmed,
		BookingID: 42,
		Window:    model.Window{Start: start, End: start.Add(time.Hour)},
		Creator:   "Ann Lee <ann@example.com>",
		Rooms:     []string{"YVR32 1.101 Maple", "YVR32 2.201 Oak"},
		Attendees: 7,
		At:        start.Add(-3 * time.Hour),
	}
}

func TestFormat(t *testing.T) {
	got := Format(sampleEvent())

	assert.Equal(t, "<b>✅ Booking #42 confirmed</b>\n"+
		"Mon, 06 May 2030 14:00-15:00 UTC (3 hours from now)\n"+
		"By: Ann Lee &lt;ann@example.com&gt;\n"+
		"Rooms: YVR32 1.101 Maple, YVR32 2.201 Oak\n"+
		"Attendees: 7", got)
}

func TestFormatCanceledWithoutDetails(t *testing.T) {
	e := sampleEvent()
	e.Kind = KindCanceled
	e.Creator, e.Rooms, e.Attendees = "", nil, 0

	assert.Equal(t, "<b>❌ Booking #42 canceled</b>\nMon, 06 May 2030 14:00-15:00 UTC (3 hours from now)", Format(e))
}

func TestTelegramNotify(t *testing.T) {
	sender := &fakeSender{}
	tg := NewTelegram(sender, -100123)

	require.NoError(t, tg.Notify(context.Background(), sampleEvent()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(-100123), sender.sent[0].ChatID)
	assert.Equal(t, models.ParseModeHTML, sender.sent[0].ParseMode)
	assert.Contains(t, sender.sent[0].Text, "Booking #42")
}

func TestTelegramNotifyError(t *testing.T) {
	tg := NewTelegram(&fakeSender{err: errors.New("chat not found")}, 1)

	err := tg.Notify(context.Background(), sampleEvent())

	assert.ErrorContains(t, err, "send booking 42 notification")
	assert.ErrorContains(t, err, "chat not found")
}
