// Package remindme is the "remindme:" chat command. It records reminders
// from channel messages and posts them back when they fall due.
package remindme

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jasperbot/jasper/events"
	"github.com/jasperbot/jasper/model"
	"github.com/jasperbot/jasper/storage"
)

// Name identifies the app in logs.
const Name = "remindme"

const invalidFormatReply = "Sorry, that was an invalid reminder format."

// Poster posts a message to a channel. *rest.Client implements it.
type Poster interface {
	PostMessage(ctx context.Context, channelID, content string) (*model.Message, error)
}

// App handles remindme commands.
type App struct {
	poster Poster
	store  storage.Store
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

// New creates the app. A nil loc reads dates as UTC.
func New(poster Poster, store storage.Store, logger *slog.Logger, loc *time.Location) *App {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &App{
		poster: poster,
		store:  store,
		logger: logger.With("app", Name),
		loc:    loc,
		now:    time.Now,
	}
}

// Handler returns the MESSAGE_CREATE handler for the app.
func (a *App) Handler() events.Handler { return events.OnMessage(a.HandleMessage) }

// HandleMessage records the reminder a message asks for and confirms it,
// or tells the author the request could not be read. Messages from bots
// and messages not starting with "remindme:" are ignored.
func (a *App) HandleMessage(ctx context.Context, m *model.Message) error {
	if m.Author == nil || m.Author.Bot || !IsRequest(m.Content) {
		return nil
	}

	req, err := Parse(m.Content, a.loc)
	if errors.Is(err, ErrInvalidFormat) {
		a.logger.Info("invalid reminder", "channel", m.ChannelID, "content", m.Content)
		_, err := a.poster.PostMessage(ctx, m.ChannelID, invalidFormatReply)
		return err
	}
	if err != nil {
		return err
	}

	return a.add(ctx, m.ChannelID, m.Author.ID, req)
}

func (a *App) add(ctx context.Context, channelID, userID string, req *Request) error {
	r := &storage.Reminder{
		ChannelID: channelID,
		UserID:    userID,
		RemindAt:  req.At,
		Text:      req.Reminder,
	}
	if err := a.store.Add(ctx, r); err != nil {
		return fmt.Errorf("remindme: store reminder: %w", err)
	}

	a.logger.Info("adding reminder",
		"id", r.ID, "channel", channelID, "user", userID, "reminder", r.Text, "reminder_date", r.RemindAt)

	msg := fmt.Sprintf("Okay, <@%s>, I am setting a reminder: %s for %s",
		userID, req.Reminder, req.At.Format(EnUSLayout))
	_, err := a.poster.PostMessage(ctx, channelID, msg)
	return err
}

// Deliver posts every reminder that is due and marks it delivered. A
// reminder whose post fails stays active and is retried next time.
func (a *App) Deliver(ctx context.Context) (int, error) {
	due, err := a.store.Due(ctx, a.now())
	if err != nil {
		return 0, fmt.Errorf("remindme: load due reminders: %w", err)
	}

	delivered := 0
	for _, r := range due {
		msg := fmt.Sprintf("<@%s>, you asked me to remind you: %s", r.UserID, r.Text)
		if _, err := a.poster.PostMessage(ctx, r.ChannelID, msg); err != nil {
			a.logger.Warn("failed to deliver reminder", "id", r.ID, "channel", r.ChannelID, "error", err)
			continue
		}
		if err := a.store.Deactivate(ctx, r.ID); err != nil {
			return delivered, fmt.Errorf("remindme: deactivate %s: %w", r.ID, err)
		}
		delivered++
	}

	return delivered, nil
}

// Run delivers due reminders every interval until ctx is done.
func (a *App) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if n, err := a.Deliver(ctx); err != nil {
			a.logger.Error("reminder delivery failed", "error", err)
		} else if n > 0 {
			a.logger.Info("delivered reminders", "count", n)
		}
	}
}
