package bot

import (
	"context"
	"fmt"

	"pujaboard/internal/model"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to Pujaboard!

Discover upcoming pujas and homas, and get a daily digest of
tomorrow's events.

Quick start:
1. /tomorrow — tomorrow's pujas
2. /week — this week's pujas
3. /subscribe — daily digest of tomorrow's events

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Events:
/tomorrow — tomorrow's pujas and homas
/week — this week's pujas and homas
/upcoming — everything coming later
/search <text> — search by seva, venue, activity, or category

Digest:
/subscribe — receive tomorrow's events every day
/unsubscribe — stop receiving the digest`)
}

func (b *Bot) handleTomorrow(chatID int64) {
	snap := b.source.Snapshot()
	if snap.Err != "" {
		b.reply(chatID, snap.Err)
		return
	}
	b.reply(chatID, FormatEventList("Tomorrow's Puja/Homa", snap.Result.Tomorrow))
}

func (b *Bot) handleWeek(chatID int64) {
	snap := b.source.Snapshot()
	if snap.Err != "" {
		b.reply(chatID, snap.Err)
		return
	}
	b.reply(chatID, FormatEventList("This Week's Pujas/Homas", snap.Result.ThisWeek))
}

func (b *Bot) handleUpcoming(chatID int64) {
	snap := b.source.Snapshot()
	if snap.Err != "" {
		b.reply(chatID, snap.Err)
		return
	}
	b.reply(chatID, FormatEventList("Next Pujas/Homas", snap.Result.Later))
}

func (b *Bot) handleSearch(chatID int64, query string) {
	if query == "" {
		b.reply(chatID, "Usage: /search <text>")
		return
	}

	snap := b.source.Snapshot()
	var matched []model.EnrichedEvent
	for i := range snap.Result.All {
		if snap.Result.All[i].Matches(query) {
			matched = append(matched, snap.Result.All[i])
		}
	}

	if len(matched) == 0 {
		b.reply(chatID, fmt.Sprintf("No events found matching %q.", query))
		return
	}
	b.reply(chatID, FormatEventList("Search Results", matched))
}

func (b *Bot) handleSubscribe(ctx context.Context, chatID int64) {
	if err := b.store.Subscribe(ctx, chatID); err != nil {
		b.log.Error("subscribe", "chat_id", chatID, "error", err)
		b.reply(chatID, "Failed to subscribe, please try again.")
		return
	}
	b.reply(chatID, "Subscribed! You will receive tomorrow's events every day.")
}

func (b *Bot) handleUnsubscribe(ctx context.Context, chatID int64) {
	if err := b.store.Unsubscribe(ctx, chatID); err != nil {
		b.log.Error("unsubscribe", "chat_id", chatID, "error", err)
		b.reply(chatID, "Failed to unsubscribe, please try again.")
		return
	}
	b.reply(chatID, "Unsubscribed. Use /subscribe to start receiving the digest again.")
}

// SendDigest delivers tomorrow's events to every subscriber, skipping
// events a chat has already been told about.
func (b *Bot) SendDigest(ctx context.Context) {
	snap := b.source.Snapshot()
	if snap.Err != "" || len(snap.Result.Tomorrow) == 0 {
		return
	}

	chats, err := b.store.ListSubscribers(ctx)
	if err != nil {
		b.log.Error("list subscribers", "error", err)
		return
	}

	for _, chatID := range chats {
		if ctx.Err() != nil {
			return
		}

		var fresh []model.EnrichedEvent
		for _, ev := range snap.Result.Tomorrow {
			announced, err := b.store.IsAnnounced(ctx, chatID, ev.ID)
			if err != nil {
				b.log.Error("check announced", "chat_id", chatID, "event", ev.ID, "error", err)
				continue
			}
			if !announced {
				fresh = append(fresh, ev)
			}
		}
		if len(fresh) == 0 {
			continue
		}

		b.SendMessage(chatID, FormatEventList("Tomorrow's Puja/Homa", fresh))
		for _, ev := range fresh {
			if err := b.store.MarkAnnounced(ctx, chatID, ev.ID); err != nil {
				b.log.Error("mark announced", "chat_id", chatID, "event", ev.ID, "error", err)
			}
		}
	}
}
