package bot

import (
	"context"
	"fmt"
	"invitetrack/entity"
	"invitetrack/impl/leaderboard"
	"invitetrack/internal/metrics"
	"invitetrack/lib/sl"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// onButton routes button presses by custom id.
func (b *Bot) onButton(i *discordgo.InteractionCreate) {
	customId := i.MessageComponentData().CustomID
	metrics.Interactions.WithLabelValues(customId).Inc()

	if action, ok := leaderboard.ParseAction(customId); ok {
		b.onLeaderboardButton(i, action)
		return
	}
	switch customId {
	case btnInviteLink:
		b.onInviteLinkButton(i)
	case btnReferrals:
		b.onReferralsButton(i)
	default:
		b.log.With(slog.String("custom_id", customId)).Debug("unknown button")
	}
}

// onInviteLinkButton hands out the member's existing invite or creates a permanent unique one.
func (b *Bot) onInviteLinkButton(i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	if i.GuildID == "" || user == nil {
		b.replyEphemeral(i, "Invite links are only available inside a server.")
		return
	}

	ctx, cancel := b.eventContext()
	defer cancel()

	code, err := b.memberInvite(ctx, i.GuildID, i.ChannelID, user.ID)
	if err != nil {
		b.log.With(
			sl.Guild(i.GuildID),
			sl.User(user.ID),
		).Warn("getting invite link", sl.Err(err))
		b.replyEphemeral(i, "Failed to get invite link. Please try again later.")
		return
	}
	b.respondEphemeral(i, &discordgo.InteractionResponseData{
		Content: fmt.Sprintf("Your unique invite link:\n%s", inviteURL(code)),
	}, true)
}

// memberInvite prefers the personal link stored for the member while it is still live,
// then any invite the member created, and creates a new personal link otherwise.
func (b *Bot) memberInvite(ctx context.Context, guildId, channelId, userId string) (string, error) {
	invites, err := b.GuildInvites(ctx, guildId)
	if err != nil {
		return "", fmt.Errorf("listing invites: %w", err)
	}
	entry, err := b.core.ReferralStats(ctx, userId)
	if err != nil {
		return "", fmt.Errorf("reading entry: %w", err)
	}
	if code := pickInvite(invites, entry.InviteCode, userId); code != "" {
		return code, nil
	}
	created, err := b.session.ChannelInviteCreate(channelId, discordgo.Invite{
		MaxAge:  0,
		MaxUses: 0,
		Unique:  true,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("creating invite: %w", err)
	}
	if err = b.core.AssignInvite(ctx, userId, created.Code); err != nil {
		return "", fmt.Errorf("assigning invite: %w", err)
	}
	b.log.With(
		sl.Guild(guildId),
		sl.User(userId),
		slog.String("code", created.Code),
	).Info("invite created")
	return created.Code, nil
}

func pickInvite(invites []entity.Invite, stored, userId string) string {
	own := ""
	for _, inv := range invites {
		if stored != "" && inv.Code == stored {
			return inv.Code
		}
		if own == "" && inv.InviterId == userId {
			own = inv.Code
		}
	}
	return own
}

func (b *Bot) onReferralsButton(i *discordgo.InteractionCreate) {
	user := interactionUser(i)
	ctx, cancel := b.eventContext()
	defer cancel()

	entry, err := b.core.ReferralStats(ctx, user.ID)
	if err != nil {
		b.reportError(i, btnReferrals, err)
		return
	}
	b.respondEphemeral(i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{referralEmbed(entry)},
	}, true)
}

// onLeaderboardButton re-renders the shared leaderboard message at the next page.
// The current page is read back from the message footer.
func (b *Bot) onLeaderboardButton(i *discordgo.InteractionCreate, action leaderboard.Action) {
	ctx, cancel := b.eventContext()
	defer cancel()

	entries, err := b.core.Leaderboard(ctx)
	if err != nil {
		b.reportError(i, string(action), err)
		return
	}
	total := leaderboard.TotalPages(len(entries))
	page := leaderboard.Transition(action, messagePage(i.Message), total)
	view := leaderboard.Render(entries, page, b.resolveName(i.GuildID))

	embeds := []*discordgo.MessageEmbed{leaderboardEmbed(view)}
	err = b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     embeds,
			Components: leaderboardButtons(),
		},
	})
	if err != nil {
		b.log.With(sl.Guild(i.GuildID)).Warn("updating leaderboard", sl.Err(err))
		return
	}
	if i.Message != nil && view.Page != 1 {
		b.scheduleLeaderboardReset(i.GuildID, i.ChannelID, i.Message.ID)
	}
}

// scheduleLeaderboardReset puts the shared message back on page one after ReplyTTL,
// unless someone already returned it there.
func (b *Bot) scheduleLeaderboardReset(guildId, channelId, messageId string) {
	time.AfterFunc(b.config.ReplyTTL, func() {
		ctx, cancel := b.eventContext()
		defer cancel()

		msg, err := b.session.ChannelMessage(channelId, messageId, discordgo.WithContext(ctx))
		if err != nil || messagePage(msg) == 1 {
			return
		}
		entries, err := b.core.Leaderboard(ctx)
		if err != nil {
			b.log.With(sl.Guild(guildId)).Warn("leaderboard reset", sl.Err(err))
			return
		}
		embeds := []*discordgo.MessageEmbed{leaderboardEmbed(leaderboard.Render(entries, 1, b.resolveName(guildId)))}
		components := leaderboardButtons()
		_, err = b.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
			ID:         messageId,
			Channel:    channelId,
			Embeds:     &embeds,
			Components: &components,
		}, discordgo.WithContext(ctx))
		if err != nil {
			b.log.With(sl.Guild(guildId)).Debug("leaderboard reset edit", sl.Err(err))
		}
	})
}
