package bot

import (
	"invitetrack/lib/sl"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// onReady primes the invite cache for every guild the bot is in.
func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	guildIds := make([]string, 0, len(r.Guilds))
	for _, g := range r.Guilds {
		guildIds = append(guildIds, g.ID)
	}
	b.log.With(
		slog.String("user", r.User.Username),
		slog.Int("guilds", len(guildIds)),
	).Info("logged in")

	ctx, cancel := b.eventContext()
	defer cancel()
	b.core.PrimeInvites(ctx, guildIds)
}

// onGuildCreate covers guilds joined after startup and guilds that were
// unavailable while the ready event was handled.
func (b *Bot) onGuildCreate(_ *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Guild == nil || g.Unavailable || b.core.HasSnapshot(g.ID) {
		return
	}
	ctx, cancel := b.eventContext()
	defer cancel()
	b.core.PrimeGuild(ctx, g.ID)
}

func (b *Bot) onGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	// unavailable means an outage, the bot is still a member
	if g.Guild == nil || g.Unavailable {
		return
	}
	b.log.With(sl.Guild(g.ID)).Info("removed from guild")
	b.core.ForgetGuild(g.ID)
}

func (b *Bot) onMemberAdd(_ *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.Member == nil || m.User == nil {
		return
	}
	ctx, cancel := b.eventContext()
	defer cancel()
	b.core.MemberJoined(ctx, m.GuildID, m.User.ID)
}

func (b *Bot) onMemberRemove(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.Member == nil || m.User == nil {
		return
	}
	ctx, cancel := b.eventContext()
	defer cancel()
	b.core.MemberLeft(ctx, m.GuildID, m.User.ID)
}

// onInteraction routes slash commands and button presses.
func (b *Bot) onInteraction(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("interaction panic", slog.Any("panic", r))
		}
	}()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.onCommand(i)
	case discordgo.InteractionMessageComponent:
		b.onButton(i)
	}
}
