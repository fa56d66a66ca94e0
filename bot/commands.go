package bot

import (
	"fmt"
	"invitetrack/impl/leaderboard"
	"invitetrack/internal/metrics"
	"invitetrack/lib/sl"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

const (
	cmdLeaderboard   = "leaderboard"
	cmdReferralPanel = "referral-panel"
	cmdUserStats     = "user-stats"
	cmdSetBonus      = "set-bonus"
)

var manageGuild int64 = discordgo.PermissionManageGuild

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        cmdLeaderboard,
		Description: "Post the invite leaderboard",
	},
	{
		Name:                     cmdReferralPanel,
		Description:              "Post the referral panel with invite link and stats buttons",
		DefaultMemberPermissions: &manageGuild,
	},
	{
		Name:                     cmdUserStats,
		Description:              "Show user stats",
		DefaultMemberPermissions: &manageGuild,
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "target", Description: "Target user", Required: true},
		},
	},
	{
		Name:                     cmdSetBonus,
		Description:              "Set the bonus of a user",
		DefaultMemberPermissions: &manageGuild,
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionUser, Name: "target", Description: "Target user", Required: true},
			{Type: discordgo.ApplicationCommandOptionNumber, Name: "amount", Description: "Bonus in dollars", Required: true},
		},
	},
}

func (b *Bot) registerCommands() error {
	appId := b.config.AppId
	if appId == "" && b.session.State != nil && b.session.State.User != nil {
		appId = b.session.State.User.ID
	}
	registered, err := b.session.ApplicationCommandBulkOverwrite(appId, b.config.GuildId, commands)
	if err != nil {
		return fmt.Errorf("bulk overwrite: %w", err)
	}
	b.log.With(
		slog.Int("count", len(registered)),
		slog.String("scope", b.config.GuildId),
	).Info("commands registered")
	return nil
}

func (b *Bot) onCommand(i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	metrics.Interactions.WithLabelValues(data.Name).Inc()

	switch data.Name {
	case cmdLeaderboard:
		b.leaderboardCmd(i)
	case cmdReferralPanel:
		b.referralPanelCmd(i)
	case cmdUserStats:
		b.userStatsCmd(i)
	case cmdSetBonus:
		b.setBonusCmd(i)
	default:
		b.log.With(slog.String("command", data.Name)).Warn("unknown command")
	}
}

// leaderboardCmd posts page one publicly; the buttons page it in place.
func (b *Bot) leaderboardCmd(i *discordgo.InteractionCreate) {
	ctx, cancel := b.eventContext()
	defer cancel()

	entries, err := b.core.Leaderboard(ctx)
	if err != nil {
		b.reportError(i, "/"+cmdLeaderboard, err)
		return
	}
	view := leaderboard.Render(entries, 1, b.resolveName(i.GuildID))
	err = b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{leaderboardEmbed(view)},
			Components: leaderboardButtons(),
		},
	})
	if err != nil {
		b.log.With(sl.Guild(i.GuildID)).Warn("posting leaderboard", sl.Err(err))
	}
}

func (b *Bot) referralPanelCmd(i *discordgo.InteractionCreate) {
	if !b.requireAdmin(i) {
		return
	}
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{panelEmbed()},
			Components: referralButtons(),
		},
	})
	if err != nil {
		b.log.With(sl.Guild(i.GuildID)).Warn("posting referral panel", sl.Err(err))
	}
}

func (b *Bot) userStatsCmd(i *discordgo.InteractionCreate) {
	if !b.requireAdmin(i) {
		return
	}
	target := b.targetUser(i)
	if target == nil {
		b.replyEphemeral(i, "Target user is required.")
		return
	}

	ctx, cancel := b.eventContext()
	defer cancel()
	entry, err := b.core.ReferralStats(ctx, target.ID)
	if err != nil {
		b.reportError(i, "/"+cmdUserStats, err)
		return
	}
	b.replyEphemeral(i, userStatsText(target.Username, entry))
}

func (b *Bot) setBonusCmd(i *discordgo.InteractionCreate) {
	if !b.requireAdmin(i) {
		return
	}
	target := b.targetUser(i)
	amount, ok := b.numberOption(i, "amount")
	if target == nil || !ok {
		b.replyEphemeral(i, "Target user and amount are required.")
		return
	}
	if amount < 0 {
		b.replyEphemeral(i, "Bonus must not be negative.")
		return
	}

	ctx, cancel := b.eventContext()
	defer cancel()
	entry, err := b.core.SetBonus(ctx, target.ID, amount)
	if err != nil {
		b.reportError(i, "/"+cmdSetBonus, err)
		return
	}
	b.log.With(
		sl.User(target.ID),
		slog.String("admin", interactionUser(i).ID),
		slog.Float64("bonus", amount),
	).Info("bonus set by admin")
	b.replyEphemeral(i, userStatsText(target.Username, entry))
}

func (b *Bot) targetUser(i *discordgo.InteractionCreate) *discordgo.User {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "target" && opt.Type == discordgo.ApplicationCommandOptionUser {
			return opt.UserValue(b.session)
		}
	}
	return nil
}

func (b *Bot) numberOption(i *discordgo.InteractionCreate, name string) (float64, bool) {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionNumber {
			return opt.FloatValue(), true
		}
	}
	return 0, false
}
