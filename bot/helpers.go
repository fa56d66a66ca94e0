package bot

import (
	"invitetrack/entity"
	"invitetrack/lib/sl"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

const genericFailure = "Something went wrong. Please try again later."

// interactionUser returns the invoking user for guild and DM interactions alike.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// isAdmin accepts the configured admin role or the Administrator permission.
func isAdmin(member *discordgo.Member, adminRoleId string) bool {
	if member == nil {
		return false
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	if adminRoleId == "" {
		return false
	}
	for _, role := range member.Roles {
		if role == adminRoleId {
			return true
		}
	}
	return false
}

func (b *Bot) requireAdmin(i *discordgo.InteractionCreate) bool {
	if isAdmin(i.Member, b.config.AdminRoleId) {
		return true
	}
	b.replyEphemeral(i, "You do not have permission to use this command.")
	return false
}

// respondEphemeral sends a reply only the invoker sees; it deletes itself after ReplyTTL when expire is set.
func (b *Bot) respondEphemeral(i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData, expire bool) {
	data.Flags |= discordgo.MessageFlagsEphemeral
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.log.With(sl.User(interactionUser(i).ID)).Warn("sending reply", sl.Err(err))
		return
	}
	if expire {
		b.expireReply(i)
	}
}

func (b *Bot) replyEphemeral(i *discordgo.InteractionCreate, text string) {
	b.respondEphemeral(i, &discordgo.InteractionResponseData{Content: text}, false)
}

// expireReply schedules deletion of the interaction reply, independent of later state.
func (b *Bot) expireReply(i *discordgo.InteractionCreate) {
	time.AfterFunc(b.config.ReplyTTL, func() {
		_ = b.session.InteractionResponseDelete(i.Interaction)
	})
}

// reportError logs the error and sends a neutral message to the user.
// Error records reach operators through the Telegram log handler.
func (b *Bot) reportError(i *discordgo.InteractionCreate, command string, err error) {
	b.log.Error("bot command failed",
		slog.String("command", command),
		sl.User(interactionUser(i).ID),
		sl.Guild(i.GuildID),
		sl.Err(err),
	)
	b.replyEphemeral(i, genericFailure)
}

// resolveName prefers the live guild member, then the stored name, then a mention.
func (b *Bot) resolveName(guildId string) func(entry *entity.LedgerEntry) string {
	return func(entry *entity.LedgerEntry) string {
		if guildId != "" && b.session.State != nil {
			if m, err := b.session.State.Member(guildId, entry.UserId); err == nil && m.User != nil {
				return memberName(m)
			}
		}
		if entry.Username != "" {
			return entry.Username
		}
		return "<@" + entry.UserId + ">"
	}
}

func memberName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User != nil {
		if m.User.GlobalName != "" {
			return m.User.GlobalName
		}
		return m.User.Username
	}
	return ""
}
