package bot

import (
	"fmt"
	"invitetrack/entity"
	"invitetrack/impl/leaderboard"

	"github.com/bwmarrin/discordgo"
)

// Button custom ids.
const (
	btnInviteLink = "invite_link"
	btnReferrals  = "referrals"
)

const (
	colorBlue  = 0x3498db
	colorGreen = 0x2ecc71
)

func referralEmbed(entry *entity.LedgerEntry) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Your Referral Stats",
		Color: colorBlue,
		Description: fmt.Sprintf("Total Valid Invites: %d\nBonus: $%.2f\n💰 Total Earnings: $%.2f",
			entry.Invites, entry.Bonus, entry.Earnings()),
	}
}

func userStatsText(name string, entry *entity.LedgerEntry) string {
	return fmt.Sprintf("Stats for %s:\n- Invites: %d\n- Bonus: $%.2f\n- Total Earnings: $%.2f",
		name, entry.Invites, entry.Bonus, entry.Earnings())
}

func panelEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "REWARD NETWORK | REFERRALS",
		Color:       colorBlue,
		Description: fmt.Sprintf("Invite people and earn $%.2f for every member who stays.\nUse the buttons below to get your personal link or check your stats.", entity.RewardPerInvite),
	}
}

func leaderboardEmbed(view leaderboard.View) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       view.Title,
		Color:       colorGreen,
		Description: view.Body,
		Footer:      &discordgo.MessageEmbedFooter{Text: view.Footer},
	}
}

func referralButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{CustomID: btnInviteLink, Label: "🎟️ Invite Link", Style: discordgo.PrimaryButton},
			discordgo.Button{CustomID: btnReferrals, Label: "📊 Referrals", Style: discordgo.SecondaryButton},
		}},
	}
}

func leaderboardButtons() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{CustomID: string(leaderboard.ActionPrev), Label: "⬅️ Previous", Style: discordgo.PrimaryButton},
			discordgo.Button{CustomID: string(leaderboard.ActionNext), Label: "➡️ Next", Style: discordgo.PrimaryButton},
			discordgo.Button{CustomID: string(leaderboard.ActionRefresh), Label: "🔄 Refresh", Style: discordgo.SecondaryButton},
		}},
	}
}

// messagePage reads the page a leaderboard message currently shows, 1 if unknown.
func messagePage(msg *discordgo.Message) int {
	if msg == nil || len(msg.Embeds) == 0 || msg.Embeds[0].Footer == nil {
		return 1
	}
	page, ok := leaderboard.ParseFooter(msg.Embeds[0].Footer.Text)
	if !ok {
		return 1
	}
	return page
}

func inviteURL(code string) string {
	return "https://discord.gg/" + code
}
