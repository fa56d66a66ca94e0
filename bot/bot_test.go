package bot

import (
	"invitetrack/entity"
	"invitetrack/impl/leaderboard"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestConvertInvites(t *testing.T) {
	got := convertInvites([]*discordgo.Invite{
		{Code: "b", Uses: 3, Inviter: &discordgo.User{ID: "1", Username: "one"}},
		nil,
		{Code: "a", Uses: 1},
	})
	if len(got) != 2 {
		t.Fatalf("convertInvites() len = %d, want 2", len(got))
	}
	if got[0].Code != "b" || got[0].InviterId != "1" || got[0].InviterName != "one" || got[0].Uses != 3 {
		t.Errorf("convertInvites()[0] = %+v", got[0])
	}
	if got[1].Code != "a" || got[1].InviterId != "" {
		t.Errorf("convertInvites()[1] = %+v", got[1])
	}
}

func TestMessagePage(t *testing.T) {
	tests := []struct {
		name string
		msg  *discordgo.Message
		want int
	}{
		{name: "nil message", msg: nil, want: 1},
		{name: "no embeds", msg: &discordgo.Message{}, want: 1},
		{name: "no footer", msg: &discordgo.Message{Embeds: []*discordgo.MessageEmbed{{}}}, want: 1},
		{
			name: "footer",
			msg: &discordgo.Message{Embeds: []*discordgo.MessageEmbed{{
				Footer: &discordgo.MessageEmbedFooter{Text: leaderboard.Footer(3, 5)},
			}}},
			want: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := messagePage(tt.msg); got != tt.want {
				t.Errorf("messagePage() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		name   string
		member *discordgo.Member
		role   string
		want   bool
	}{
		{name: "nil member", member: nil, want: false},
		{name: "administrator", member: &discordgo.Member{Permissions: discordgo.PermissionAdministrator}, want: true},
		{name: "plain member", member: &discordgo.Member{Roles: []string{"r1"}}, role: "r2", want: false},
		{name: "admin role", member: &discordgo.Member{Roles: []string{"r1", "r2"}}, role: "r2", want: true},
		{name: "empty role id", member: &discordgo.Member{Roles: []string{""}}, role: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAdmin(tt.member, tt.role); got != tt.want {
				t.Errorf("isAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMemberName(t *testing.T) {
	user := &discordgo.User{Username: "user", GlobalName: "Global"}
	if got := memberName(&discordgo.Member{Nick: "nick", User: user}); got != "nick" {
		t.Errorf("memberName() = %q, want nick", got)
	}
	if got := memberName(&discordgo.Member{User: user}); got != "Global" {
		t.Errorf("memberName() = %q, want Global", got)
	}
	if got := memberName(&discordgo.Member{User: &discordgo.User{Username: "user"}}); got != "user" {
		t.Errorf("memberName() = %q, want user", got)
	}
}

func TestPickInvite(t *testing.T) {
	invites := []entity.Invite{
		{Code: "x", InviterId: "bot"},
		{Code: "mine", InviterId: "u"},
		{Code: "stored", InviterId: "bot"},
	}
	if got := pickInvite(invites, "stored", "u"); got != "stored" {
		t.Errorf("pickInvite() = %q, want stored", got)
	}
	if got := pickInvite(invites, "gone", "u"); got != "mine" {
		t.Errorf("pickInvite() = %q, want mine", got)
	}
	if got := pickInvite(invites, "", "other"); got != "" {
		t.Errorf("pickInvite() = %q, want empty", got)
	}
}

func TestLeaderboardEmbed(t *testing.T) {
	entries := []*entity.LedgerEntry{{UserId: "1", Username: "one", Invites: 2, TotalEarnings: 1}}
	view := leaderboard.Render(entries, 1, func(e *entity.LedgerEntry) string { return e.Username })
	embed := leaderboardEmbed(view)
	if embed.Title != leaderboard.Title {
		t.Errorf("Title = %q", embed.Title)
	}
	if embed.Footer == nil || embed.Footer.Text != "Page: 1 / 1" {
		t.Errorf("Footer = %+v", embed.Footer)
	}
}
