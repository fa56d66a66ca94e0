// Package bot implements the Discord side of invite tracking.
//
// Architecture overview:
//   - bot.go: Bot struct, lifecycle (Start/Stop), Core interface, live invite source
//   - events.go: Gateway events: ready, guild create/delete, member add/remove
//   - commands.go: Slash commands: /leaderboard, /referral-panel, /user-stats, /set-bonus
//   - callbacks.go: Button handlers: invite_link, referrals, leaderboard_prev/next/refresh
//   - embeds.go: Embed and button row builders, footer page parsing
//   - helpers.go: Ephemeral replies with expiry, admin check, name resolution, reportError
//
// Data flow for a join:
//
//	GuildMemberAdd → Core.MemberJoined → reconcile (GuildInvites via this bot) → ledger credit
//
// discordgo dispatches every event on its own goroutine; the bot keeps no
// mutable state of its own besides the session.
package bot

import (
	"context"
	"fmt"
	"invitetrack/entity"
	"invitetrack/lib/sl"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// eventTimeout bounds platform and store calls made while handling one event.
const eventTimeout = 15 * time.Second

// BotConfig holds Discord-specific configuration loaded from the YAML config file.
type BotConfig struct {
	AppId       string
	GuildId     string // command registration scope; empty registers globally
	AdminRoleId string
	ReplyTTL    time.Duration
}

// Core defines the invite tracking operations the bot depends on.
// Implemented by impl/core.
type Core interface {
	PrimeInvites(ctx context.Context, guildIds []string)
	PrimeGuild(ctx context.Context, guildId string)
	HasSnapshot(guildId string) bool
	ForgetGuild(guildId string)
	MemberJoined(ctx context.Context, guildId, memberId string) *entity.Attribution
	MemberLeft(ctx context.Context, guildId, memberId string) *entity.LedgerEntry
	UserStats(ctx context.Context, userId string) (*entity.LedgerEntry, error)
	ReferralStats(ctx context.Context, userId string) (*entity.LedgerEntry, error)
	AssignInvite(ctx context.Context, userId, code string) error
	Leaderboard(ctx context.Context) ([]*entity.LedgerEntry, error)
	SetBonus(ctx context.Context, userId string, bonus float64) (*entity.LedgerEntry, error)
}

type Bot struct {
	log     *slog.Logger
	session *discordgo.Session
	core    Core
	config  BotConfig
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(token string, core Core, log *slog.Logger, cfg BotConfig) (*Bot, error) {
	if cfg.ReplyTTL == 0 {
		cfg.ReplyTTL = 20 * time.Second
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %v", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildInvites

	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		log:     log.With(sl.Module("discord")),
		session: session,
		core:    core,
		config:  cfg,
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start opens the gateway, registers commands and blocks until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	if b.core == nil {
		return fmt.Errorf("core not connected")
	}

	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onGuildCreate)
	b.session.AddHandler(b.onGuildDelete)
	b.session.AddHandler(b.onMemberAdd)
	b.session.AddHandler(b.onMemberRemove)
	b.session.AddHandler(b.onInteraction)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening gateway: %w", err)
	}
	if err := b.registerCommands(); err != nil {
		b.log.Error("registering commands", sl.Err(err))
	}

	<-ctx.Done()
	b.Stop()
	return nil
}

func (b *Bot) Stop() {
	b.cancel()
	b.log.Info("stopping discord bot")
	if err := b.session.Close(); err != nil {
		b.log.Warn("closing gateway", sl.Err(err))
	}
}

func (b *Bot) eventContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(b.ctx, eventTimeout)
}

// SelfId is the bot's user id once the gateway session is ready.
func (b *Bot) SelfId() string {
	state := b.session.State
	if state == nil {
		return ""
	}
	state.RLock()
	defer state.RUnlock()
	if state.User == nil {
		return ""
	}
	return state.User.ID
}

// GuildInvites lists the live invites of a guild; the bot needs Manage Guild there.
func (b *Bot) GuildInvites(ctx context.Context, guildId string) ([]entity.Invite, error) {
	invites, err := b.session.GuildInvites(guildId, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return convertInvites(invites), nil
}

// convertInvites keeps the platform enumeration order, the reconciler tie-break relies on it.
func convertInvites(invites []*discordgo.Invite) []entity.Invite {
	result := make([]entity.Invite, 0, len(invites))
	for _, inv := range invites {
		if inv == nil {
			continue
		}
		item := entity.Invite{
			Code: inv.Code,
			Uses: inv.Uses,
		}
		if inv.Inviter != nil {
			item.InviterId = inv.Inviter.ID
			item.InviterName = inv.Inviter.Username
		}
		result = append(result, item)
	}
	return result
}
