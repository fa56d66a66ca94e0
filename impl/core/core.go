package core

import (
	"context"
	"fmt"
	"invitetrack/entity"
	"invitetrack/impl/ledger"
	"invitetrack/impl/reconcile"
	"invitetrack/impl/snapshot"
	"invitetrack/internal/metrics"
	"invitetrack/lib/sl"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// InviteSource lists live invites. SelfId is the bot's own user id; the
// platform reports it as creator of the personal links the bot hands out.
type InviteSource interface {
	reconcile.InviteSource
	SelfId() string
}

// Core ties the invite snapshot cache, the reconciler and the ledger together.
// The bot feeds it gateway events; the HTTP api reads from it.
type Core struct {
	cache    *snapshot.Cache
	rec      *reconcile.Reconciler
	selfId   func() string
	ledger   *ledger.Ledger
	inflight sync.Map // guild:member of joins being processed
	log      *slog.Logger
}

func New(store ledger.Store, log *slog.Logger) *Core {
	if store == nil {
		panic("ledger store is nil")
	}
	return &Core{
		cache:  snapshot.NewCache(),
		ledger: ledger.New(store, log),
		log:    log.With(sl.Module("core")),
	}
}

// SetInviteSource connects the platform client used to read live invites.
func (c *Core) SetInviteSource(src InviteSource) {
	c.rec = reconcile.New(src, c.cache, c.log)
	c.selfId = src.SelfId
}

func (c *Core) PrimeInvites(ctx context.Context, guildIds []string) {
	if c.rec == nil {
		c.log.Warn("invite source not connected")
		return
	}
	c.rec.Prime(ctx, guildIds)
	metrics.CachedGuilds.Set(float64(c.cache.Len()))
}

func (c *Core) PrimeGuild(ctx context.Context, guildId string) {
	if c.rec == nil {
		c.log.Warn("invite source not connected")
		return
	}
	c.rec.PrimeGuild(ctx, guildId)
	metrics.CachedGuilds.Set(float64(c.cache.Len()))
}

// HasSnapshot reports whether invites of the guild were observed already.
func (c *Core) HasSnapshot(guildId string) bool {
	return c.cache.Primed(guildId)
}

func (c *Core) ForgetGuild(guildId string) {
	c.cache.Forget(guildId)
	metrics.CachedGuilds.Set(float64(c.cache.Len()))
}

// MemberJoined attributes the join and credits the inviter. Failures are logged
// and dropped; the returned attribution is nil whenever nothing was credited.
func (c *Core) MemberJoined(ctx context.Context, guildId, memberId string) *entity.Attribution {
	log := c.log.With(
		slog.String("event", uuid.NewString()),
		sl.Guild(guildId),
		sl.User(memberId),
	)
	if c.rec == nil {
		log.Warn("invite source not connected")
		return nil
	}

	key := guildId + ":" + memberId
	if _, busy := c.inflight.LoadOrStore(key, struct{}{}); busy {
		log.Debug("duplicate join notification dropped")
		metrics.Joins.WithLabelValues(metrics.JoinDuplicate).Inc()
		return nil
	}
	defer c.inflight.Delete(key)

	att, err := c.rec.Reconcile(ctx, guildId, memberId)
	if err != nil {
		log.Warn("invite attribution", sl.Err(err))
		metrics.Joins.WithLabelValues(metrics.JoinFetchFailed).Inc()
		return nil
	}
	if att == nil {
		log.Debug("join not attributed")
		metrics.Joins.WithLabelValues(metrics.JoinUnattributed).Inc()
		return nil
	}
	owner, err := c.ledger.InviteOwner(ctx, att.Code)
	if err != nil {
		log.Error("resolving invite owner", slog.String("code", att.Code), sl.Err(err))
		metrics.Joins.WithLabelValues(metrics.JoinStoreFailed).Inc()
		return nil
	}
	if owner != nil {
		att.InviterId = owner.UserId
		att.InviterName = owner.Username
	} else if self := c.selfId(); self != "" && att.InviterId == self {
		// personal link whose owner is gone
		log.With(slog.String("code", att.Code)).Debug("bot invite without owner")
		metrics.Joins.WithLabelValues(metrics.JoinUnattributed).Inc()
		return nil
	}
	if att.InviterId == memberId {
		log.Debug("self invite ignored")
		metrics.Joins.WithLabelValues(metrics.JoinUnattributed).Inc()
		return nil
	}

	entry, err := c.ledger.Apply(ctx, att)
	if err != nil {
		log.Error("crediting invite", slog.String("inviter", att.InviterId), sl.Err(err))
		metrics.Joins.WithLabelValues(metrics.JoinStoreFailed).Inc()
		return nil
	}
	log.With(
		slog.String("code", att.Code),
		slog.String("inviter", att.InviterId),
		slog.Int("invites", entry.Invites),
	).Info("join attributed")
	metrics.Joins.WithLabelValues(metrics.JoinAttributed).Inc()
	return att
}

// MemberLeft reverses the credit the member brought to its inviter.
func (c *Core) MemberLeft(ctx context.Context, guildId, memberId string) *entity.LedgerEntry {
	log := c.log.With(
		slog.String("event", uuid.NewString()),
		sl.Guild(guildId),
		sl.User(memberId),
	)
	inviter, err := c.ledger.ReverseInviteOnLeave(ctx, memberId)
	if err != nil {
		log.Error("reversing invite", sl.Err(err))
		metrics.Leaves.WithLabelValues(metrics.LeaveFailed).Inc()
		return nil
	}
	if inviter == nil {
		metrics.Leaves.WithLabelValues(metrics.LeaveNoop).Inc()
		return nil
	}
	metrics.Leaves.WithLabelValues(metrics.LeaveReversed).Inc()
	return inviter
}

// UserStats returns the stored entry, nil when the user has none.
func (c *Core) UserStats(ctx context.Context, userId string) (*entity.LedgerEntry, error) {
	return c.ledger.Entry(ctx, userId)
}

// ReferralStats is UserStats with a zero entry in place of a missing one.
func (c *Core) ReferralStats(ctx context.Context, userId string) (*entity.LedgerEntry, error) {
	entry, err := c.ledger.Entry(ctx, userId)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		entry = entity.NewLedgerEntry(userId)
	}
	return entry, nil
}

// AssignInvite stores a bot-created invite as the member's personal link.
func (c *Core) AssignInvite(ctx context.Context, userId, code string) error {
	return c.ledger.AssignInvite(ctx, userId, code)
}

func (c *Core) Leaderboard(ctx context.Context) ([]*entity.LedgerEntry, error) {
	return c.ledger.Leaderboard(ctx)
}

func (c *Core) SetBonus(ctx context.Context, userId string, bonus float64) (*entity.LedgerEntry, error) {
	if bonus < 0 {
		return nil, fmt.Errorf("bonus must not be negative")
	}
	entry, err := c.ledger.SetBonus(ctx, userId, bonus)
	if err != nil {
		return nil, err
	}
	c.log.With(
		sl.User(userId),
		slog.Float64("bonus", bonus),
	).Info("bonus updated")
	return entry, nil
}
