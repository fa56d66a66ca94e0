// Package reconcile infers which invite link a new member used.
//
// The platform only exposes aggregate use counters per invite, so a join is
// attributed by diffing the live counters against the cached snapshot. When
// more than one counter increased since the last observation (two joins raced
// between refreshes, or the cache was cold) the first increased code in the
// platform's enumeration order wins. This is a best-effort heuristic.
package reconcile

import (
	"context"
	"fmt"
	"invitetrack/entity"
	"invitetrack/impl/snapshot"
	"invitetrack/lib/sl"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// primeConcurrency bounds parallel invite fetches at startup.
const primeConcurrency = 4

// InviteSource fetches the live invite list of a guild.
type InviteSource interface {
	GuildInvites(ctx context.Context, guildId string) ([]entity.Invite, error)
}

type Reconciler struct {
	source InviteSource
	cache  *snapshot.Cache
	log    *slog.Logger
}

func New(source InviteSource, cache *snapshot.Cache, log *slog.Logger) *Reconciler {
	return &Reconciler{
		source: source,
		cache:  cache,
		log:    log.With(sl.Module("reconcile")),
	}
}

// Prime fetches live invites for every guild and stores the snapshots.
// A failed guild is logged and left empty.
func (r *Reconciler) Prime(ctx context.Context, guildIds []string) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(primeConcurrency)
	for _, guildId := range guildIds {
		g.Go(func() error {
			r.PrimeGuild(ctx, guildId)
			return nil
		})
	}
	_ = g.Wait()
	r.log.With(
		slog.Int("requested", len(guildIds)),
		slog.Int("cached", r.cache.Len()),
	).Info("invite cache primed")
}

// PrimeGuild refreshes a single guild snapshot; errors are logged and swallowed.
func (r *Reconciler) PrimeGuild(ctx context.Context, guildId string) {
	invites, err := r.source.GuildInvites(ctx, guildId)
	if err != nil {
		r.log.With(sl.Guild(guildId)).Warn("priming invite cache", sl.Err(err))
		return
	}
	r.cache.Replace(guildId, entity.UsageOf(invites))
	r.log.With(
		sl.Guild(guildId),
		slog.Int("invites", len(invites)),
	).Debug("guild invites cached")
}

// Reconcile attributes a join. It returns nil without error when no invite
// can be credited; an error means the live fetch failed and the cache was left as is.
// A guild that was never primed is resynchronized without crediting anyone,
// since every counter would look increased against a missing snapshot.
func (r *Reconciler) Reconcile(ctx context.Context, guildId, memberId string) (*entity.Attribution, error) {
	primed := r.cache.Primed(guildId)
	cached := r.cache.Get(guildId)

	live, err := r.source.GuildInvites(ctx, guildId)
	if err != nil {
		return nil, fmt.Errorf("fetching guild invites: %w", err)
	}

	used := FindUsed(cached, live)
	r.cache.Replace(guildId, entity.UsageOf(live))

	if !primed {
		r.log.With(sl.Guild(guildId)).Debug("cold invite cache, join not attributed")
		return nil, nil
	}
	if used == nil {
		return nil, nil
	}
	if used.InviterId == "" {
		r.log.With(
			sl.Guild(guildId),
			slog.String("code", used.Code),
		).Debug("used invite has no inviter")
		return nil, nil
	}
	return &entity.Attribution{
		GuildId:     guildId,
		MemberId:    memberId,
		Code:        used.Code,
		InviterId:   used.InviterId,
		InviterName: used.InviterName,
	}, nil
}

// FindUsed returns the first live invite whose counter exceeds the cached one.
// A code missing from the cache counts as zero prior uses.
func FindUsed(cached entity.InviteUsage, live []entity.Invite) *entity.Invite {
	for i := range live {
		if live[i].Uses > cached[live[i].Code] {
			return &live[i]
		}
	}
	return nil
}
