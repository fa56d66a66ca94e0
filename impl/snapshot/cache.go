// Package snapshot keeps the last observed invite use counters per guild.
//
// The cache lives for the whole process and is rebuilt from scratch on restart.
// Get followed by Replace is not atomic; a racing join may read a snapshot that
// another join is about to replace, which only degrades attribution accuracy.
package snapshot

import (
	"invitetrack/entity"
	"sync"
)

type Cache struct {
	mu     sync.RWMutex
	guilds map[string]entity.InviteUsage
}

func NewCache() *Cache {
	return &Cache{
		guilds: make(map[string]entity.InviteUsage),
	}
}

// Get returns a copy of the guild snapshot, empty if the guild was never primed.
func (c *Cache) Get(guildId string) entity.InviteUsage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stored := c.guilds[guildId]
	usage := make(entity.InviteUsage, len(stored))
	for code, uses := range stored {
		usage[code] = uses
	}
	return usage
}

// Replace overwrites the guild snapshot entirely.
func (c *Cache) Replace(guildId string, usage entity.InviteUsage) {
	stored := make(entity.InviteUsage, len(usage))
	for code, uses := range usage {
		stored[code] = uses
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guilds[guildId] = stored
}

// Forget drops the guild, used when the bot is removed from it.
func (c *Cache) Forget(guildId string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.guilds, guildId)
}

// Primed reports whether the guild has a snapshot at all.
func (c *Cache) Primed(guildId string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.guilds[guildId]
	return ok
}

// Len returns the number of guilds held.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.guilds)
}
