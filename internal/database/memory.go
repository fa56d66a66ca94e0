package database

import (
	"context"
	"invitetrack/entity"
	"sort"
	"sync"
)

type memoryRecord struct {
	entry entity.LedgerEntry
	seq   int
}

// MemoryDB keeps the ledger in process memory. Used when mongo is disabled
// and in tests; data is lost on restart.
type MemoryDB struct {
	mu      sync.Mutex
	records map[string]*memoryRecord
	seq     int
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		records: make(map[string]*memoryRecord),
	}
}

// upsert returns the record for userId, inserting an empty one if needed.
// Caller holds the lock.
func (m *MemoryDB) upsert(userId string) *memoryRecord {
	rec, ok := m.records[userId]
	if !ok {
		m.seq++
		rec = &memoryRecord{entry: entity.LedgerEntry{UserId: userId}, seq: m.seq}
		m.records[userId] = rec
	}
	return rec
}

func (m *MemoryDB) snapshot(rec *memoryRecord) *entity.LedgerEntry {
	entry := rec.entry
	return &entry
}

func (m *MemoryDB) GetLedgerEntry(_ context.Context, userId string) (*entity.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userId]
	if !ok {
		return nil, nil
	}
	return m.snapshot(rec), nil
}

func (m *MemoryDB) IncrementInvites(_ context.Context, userId, username string) (*entity.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.upsert(userId)
	rec.entry.Invites++
	if username != "" {
		rec.entry.Username = username
	}
	rec.entry.Recompute()
	return m.snapshot(rec), nil
}

func (m *MemoryDB) DecrementInvites(_ context.Context, userId string) (*entity.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userId]
	if !ok {
		return nil, nil
	}
	if rec.entry.Invites > 0 {
		rec.entry.Invites--
	}
	rec.entry.Recompute()
	return m.snapshot(rec), nil
}

func (m *MemoryDB) SetInvitedBy(_ context.Context, userId, inviterId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.upsert(userId)
	rec.entry.InvitedBy = inviterId
	rec.entry.Recompute()
	return nil
}

func (m *MemoryDB) SetBonus(_ context.Context, userId string, bonus float64) (*entity.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.upsert(userId)
	rec.entry.Bonus = bonus
	rec.entry.Recompute()
	return m.snapshot(rec), nil
}

func (m *MemoryDB) DeleteLedgerEntry(_ context.Context, userId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, userId)
	return nil
}

func (m *MemoryDB) SetInviteCode(_ context.Context, userId, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.upsert(userId)
	rec.entry.InviteCode = code
	rec.entry.Recompute()
	return nil
}

func (m *MemoryDB) FindByInviteCode(_ context.Context, code string) (*entity.LedgerEntry, error) {
	if code == "" {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.records {
		if rec.entry.InviteCode == code {
			return m.snapshot(rec), nil
		}
	}
	return nil, nil
}

func (m *MemoryDB) TopLedgerEntries(_ context.Context, limit int) ([]*entity.LedgerEntry, error) {
	m.mu.Lock()
	records := make([]*memoryRecord, 0, len(m.records))
	for _, rec := range m.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].entry.Invites != records[j].entry.Invites {
			return records[i].entry.Invites > records[j].entry.Invites
		}
		return records[i].seq < records[j].seq
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	entries := make([]*entity.LedgerEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, m.snapshot(rec))
	}
	m.mu.Unlock()
	return entries, nil
}
