// Package cache memoizes match results in Redis. Keys fingerprint the
// content of every selected participant's day, so an edited grid can never
// be served a stale result and no explicit invalidation is needed.
package cache

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/matching"
	"github.com/md-rashed-zaman/meetmatch/services/match-service/internal/schedule"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 10 * time.Minute

// Key derives the cache key for one match query. Selection order, unknown ids,
// and unselected participants do not affect it.
func Key(prefix string, policy matching.Policy, participants []schedule.Participant, selectedIDs []string, day int, mask matching.HourSet) string {
	ids := slices.Clone(selectedIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	byID := make(map[string]schedule.Participant, len(participants))
	for _, p := range participants {
		if _, dup := byID[p.ID]; !dup {
			byID[p.ID] = p
		}
	}

	d := xxhash.New()
	var hdr [6]byte
	if policy.TentativeCountsAsFree {
		hdr[0] = 1
	}
	hdr[1] = byte(day)
	binary.BigEndian.PutUint32(hdr[2:6], uint32(mask))
	_, _ = d.Write(hdr[:])

	var statuses [schedule.SlotsPerDay]byte
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			continue
		}
		_, _ = d.WriteString(id)
		_, _ = d.Write([]byte{0})
		slots := p.Schedule.Day(day)
		for h := range statuses {
			statuses[h] = byte(slots.Status(h))
		}
		_, _ = d.Write(statuses[:])
	}
	return prefix + ":" + strconv.FormatUint(d.Sum64(), 16)
}

// MatchCache wraps an engine with a Redis read-through memo. A nil client
// disables caching; Redis failures fall back to computing.
type MatchCache struct {
	rdb    redis.Cmdable
	engine *matching.Engine
	logger *slog.Logger
	ttl    time.Duration
	prefix string
}

func New(rdb redis.Cmdable, engine *matching.Engine, logger *slog.Logger, ttl time.Duration, prefix string) *MatchCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if prefix == "" {
		prefix = "matches"
	}
	return &MatchCache{rdb: rdb, engine: engine, logger: logger, ttl: ttl, prefix: prefix}
}

func (c *MatchCache) FindMatchingHours(ctx context.Context, participants []schedule.Participant, selectedIDs []string, day int, mask matching.HourSet) []int {
	if c.rdb == nil {
		return c.engine.FindMatchingHoursWithin(participants, selectedIDs, day, mask)
	}

	key := Key(c.prefix, c.engine.Policy(), participants, selectedIDs, day, mask)
	if hours, ok := c.get(ctx, key); ok {
		return hours
	}

	hours := c.engine.FindMatchingHoursWithin(participants, selectedIDs, day, mask)
	if err := c.set(ctx, key, hours); err != nil {
		c.logger.WarnContext(ctx, "match cache write failed", "err", err, "key", key)
	}
	return hours
}

func (c *MatchCache) get(ctx context.Context, key string) ([]int, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.WarnContext(ctx, "match cache read failed", "err", err, "key", key)
		return nil, false
	}
	var hours []int
	if err := json.Unmarshal(raw, &hours); err != nil {
		c.logger.WarnContext(ctx, "match cache entry corrupt", "err", err, "key", key)
		return nil, false
	}
	if hours == nil {
		hours = []int{}
	}
	return hours, true
}

func (c *MatchCache) set(ctx context.Context, key string, hours []int) error {
	raw, err := json.Marshal(hours)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}
