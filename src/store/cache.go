package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"standup/src/models"

	"github.com/redis/go-redis/v9"
)

// CachedStore serves GetTeam and GetUser from redis. Reads inside a
// transaction always go to the inner store, and keys written inside a
// transaction are evicted only after it commits.
//
// Every eviction bumps a generation counter next to the key. A miss fills the
// cache under WATCH on that counter, so a read that raced a commit is not
// cached.
type CachedStore struct {
	Store
	rdb   *redis.Client
	ttl   time.Duration
	dirty *[]string
}

func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{Store: inner, rdb: rdb, ttl: ttl}
}

type cachedTeam struct {
	Team    *models.Team `json:"team"`
	Version int          `json:"version"`
}

func teamKey(id string) string {
	return fmt.Sprintf("team:%s", id)
}

func userKey(email string) string {
	return fmt.Sprintf("user:%s", email)
}

const generationTTL = 24 * time.Hour

func generationKey(key string) string {
	return key + ":gen"
}

func (c *CachedStore) load(ctx context.Context, key string, dest any) bool {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		log.Printf("[redis] Error retrieving %s: %s\n", key, err.Error())
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		log.Printf("[redis] Discarding unreadable value for %s: %s\n", key, err.Error())
		return false
	}
	return true
}

// fill runs read on a miss and caches its result unless the key was evicted
// while read was running. When redis is unreachable read still runs.
func (c *CachedStore) fill(ctx context.Context, key string, read func() (any, error)) error {
	var (
		value   any
		readErr error
		ran     bool
	)
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		ran = true
		value, readErr = read()
		if readErr != nil {
			return readErr
		}
		b, err := json.Marshal(value)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, c.ttl)
			return nil
		})
		return err
	}, generationKey(key))
	if !ran {
		log.Printf("[redis] Error watching %s: %v\n", key, err)
		_, readErr = read()
		return readErr
	}
	if readErr != nil {
		return readErr
	}
	switch {
	case errors.Is(err, redis.TxFailedErr):
		log.Printf("[redis] %s changed while loading, not caching\n", key)
	case err != nil:
		log.Printf("[redis] Failed to set value for key %s: %s\n", key, err.Error())
	}
	return nil
}

func (c *CachedStore) evict(ctx context.Context, keys ...string) {
	if c.dirty != nil {
		*c.dirty = append(*c.dirty, keys...)
		return
	}
	if len(keys) == 0 {
		return
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, generationKey(key))
			pipe.Expire(ctx, generationKey(key), generationTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		log.Printf("[redis] Failed to evict %v: %s\n", keys, err.Error())
	}
}

func (c *CachedStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if c.dirty != nil {
		return fn(c)
	}
	var dirty []string
	err := c.Store.Transaction(ctx, func(tx Store) error {
		return fn(&CachedStore{Store: tx, rdb: c.rdb, ttl: c.ttl, dirty: &dirty})
	})
	if err != nil {
		return err
	}
	c.evict(ctx, dirty...)
	return nil
}

func (c *CachedStore) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	if c.dirty != nil {
		return c.Store.GetTeam(ctx, id)
	}
	var cached cachedTeam
	if c.load(ctx, teamKey(id), &cached) && cached.Team != nil {
		cached.Team.Version = cached.Version
		cached.Team.Normalize()
		return cached.Team, nil
	}
	var team *models.Team
	err := c.fill(ctx, teamKey(id), func() (any, error) {
		t, err := c.Store.GetTeam(ctx, id)
		if err != nil {
			return nil, err
		}
		team = t
		return cachedTeam{Team: t, Version: t.Version}, nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (c *CachedStore) UpdateTeam(ctx context.Context, team *models.Team) error {
	if err := c.Store.UpdateTeam(ctx, team); err != nil {
		return err
	}
	c.evict(ctx, teamKey(team.ID))
	return nil
}

func (c *CachedStore) DeleteTeam(ctx context.Context, id string) error {
	if err := c.Store.DeleteTeam(ctx, id); err != nil {
		return err
	}
	c.evict(ctx, teamKey(id))
	return nil
}

func (c *CachedStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	if c.dirty != nil {
		return c.Store.GetUser(ctx, email)
	}
	var user models.User
	if c.load(ctx, userKey(email), &user) {
		return &user, nil
	}
	var u *models.User
	err := c.fill(ctx, userKey(email), func() (any, error) {
		found, err := c.Store.GetUser(ctx, email)
		if err != nil {
			return nil, err
		}
		u = found
		return found, nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (c *CachedStore) UpdateUser(ctx context.Context, user *models.User) error {
	if err := c.Store.UpdateUser(ctx, user); err != nil {
		return err
	}
	c.evict(ctx, userKey(user.Email))
	return nil
}
