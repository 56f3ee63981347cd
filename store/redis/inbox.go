// Package redis keeps the recent-unlock inbox in Redis so it survives
// restarts and is shared by every server process.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/warp/shift-earnings/achievements"
)

const defaultPrefix = "shift-earnings:achievements:recent"

// Inbox implements achievements.Inbox with a list for order and a hash for
// the records. Both keys expire together after TTL without a push.
type Inbox struct {
	client redis.Cmdable
	order  string
	items  string
	ttl    time.Duration
}

// NewClient connects and pings, failing fast when Redis is unreachable.
func NewClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewInbox stores under prefix (default "shift-earnings:achievements:recent").
// A zero ttl keeps entries until acknowledged.
func NewInbox(client redis.Cmdable, prefix string, ttl time.Duration) *Inbox {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Inbox{
		client: client,
		order:  prefix + ":order",
		items:  prefix + ":items",
		ttl:    ttl,
	}
}

func (b *Inbox) Push(ctx context.Context, unlocked []achievements.Achievement) error {
	if len(unlocked) == 0 {
		return nil
	}
	for _, a := range unlocked {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode achievement %s: %w", a.Key, err)
		}
		added, err := b.client.HSetNX(ctx, b.items, string(a.ID), data).Result()
		if err != nil {
			return fmt.Errorf("store recent %s: %w", a.Key, err)
		}
		if !added {
			continue
		}
		if err := b.client.RPush(ctx, b.order, string(a.ID)).Err(); err != nil {
			return fmt.Errorf("queue recent %s: %w", a.Key, err)
		}
	}
	if b.ttl > 0 {
		_, err := b.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Expire(ctx, b.order, b.ttl)
			p.Expire(ctx, b.items, b.ttl)
			return nil
		})
		if err != nil {
			return fmt.Errorf("expire recent: %w", err)
		}
	}
	return nil
}

func (b *Inbox) Recent(ctx context.Context) ([]achievements.Achievement, error) {
	ids, err := b.client.LRange(ctx, b.order, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	values, err := b.client.HMGet(ctx, b.items, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("load recent: %w", err)
	}

	out := make([]achievements.Achievement, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Hash entry gone (expired or acked elsewhere).
			continue
		}
		var a achievements.Achievement
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, fmt.Errorf("decode recent %s: %w", ids[i], err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (b *Inbox) Ack(ctx context.Context, ids []achievements.ID) error {
	_, err := b.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if len(ids) == 0 {
			p.Del(ctx, b.order, b.items)
			return nil
		}
		for _, id := range ids {
			p.LRem(ctx, b.order, 0, string(id))
			p.HDel(ctx, b.items, string(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("ack recent: %w", err)
	}
	return nil
}

var _ achievements.Inbox = (*Inbox)(nil)
