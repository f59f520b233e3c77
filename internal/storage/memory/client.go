package memory

import (
	"context"
	"sync"
	"time"

	"vio-chat-service/internal/models"
)

type cachedUser struct {
	val models.UserSummary
	exp time.Time
}

type Client struct {
	mu     sync.RWMutex
	unread map[string]map[string]int
	seeded map[string]bool
	users  map[string]cachedUser
	ttl    time.Duration
	now    func() time.Time
}

func New(ttl time.Duration) *Client {
	return &Client{
		unread: make(map[string]map[string]int),
		seeded: make(map[string]bool),
		users:  make(map[string]cachedUser),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *Client) Close() error { return nil }

func (c *Client) Incr(ctx context.Context, viewer, counterparty string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewerLocked(viewer)[counterparty]++
	return nil
}

func (c *Client) Decr(ctx context.Context, viewer, counterparty string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := c.viewerLocked(viewer)
	if counts[counterparty] > 0 {
		counts[counterparty]--
	} else {
		counts[counterparty] = 0
	}
	return nil
}

func (c *Client) Reset(ctx context.Context, viewer, counterparty string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewerLocked(viewer)[counterparty] = 0
	return nil
}

func (c *Client) Counts(ctx context.Context, viewer string) (map[string]int, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int, len(c.unread[viewer]))
	for k, v := range c.unread[viewer] {
		out[k] = v
	}
	return out, c.seeded[viewer], nil
}

func (c *Client) Replace(ctx context.Context, viewer string, counts map[string]int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	fresh := make(map[string]int, len(counts))
	for k, v := range counts {
		fresh[k] = v
	}
	c.unread[viewer] = fresh
	c.seeded[viewer] = true
	return nil
}

func (c *Client) GetUser(ctx context.Context, uid string) (models.UserSummary, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.users[uid]
	if !ok || c.now().After(v.exp) {
		return models.UserSummary{}, false, nil
	}
	return v.val, true, nil
}

func (c *Client) PutUsers(ctx context.Context, users ...models.UserSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := c.now().Add(c.ttl)
	for _, u := range users {
		c.users[u.UID] = cachedUser{val: u, exp: exp}
	}
	return nil
}

func (c *Client) InvalidateUser(ctx context.Context, uid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.users, uid)
	return nil
}

func (c *Client) viewerLocked(viewer string) map[string]int {
	counts, ok := c.unread[viewer]
	if !ok {
		counts = make(map[string]int)
		c.unread[viewer] = counts
	}
	return counts
}
