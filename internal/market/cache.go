package market

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/models"
)

// Source is anything that can produce quotes and search results.
type Source interface {
	GetQuote(ctx context.Context, symbol, market string) (models.Quote, error)
	Search(ctx context.Context, query, market string, limit int) ([]models.SearchResult, error)
}

type entry struct {
	expiresAt time.Time
	quote     models.Quote
}

// Cached keeps successful quotes for TTL, keyed by market and symbol. Errors
// are never cached. A zero TTL passes every call straight through.
type Cached struct {
	P        Source
	TTL      time.Duration
	MaxItems int

	mu    sync.RWMutex
	items map[string]entry
}

func (c *Cached) GetQuote(ctx context.Context, symbol, market string) (models.Quote, error) {
	if c.TTL <= 0 {
		return c.P.GetQuote(ctx, symbol, market)
	}

	key := strings.ToUpper(strings.TrimSpace(market)) + ":" + strings.ToUpper(strings.TrimSpace(symbol))
	now := time.Now()

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if ok && now.Before(e.expiresAt) {
		return e.quote, nil
	}

	q, err := c.P.GetQuote(ctx, symbol, market)
	if err != nil {
		return models.Quote{}, err
	}

	c.mu.Lock()
	if c.items == nil {
		c.items = make(map[string]entry)
	}
	c.items[key] = entry{expiresAt: now.Add(c.TTL), quote: q}
	if c.MaxItems > 0 && len(c.items) > c.MaxItems {
		for k, v := range c.items {
			if now.After(v.expiresAt) {
				delete(c.items, k)
			}
		}
		for k := range c.items {
			if len(c.items) <= c.MaxItems {
				break
			}
			if k != key {
				delete(c.items, k)
			}
		}
	}
	c.mu.Unlock()
	return q, nil
}

func (c *Cached) Search(ctx context.Context, query, market string, limit int) ([]models.SearchResult, error) {
	return c.P.Search(ctx, query, market, limit)
}
