package services

import (
	"fmt"
	"time"

	"gastapp/internal/cache"
	"gastapp/internal/core"
)

// StatusCache memoizes computed budget consumptions. Keys carry the
// user ID as a prefix so every write by a user can drop all of that
// user's entries in one sweep.
type StatusCache struct {
	lru *cache.LRUCache[core.Consumption]
}

func NewStatusCache(maxSize int, ttl time.Duration) *StatusCache {
	return &StatusCache{lru: cache.NewLRUCache[core.Consumption](maxSize, ttl)}
}

func statusKey(userID, budgetID int64) string {
	return fmt.Sprintf("status:%d:%d", userID, budgetID)
}

func (c *StatusCache) Get(userID, budgetID int64) (core.Consumption, bool) {
	return c.lru.Get(statusKey(userID, budgetID))
}

func (c *StatusCache) Set(userID, budgetID int64, consumption core.Consumption) {
	c.lru.Set(statusKey(userID, budgetID), consumption)
}

// InvalidateUser drops every cached status belonging to userID.
func (c *StatusCache) InvalidateUser(userID int64) {
	c.lru.DeletePrefix(fmt.Sprintf("status:%d:", userID))
}

// CleanExpired lets a cache.Manager sweep this cache.
func (c *StatusCache) CleanExpired() int {
	return c.lru.CleanExpired()
}
