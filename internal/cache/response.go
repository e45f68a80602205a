// Contactd - Contact Management REST API
// Copyright 2026 Y. Kravets (ykravets)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ykravets/contactd

package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ykravets/contactd/internal/logging"
)

// Cache lifetimes per response family. Contact reads are cached briefly
// so list pages stay snappy without serving stale writes for long; the
// birthday lookahead changes at most daily and gets an hour.
const (
	ContactListTTL = 10 * time.Second
	ContactItemTTL = 10 * time.Second
	BirthdaysTTL   = time.Hour
)

// ResponseCache caches serialized response payloads keyed by user and
// request shape. A cache failure is never a request failure: misses are
// returned on any error and writes are best effort.
type ResponseCache struct {
	store Store
}

// NewResponseCache wraps a Store.
func NewResponseCache(store Store) *ResponseCache {
	return &ResponseCache{store: store}
}

// ContactListKey identifies one page of one user's filtered contact list.
// The filter string is hashed so arbitrarily long queries produce fixed
// length keys.
func ContactListKey(userID int64, skip, limit int, query string) string {
	digest := sha256.Sum256([]byte(query))
	return fmt.Sprintf("contacts:list:%d:%d:%d:%x", userID, skip, limit, digest[:8])
}

// ContactItemKey identifies a single contact response.
func ContactItemKey(userID, contactID int64) string {
	return fmt.Sprintf("contacts:item:%d:%d", userID, contactID)
}

// BirthdaysKey identifies one page of the upcoming-birthdays lookahead.
func BirthdaysKey(userID int64, skip, limit, days int) string {
	return fmt.Sprintf("contacts:birthdays:%d:%d:%d:%d", userID, skip, limit, days)
}

// GetJSON loads a cached payload into dest. It reports false on miss or
// on any cache error.
func (c *ResponseCache) GetJSON(ctx context.Context, key string, dest any) bool {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if err != ErrMiss {
			logging.Debug().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		logging.Debug().Err(err).Str("key", key).Msg("Cache payload corrupt")
		return false
	}
	return true
}

// SetJSON stores a payload best effort.
func (c *ResponseCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Debug().Err(err).Str("key", key).Msg("Cache payload not serializable")
		return
	}
	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		logging.Debug().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// InvalidateContacts drops every cached contact response for the user.
// Called after any write to the user's contacts.
func (c *ResponseCache) InvalidateContacts(ctx context.Context, userID int64) {
	for _, prefix := range []string{
		fmt.Sprintf("contacts:list:%d:", userID),
		fmt.Sprintf("contacts:item:%d:", userID),
		fmt.Sprintf("contacts:birthdays:%d:", userID),
	} {
		if err := c.store.DeleteByPrefix(ctx, prefix); err != nil {
			logging.Debug().Err(err).Str("prefix", prefix).Msg("Cache invalidation failed")
		}
	}
}
