// Package offercache puts a cache in front of any domain.OfferSource.
package offercache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_search/internal/domain"
)

type Source struct {
	inner domain.OfferSource
	cache domain.Cache
	ttl   time.Duration
}

func New(inner domain.OfferSource, cache domain.Cache, ttl time.Duration) *Source {
	return &Source{inner: inner, cache: cache, ttl: ttl}
}

// Key identifies one advertiser request. hotelIDs are expected sorted, as
// the search service sends them.
func Key(advertiserID int, hotelIDs []int, r domain.DateRange) string {
	parts := make([]string, len(hotelIDs))
	for i, id := range hotelIDs {
		parts[i] = strconv.Itoa(id)
	}
	sum := sha1.Sum([]byte(strings.Join(parts, ",")))
	return fmt.Sprintf("offers:%d:%d:%d:%s", advertiserID, r.Start, r.End, hex.EncodeToString(sum[:]))
}

// GetOffersFromAdvertiser serves from cache when possible. Cache failures
// fall through to the inner source; inner failures are never cached.
func (s *Source) GetOffersFromAdvertiser(ctx context.Context, a domain.Advertiser, hotelIDs []int, r domain.DateRange) (map[int]domain.Offer, error) {
	key := Key(a.ID, hotelIDs, r)

	var cached map[int]domain.Offer
	ok, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("offer cache read failed")
	}
	if ok {
		if cached == nil {
			cached = map[int]domain.Offer{}
		}
		return cached, nil
	}

	offers, err := s.inner.GetOffersFromAdvertiser(ctx, a, hotelIDs, r)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, offers, int(s.ttl.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("offer cache write failed")
	}
	return offers, nil
}
