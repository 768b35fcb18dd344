// Package advertiser is the HTTP OfferSource: it asks an advertiser
// gateway for the offers one advertiser has for a set of hotels.
package advertiser

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"hotel_search/internal/adapters/observability"
	"hotel_search/internal/domain"
)

const maxAttempts = 4

var (
	ErrUnauthorized = errors.New("advertiser gateway: unauthorized")
	ErrForbidden    = errors.New("advertiser gateway: forbidden")
)

type Client struct {
	base *url.URL
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid advertiser gateway url %q", base)
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: u,
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// wire format of GET /advertisers/{id}/offers
type offersResponse struct {
	Offers []struct {
		HotelID     int `json:"hotel_id"`
		CPC         int `json:"cpc"`
		PriceInEuro int `json:"price_in_euro"`
	} `json:"offers"`
}

// GetOffersFromAdvertiser implements domain.OfferSource. A 404 or 204 from
// the gateway means the advertiser has nothing to offer.
func (c *Client) GetOffersFromAdvertiser(ctx context.Context, a domain.Advertiser, hotelIDs []int, r domain.DateRange) (map[int]domain.Offer, error) {
	out := make(map[int]domain.Offer, len(hotelIDs))
	if len(hotelIDs) == 0 {
		return out, nil
	}

	q := url.Values{}
	q.Set("start", strconv.Itoa(r.Start))
	q.Set("end", strconv.Itoa(r.End))
	for _, id := range hotelIDs {
		q.Add("hotel_id", strconv.Itoa(id))
	}
	u := *c.base
	u.Path = fmt.Sprintf("%s/advertisers/%d/offers", c.base.Path, a.ID)
	u.RawQuery = q.Encode()

	var resp offersResponse
	found, err := c.get(ctx, u.String(), &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return out, nil
	}
	for _, o := range resp.Offers {
		if _, dup := out[o.HotelID]; dup {
			continue // first offer per hotel wins
		}
		out[o.HotelID] = domain.Offer{Advertiser: a, CPC: o.CPC, PriceInEuro: o.PriceInEuro}
	}
	return out, nil
}

// get performs a GET with client-side rate limiting and retries, decoding
// a JSON body into out. It reports found=false for 404/204.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, target string, out any) (found bool, err error) {
	if err := c.rl.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		// Wait fails early when the next token lands past the deadline
		if _, ok := ctx.Deadline(); ok {
			return false, fmt.Errorf("advertiser rate limit: %w", context.DeadlineExceeded)
		}
		return false, err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return false, err
		}
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hotel-search/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("advertiser", "offers", 0, time.Since(start))
			log.Debug().Str("err_type", observability.LabelErr(err)).Int("attempt", i+1).Msg("advertiser transport error")
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			lastErr = err
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return false, lastErr
		}
		observability.ObserveExternal("advertiser", "offers", resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return false, fmt.Errorf("decode offers: %w", err)
			}
			return true, nil

		case http.StatusNoContent, http.StatusNotFound:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return false, nil

		case http.StatusUnauthorized:
			resp.Body.Close()
			return false, ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return false, ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			return false, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return false, fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return false, lastErr
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 100ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 100 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
