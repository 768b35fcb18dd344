package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"hotel_search/internal/adapters/observability"
	"hotel_search/internal/catalog"
	"hotel_search/internal/domain"
)

// SearchService answers "which hotels in city X have offers for range Y".
// It holds no per-search state; concurrent Search calls are safe as long as
// the OfferSource is.
type SearchService struct {
	store       *catalog.Store
	parallelism int
	timeout     time.Duration
}

type SearchOption func(*SearchService)

// WithParallelism lets up to n advertiser requests run at once.
// n <= 1 keeps requests sequential.
func WithParallelism(n int) SearchOption {
	return func(s *SearchService) { s.parallelism = n }
}

// WithTimeout bounds a whole search, offer requests included.
func WithTimeout(d time.Duration) SearchOption {
	return func(s *SearchService) { s.timeout = d }
}

func NewSearchService(store *catalog.Store, opts ...SearchOption) *SearchService {
	s := &SearchService{store: store, parallelism: 1}
	for _, o := range opts {
		o(s)
	}
	return s
}

// advertiserRequest is one planned offer call.
type advertiserRequest struct {
	advertiser domain.Advertiser
	hotelIDs   []int
}

// Search returns the hotels of cityName that received at least one offer,
// sorted by hotel id. Offers from different advertisers for the same hotel
// are all kept, in advertiser id order.
//
// An invalid range or a city without hotels yields an empty result without
// contacting src. Any src failure aborts the search and is returned; no
// partial result is produced.
func (s *SearchService) Search(ctx context.Context, cityName string, r domain.DateRange, src domain.OfferSource) ([]domain.HotelWithOffers, error) {
	start := time.Now()

	if !r.Valid() {
		log.Debug().Str("city", cityName).Stringer("range", r).Msg("start >= end, skip search")
		observability.ObserveSearch("skipped", time.Since(start))
		return []domain.HotelWithOffers{}, nil
	}
	target := s.store.HotelsInCity(cityName)
	if target.Empty() {
		log.Debug().Str("city", cityName).Msg("no hotels in city, skip search")
		observability.ObserveSearch("skipped", time.Since(start))
		return []domain.HotelWithOffers{}, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	plan := s.plan(target)
	log.Debug().
		Str("city", cityName).
		Int("hotels", target.Len()).
		Int("advertisers", len(plan)).
		Msg("performing search")

	var (
		results []map[int]domain.Offer
		err     error
	)
	if s.parallelism > 1 && len(plan) > 1 {
		results, err = s.fetchParallel(ctx, plan, r, src)
	} else {
		results, err = s.fetchSequential(ctx, plan, r, src)
	}
	if err != nil {
		observability.ObserveSearch("error", time.Since(start))
		return nil, err
	}

	out := s.merge(plan, results)
	log.Debug().Str("city", cityName).Int("hotels_with_offers", len(out)).Msg("search done")
	if len(out) == 0 {
		observability.ObserveSearch("empty", time.Since(start))
	} else {
		observability.ObserveSearch("ok", time.Since(start))
	}
	return out, nil
}

// plan lists, in advertiser id order, the advertisers that can offer at
// least one target hotel together with those hotel ids.
func (s *SearchService) plan(target catalog.IDSet) []advertiserRequest {
	var plan []advertiserRequest
	for _, a := range s.store.AllAdvertisers() {
		own := s.store.HotelsOfAdvertiser(a.ID)
		if own.Empty() {
			continue
		}
		ids := own.Intersect(target)
		if len(ids) == 0 {
			log.Debug().Int("advertiser", a.ID).Msg("no hotels in city, skip advertiser")
			continue
		}
		plan = append(plan, advertiserRequest{advertiser: a, hotelIDs: ids})
	}
	return plan
}

func (s *SearchService) fetchSequential(ctx context.Context, plan []advertiserRequest, r domain.DateRange, src domain.OfferSource) ([]map[int]domain.Offer, error) {
	results := make([]map[int]domain.Offer, len(plan))
	for i, req := range plan {
		got, err := request(ctx, src, req, r)
		if err != nil {
			return nil, err
		}
		results[i] = got
	}
	return results, nil
}

// fetchParallel issues the planned requests concurrently. Each task writes
// only its own slot; merging happens after Wait.
func (s *SearchService) fetchParallel(ctx context.Context, plan []advertiserRequest, r domain.DateRange, src domain.OfferSource) ([]map[int]domain.Offer, error) {
	results := make([]map[int]domain.Offer, len(plan))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, req := range plan {
		g.Go(func() error {
			got, err := request(gctx, src, req, r)
			if err != nil {
				return err
			}
			results[i] = got
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func request(ctx context.Context, src domain.OfferSource, req advertiserRequest, r domain.DateRange) (map[int]domain.Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search aborted before advertiser %d: %w", req.advertiser.ID, err)
	}
	log.Debug().Int("advertiser", req.advertiser.ID).Ints("hotels", req.hotelIDs).Msg("requesting offers")

	got, err := src.GetOffersFromAdvertiser(ctx, req.advertiser, req.hotelIDs, r)
	observability.ObserveAdvertiserCall(err)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("search aborted at advertiser %d: %w", req.advertiser.ID, err)
		}
		return nil, fmt.Errorf("advertiser %d: %w", req.advertiser.ID, err)
	}
	log.Debug().Int("advertiser", req.advertiser.ID).Int("offered", len(got)).Msg("advertiser answered")
	return got, nil
}

// merge appends each advertiser's offers to its hotels, in plan order.
// Offers for hotels that were not requested from that advertiser are
// dropped so the result never leaves the target city.
func (s *SearchService) merge(plan []advertiserRequest, results []map[int]domain.Offer) []domain.HotelWithOffers {
	offersByHotel := make(map[int][]domain.Offer)
	for i, req := range plan {
		requested := make(map[int]struct{}, len(req.hotelIDs))
		for _, id := range req.hotelIDs {
			requested[id] = struct{}{}
		}
		for hotelID, o := range results[i] {
			if _, ok := requested[hotelID]; !ok {
				log.Debug().Int("advertiser", req.advertiser.ID).Int("hotel", hotelID).Msg("dropping unrequested offer")
				continue
			}
			offersByHotel[hotelID] = append(offersByHotel[hotelID], o)
		}
	}

	out := make([]domain.HotelWithOffers, 0, len(offersByHotel))
	for hotelID, offers := range offersByHotel {
		h, ok := s.store.HotelByID(hotelID)
		if !ok {
			// requested ids come from the city index, so this cannot happen
			continue
		}
		out = append(out, domain.HotelWithOffers{Hotel: h, Offers: offers})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hotel.ID < out[j].Hotel.ID })
	return out
}
