package domain

import "context"

// OfferSource supplies offers for one advertiser. It returns at most one
// offer per requested hotel and may omit hotels it cannot offer.
type OfferSource interface {
	GetOffersFromAdvertiser(ctx context.Context, a Advertiser, hotelIDs []int, r DateRange) (map[int]Offer, error)
}

// OfferSourceFunc adapts a plain function to OfferSource.
type OfferSourceFunc func(ctx context.Context, a Advertiser, hotelIDs []int, r DateRange) (map[int]Offer, error)

func (f OfferSourceFunc) GetOffersFromAdvertiser(ctx context.Context, a Advertiser, hotelIDs []int, r DateRange) (map[int]Offer, error) {
	return f(ctx, a, hotelIDs, r)
}

type RowSource interface {
	Cities(ctx context.Context) ([]City, error)
	Advertisers(ctx context.Context) ([]Advertiser, error)
	AdvertiserHotels(ctx context.Context) ([]AdvertiserHotelLink, error)
	Hotels(ctx context.Context) ([]HotelRow, error)
}

type RowSink interface {
	UpsertCities(ctx context.Context, cs []City) error
	UpsertAdvertisers(ctx context.Context, as []Advertiser) error
	UpsertHotels(ctx context.Context, hs []HotelRow) error
	UpsertAdvertiserHotels(ctx context.Context, ls []AdvertiserHotelLink) error
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
