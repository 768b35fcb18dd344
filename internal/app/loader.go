package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"hotel_search/internal/catalog"
	"hotel_search/internal/domain"
)

// ReadRows pulls every reference row set out of src.
func ReadRows(ctx context.Context, src domain.RowSource) (domain.Rows, error) {
	var rows domain.Rows
	var err error
	if rows.Cities, err = src.Cities(ctx); err != nil {
		return domain.Rows{}, fmt.Errorf("read cities: %w", err)
	}
	if rows.Advertisers, err = src.Advertisers(ctx); err != nil {
		return domain.Rows{}, fmt.Errorf("read advertisers: %w", err)
	}
	if rows.Links, err = src.AdvertiserHotels(ctx); err != nil {
		return domain.Rows{}, fmt.Errorf("read advertiser hotels: %w", err)
	}
	if rows.Hotels, err = src.Hotels(ctx); err != nil {
		return domain.Rows{}, fmt.Errorf("read hotels: %w", err)
	}
	return rows, nil
}

// LoadCatalog reads all rows from src and builds the reference store.
// Any failure, including a *domain.ReferenceIntegrityError, must abort
// startup.
func LoadCatalog(ctx context.Context, src domain.RowSource) (*catalog.Store, error) {
	rows, err := ReadRows(ctx, src)
	if err != nil {
		return nil, err
	}
	store, err := catalog.New(rows.Cities, rows.Advertisers, rows.Links, rows.Hotels)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	st := store.Stats()
	log.Info().
		Int("cities", st.Cities).
		Int("advertisers", st.Advertisers).
		Int("hotels", st.Hotels).
		Int("links", st.Links).
		Msg("catalog initialized")
	return store, nil
}
