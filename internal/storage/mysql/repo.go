package mysql

import (
	"context"
	"database/sql"
	"strings"

	"hotel_search/internal/domain"
)

// batchSize bounds the VALUES tuples of one multi-row statement.
const batchSize = 500

// Repo is both a domain.RowSource and a domain.RowSink over MySQL.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- RowSink ----

func (r *Repo) UpsertCities(ctx context.Context, cs []domain.City) error {
	return execBatches(ctx, r.db, len(cs), "(?,?)", upsertCitiesPrefix, upsertCitiesOnDup,
		func(i int) []any { return []any{cs[i].ID, cs[i].Name} })
}

func (r *Repo) UpsertAdvertisers(ctx context.Context, as []domain.Advertiser) error {
	return execBatches(ctx, r.db, len(as), "(?,?)", upsertAdvertisersPrefix, upsertAdvertisersOnDup,
		func(i int) []any { return []any{as[i].ID, as[i].Name} })
}

func (r *Repo) UpsertHotels(ctx context.Context, hs []domain.HotelRow) error {
	return execBatches(ctx, r.db, len(hs), "(?,?,?,?,?,?,?)", upsertHotelsPrefix, upsertHotelsOnDup,
		func(i int) []any {
			h := hs[i]
			return []any{h.ID, h.CityID, h.Name, h.Rating, h.Stars, h.Clicks, h.Impressions}
		})
}

func (r *Repo) UpsertAdvertiserHotels(ctx context.Context, ls []domain.AdvertiserHotelLink) error {
	return execBatches(ctx, r.db, len(ls), "(?,?)", insertAdvertiserHotelsPrefix, "",
		func(i int) []any { return []any{ls[i].AdvertiserID, ls[i].HotelID} })
}

// execBatches runs prefix + n placeholder tuples + suffix, batchSize rows
// per statement.
func execBatches(ctx context.Context, db *sql.DB, n int, tuple, prefix, suffix string, args func(i int) []any) error {
	for lo := 0; lo < n; lo += batchSize {
		hi := lo + batchSize
		if hi > n {
			hi = n
		}
		values := make([]string, 0, hi-lo)
		params := make([]any, 0, (hi-lo)*strings.Count(tuple, "?"))
		for i := lo; i < hi; i++ {
			values = append(values, tuple)
			params = append(params, args(i)...)
		}
		q := prefix + strings.Join(values, ",") + suffix
		if _, err := db.ExecContext(ctx, q, params...); err != nil {
			return err
		}
	}
	return nil
}

// ---- RowSource ----

func (r *Repo) Cities(ctx context.Context) ([]domain.City, error) {
	rows, err := r.db.QueryContext(ctx, listCitiesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.City
	for rows.Next() {
		var c domain.City
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) Advertisers(ctx context.Context) ([]domain.Advertiser, error) {
	rows, err := r.db.QueryContext(ctx, listAdvertisersSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Advertiser
	for rows.Next() {
		var a domain.Advertiser
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) AdvertiserHotels(ctx context.Context) ([]domain.AdvertiserHotelLink, error) {
	rows, err := r.db.QueryContext(ctx, listAdvertiserHotelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AdvertiserHotelLink
	for rows.Next() {
		var l domain.AdvertiserHotelLink
		if err := rows.Scan(&l.AdvertiserID, &l.HotelID); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repo) Hotels(ctx context.Context) ([]domain.HotelRow, error) {
	rows, err := r.db.QueryContext(ctx, listHotelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HotelRow
	for rows.Next() {
		var h domain.HotelRow
		if err := rows.Scan(&h.ID, &h.CityID, &h.Name, &h.Rating, &h.Stars, &h.Clicks, &h.Impressions); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
