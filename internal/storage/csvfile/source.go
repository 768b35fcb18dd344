// Package csvfile reads reference rows from the four CSV files of a data
// directory. Every file starts with a header row; columns are located by
// name, so their order does not matter.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"hotel_search/internal/domain"
)

const (
	CitiesFile           = "cities.csv"
	AdvertisersFile      = "advertisers.csv"
	AdvertiserHotelsFile = "hotel_advertiser.csv"
	HotelsFile           = "hotels.csv"
)

type Source struct{ Dir string }

func New(dir string) *Source { return &Source{Dir: dir} }

func (s *Source) Cities(ctx context.Context) ([]domain.City, error) {
	var out []domain.City
	err := s.each(ctx, CitiesFile, []string{"id", "city_name"}, func(r record) error {
		id, err := r.atoi("id")
		if err != nil {
			return err
		}
		out = append(out, domain.City{ID: id, Name: r.str("city_name")})
		return nil
	})
	return out, err
}

func (s *Source) Advertisers(ctx context.Context) ([]domain.Advertiser, error) {
	var out []domain.Advertiser
	err := s.each(ctx, AdvertisersFile, []string{"id", "advertiser_name"}, func(r record) error {
		id, err := r.atoi("id")
		if err != nil {
			return err
		}
		out = append(out, domain.Advertiser{ID: id, Name: r.str("advertiser_name")})
		return nil
	})
	return out, err
}

func (s *Source) AdvertiserHotels(ctx context.Context) ([]domain.AdvertiserHotelLink, error) {
	var out []domain.AdvertiserHotelLink
	err := s.each(ctx, AdvertiserHotelsFile, []string{"advertiser_id", "hotel_id"}, func(r record) error {
		adv, err := r.atoi("advertiser_id")
		if err != nil {
			return err
		}
		hotel, err := r.atoi("hotel_id")
		if err != nil {
			return err
		}
		out = append(out, domain.AdvertiserHotelLink{AdvertiserID: adv, HotelID: hotel})
		return nil
	})
	return out, err
}

func (s *Source) Hotels(ctx context.Context) ([]domain.HotelRow, error) {
	cols := []string{"id", "city_id", "clicks", "impressions", "name", "rating", "stars"}
	var out []domain.HotelRow
	err := s.each(ctx, HotelsFile, cols, func(r record) error {
		var h domain.HotelRow
		var err error
		if h.ID, err = r.atoi("id"); err != nil {
			return err
		}
		if h.CityID, err = r.atoi("city_id"); err != nil {
			return err
		}
		if h.Clicks, err = r.atoi64("clicks"); err != nil {
			return err
		}
		if h.Impressions, err = r.atoi64("impressions"); err != nil {
			return err
		}
		if h.Rating, err = r.atoi("rating"); err != nil {
			return err
		}
		if h.Stars, err = r.atoi("stars"); err != nil {
			return err
		}
		h.Name = r.str("name")
		out = append(out, h)
		return nil
	})
	return out, err
}

// record is one data row with header-name access.
type record struct {
	cols   map[string]int
	fields []string
}

func (r record) str(col string) string { return r.fields[r.cols[col]] }

func (r record) atoi(col string) (int, error) {
	v := strings.TrimSpace(r.str(col))
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("column %s: %q is not an integer", col, v)
	}
	return n, nil
}

func (r record) atoi64(col string) (int64, error) {
	v := strings.TrimSpace(r.str(col))
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %q is not an integer", col, v)
	}
	return n, nil
}

// each calls fn for every data row of name, after checking that the header
// carries all required columns. Errors name the file and line.
func (s *Source) each(ctx context.Context, name string, required []string, fn func(record) error) error {
	path := filepath.Join(s.Dir, name)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rd := csv.NewReader(f)
	header, err := rd.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: missing header", path)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			return fmt.Errorf("%s: missing column %q", path, c)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fields, err := rd.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		line, _ := rd.FieldPos(0)
		if err := fn(record{cols: cols, fields: fields}); err != nil {
			return fmt.Errorf("%s:%d: %w", path, line, err)
		}
	}
}
