package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_search/internal/catalog"
	"hotel_search/internal/domain"
)

// ImportService copies reference rows from one store into another,
// e.g. CSV files into MySQL.
type ImportService struct {
	src       domain.RowSource
	sink      domain.RowSink
	workers   int
	chunkSize int
}

func NewImportService(src domain.RowSource, sink domain.RowSink, workers int) *ImportService {
	if workers <= 0 {
		workers = 1
	}
	return &ImportService{src: src, sink: sink, workers: workers, chunkSize: 500}
}

// Import validates the rows by building a catalog from them, then writes
// parents before children: cities and advertisers, hotels, links.
func (s *ImportService) Import(ctx context.Context) (catalog.Stats, error) {
	rows, err := ReadRows(ctx, s.src)
	if err != nil {
		return catalog.Stats{}, err
	}
	// refuse to persist rows the search server would refuse to load
	store, err := catalog.New(rows.Cities, rows.Advertisers, rows.Links, rows.Hotels)
	if err != nil {
		return catalog.Stats{}, fmt.Errorf("validate rows: %w", err)
	}
	if err := checkLinks(rows); err != nil {
		return catalog.Stats{}, fmt.Errorf("validate rows: %w", err)
	}

	if err := s.sink.UpsertCities(ctx, rows.Cities); err != nil {
		return catalog.Stats{}, fmt.Errorf("upsert cities: %w", err)
	}
	if err := s.sink.UpsertAdvertisers(ctx, rows.Advertisers); err != nil {
		return catalog.Stats{}, fmt.Errorf("upsert advertisers: %w", err)
	}
	if err := s.upsertHotels(ctx, rows.Hotels); err != nil {
		return catalog.Stats{}, err
	}
	if err := s.sink.UpsertAdvertiserHotels(ctx, rows.Links); err != nil {
		return catalog.Stats{}, fmt.Errorf("upsert advertiser hotels: %w", err)
	}
	return store.Stats(), nil
}

// checkLinks rejects links to unknown advertisers before anything is
// written; the sink's advertiser_hotels table has a foreign key on them.
func checkLinks(rows domain.Rows) error {
	known := make(map[int]struct{}, len(rows.Advertisers))
	for _, a := range rows.Advertisers {
		known[a.ID] = struct{}{}
	}
	for _, l := range rows.Links {
		if _, ok := known[l.AdvertiserID]; !ok {
			return fmt.Errorf("link to hotel %d: advertiser %d: %w", l.HotelID, l.AdvertiserID, domain.ErrUnknownAdvertiser)
		}
	}
	return nil
}

// upsertHotels writes hotel rows in chunks, at most s.workers at a time.
func (s *ImportService) upsertHotels(ctx context.Context, hotels []domain.HotelRow) error {
	sem := semaphore.NewWeighted(int64(s.workers))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for lo := 0; lo < len(hotels); lo += s.chunkSize {
		hi := lo + s.chunkSize
		if hi > len(hotels) {
			hi = len(hotels)
		}

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return fmt.Errorf("upsert hotels: %w", err)
		}

		wg.Add(1)
		go func(chunk []domain.HotelRow, offset int) {
			defer wg.Done()
			defer sem.Release(1)

			if err := s.sink.UpsertHotels(ctx, chunk); err != nil {
				log.Warn().Int("offset", offset).Int("rows", len(chunk)).Err(err).Msg("hotel chunk failed")
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			log.Debug().Int("offset", offset).Int("rows", len(chunk)).Msg("hotel chunk ok")
		}(hotels[lo:hi], lo)
	}

	wg.Wait()
	if firstErr != nil {
		return fmt.Errorf("upsert hotels: %w", firstErr)
	}
	return nil
}
