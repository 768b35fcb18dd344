// Package catalog holds the reference data (cities, hotels, advertisers and
// their links) and the lookup indexes built over it. A Store is built once
// by New and never mutated afterwards, so it is safe for concurrent readers.
package catalog

import (
	"fmt"
	"sort"

	"hotel_search/internal/domain"
)

type Store struct {
	cities      map[int]domain.City
	cityByName  map[string]domain.City
	advertisers []domain.Advertiser // ascending by id
	hotels      map[int]domain.Hotel
	metrics     map[int]domain.HotelMetrics

	hotelsByCity       map[string]IDSet
	hotelsByAdvertiser map[int]IDSet
}

// Stats are entity counts, mostly for startup logs.
type Stats struct {
	Cities      int `json:"cities"`
	Advertisers int `json:"advertisers"`
	Hotels      int `json:"hotels"`
	Links       int `json:"links"`
}

// New builds a Store from parsed rows. It fails with a
// *domain.ReferenceIntegrityError when a hotel points at an unknown city,
// and with domain.ErrDuplicateID when any entity set repeats an id.
// On error no Store is returned.
func New(cities []domain.City, advertisers []domain.Advertiser, links []domain.AdvertiserHotelLink, hotels []domain.HotelRow) (*Store, error) {
	s := &Store{
		cities:             make(map[int]domain.City, len(cities)),
		cityByName:         make(map[string]domain.City, len(cities)),
		advertisers:        make([]domain.Advertiser, 0, len(advertisers)),
		hotels:             make(map[int]domain.Hotel, len(hotels)),
		metrics:            make(map[int]domain.HotelMetrics, len(hotels)),
		hotelsByCity:       make(map[string]IDSet),
		hotelsByAdvertiser: make(map[int]IDSet),
	}

	for _, c := range cities {
		if _, dup := s.cities[c.ID]; dup {
			return nil, fmt.Errorf("city %d: %w", c.ID, domain.ErrDuplicateID)
		}
		s.cities[c.ID] = c
		s.cityByName[c.Name] = c
	}

	seenAdv := make(map[int]struct{}, len(advertisers))
	for _, a := range advertisers {
		if _, dup := seenAdv[a.ID]; dup {
			return nil, fmt.Errorf("advertiser %d: %w", a.ID, domain.ErrDuplicateID)
		}
		seenAdv[a.ID] = struct{}{}
		s.advertisers = append(s.advertisers, a)
	}
	sort.Slice(s.advertisers, func(i, j int) bool { return s.advertisers[i].ID < s.advertisers[j].ID })

	byCity := make(map[string][]int)
	for _, h := range hotels {
		if _, dup := s.hotels[h.ID]; dup {
			return nil, fmt.Errorf("hotel %d: %w", h.ID, domain.ErrDuplicateID)
		}
		c, ok := s.cities[h.CityID]
		if !ok {
			return nil, &domain.ReferenceIntegrityError{HotelID: h.ID, CityID: h.CityID}
		}
		s.hotels[h.ID] = h.Hotel
		s.metrics[h.ID] = h.HotelMetrics
		byCity[c.Name] = append(byCity[c.Name], h.ID)
	}
	for name, ids := range byCity {
		s.hotelsByCity[name] = newIDSet(ids...)
	}

	// Links are kept as given: an advertiser may link hotels in any city,
	// and a link to an unknown hotel simply never intersects a city set.
	byAdv := make(map[int][]int)
	for _, l := range links {
		byAdv[l.AdvertiserID] = append(byAdv[l.AdvertiserID], l.HotelID)
	}
	for id, ids := range byAdv {
		s.hotelsByAdvertiser[id] = newIDSet(ids...)
	}

	return s, nil
}

// HotelsInCity returns the hotels located in the named city. Unknown and
// empty names yield an empty set.
func (s *Store) HotelsInCity(cityName string) IDSet {
	if set, ok := s.hotelsByCity[cityName]; ok {
		return set
	}
	return emptySet
}

func (s *Store) HotelsOfAdvertiser(advertiserID int) IDSet {
	if set, ok := s.hotelsByAdvertiser[advertiserID]; ok {
		return set
	}
	return emptySet
}

func (s *Store) HotelByID(id int) (domain.Hotel, bool) {
	h, ok := s.hotels[id]
	return h, ok
}

func (s *Store) Metrics(hotelID int) (domain.HotelMetrics, bool) {
	m, ok := s.metrics[hotelID]
	return m, ok
}

// AllAdvertisers returns every advertiser ordered by id. The slice is a copy.
func (s *Store) AllAdvertisers() []domain.Advertiser {
	out := make([]domain.Advertiser, len(s.advertisers))
	copy(out, s.advertisers)
	return out
}

func (s *Store) CityByName(name string) (domain.City, bool) {
	c, ok := s.cityByName[name]
	return c, ok
}

// Cities returns every known city ordered by id.
func (s *Store) Cities() []domain.City {
	out := make([]domain.City, 0, len(s.cities))
	for _, c := range s.cities {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Stats() Stats {
	links := 0
	for _, set := range s.hotelsByAdvertiser {
		links += set.Len()
	}
	return Stats{
		Cities:      len(s.cities),
		Advertisers: len(s.advertisers),
		Hotels:      len(s.hotels),
		Links:       links,
	}
}
