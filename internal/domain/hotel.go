package domain

type City struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Advertiser struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Hotel struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Rating int    `json:"rating"`
	Stars  int    `json:"stars"`
}

// HotelMetrics is informational only; search does not rank by it.
type HotelMetrics struct {
	Clicks      int64 `json:"clicks"`
	Impressions int64 `json:"impressions"`
}

// HotelRow is a hotel as it comes out of a row source, before its city id
// has been resolved.
type HotelRow struct {
	Hotel
	CityID int
	HotelMetrics
}

type AdvertiserHotelLink struct {
	AdvertiserID int
	HotelID      int
}

// Rows is the full set of reference rows a catalog is built from.
type Rows struct {
	Cities      []City
	Advertisers []Advertiser
	Links       []AdvertiserHotelLink
	Hotels      []HotelRow
}
