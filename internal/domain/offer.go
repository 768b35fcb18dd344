package domain

import "fmt"

// DateRange is the half-open interval [Start, End) over ordinal dates.
type DateRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (d DateRange) Valid() bool { return d.Start < d.End }

func (d DateRange) String() string { return fmt.Sprintf("[%d,%d)", d.Start, d.End) }

type Offer struct {
	Advertiser  Advertiser `json:"advertiser"`
	CPC         int        `json:"cpc"`
	PriceInEuro int        `json:"price_in_euro"`
}

type HotelWithOffers struct {
	Hotel  Hotel   `json:"hotel"`
	Offers []Offer `json:"offers"`
}
