package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hotel_search/internal/app"
	"hotel_search/internal/catalog"
	"hotel_search/internal/domain"
)

// Handlers serves the query surface. Offers is the OfferSource every search
// fans out to.
type Handlers struct {
	Search *app.SearchService
	Store  *catalog.Store
	Offers domain.OfferSource
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type searchResponse struct {
	SearchID string                   `json:"search_id"`
	City     string                   `json:"city"`
	Start    int                      `json:"start"`
	End      int                      `json:"end"`
	Hotels   []domain.HotelWithOffers `json:"hotels"`
}

type hotelResponse struct {
	domain.Hotel
	Metrics domain.HotelMetrics `json:"metrics"`
}

type cityResponse struct {
	domain.City
	Hotels int `json:"hotels"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/search", h.search)
	s.mux.Get("/v1/hotels/{id}", h.getHotel)
	s.mux.Get("/v1/cities", h.listCities)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

// writeJSON answers 304 when If-None-Match matches the body's ETag.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); etag != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// parseRange reads start/end; a parse failure is domain.ErrInvalidDateRange.
// start >= end parses fine and is left to the search to short-circuit.
func parseRange(r *http.Request) (domain.DateRange, error) {
	start, err1 := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("start")))
	end, err2 := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("end")))
	if err1 != nil || err2 != nil {
		return domain.DateRange{}, domain.ErrInvalidDateRange
	}
	return domain.DateRange{Start: start, End: end}, nil
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid city", "city is required")
		return
	}
	dr, err := parseRange(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid date range", "start and end must be integers")
		return
	}

	id := uuid.NewString()
	hotels, err := h.Search.Search(r.Context(), city, dr, h.Offers)
	if err != nil {
		log.Warn().Str("search_id", id).Str("city", city).Err(err).Msg("search failed")
		if errors.Is(err, context.DeadlineExceeded) {
			writeProblem(w, http.StatusGatewayTimeout, "Search timed out", "advertisers did not answer in time")
			return
		}
		writeProblem(w, http.StatusBadGateway, "Advertiser failure", "an advertiser could not be queried")
		return
	}

	// search_id changes per call, so no ETag here
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	resp := searchResponse{SearchID: id, City: city, Start: dr.Start, End: dr.End, Hotels: hotels}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("failed to write search body")
	}
}

func (h *Handlers) getHotel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	hotel, ok := h.Store.HotelByID(id)
	if !ok {
		writeProblem(w, http.StatusNotFound, "Not Found", domain.ErrNotFound.Error())
		return
	}
	m, _ := h.Store.Metrics(id)
	writeJSON(w, r, hotelResponse{Hotel: hotel, Metrics: m})
}

func (h *Handlers) listCities(w http.ResponseWriter, r *http.Request) {
	cities := h.Store.Cities()
	out := make([]cityResponse, 0, len(cities))
	for _, c := range cities {
		out = append(out, cityResponse{City: c, Hotels: h.Store.HotelsInCity(c.Name).Len()})
	}
	writeJSON(w, r, out)
}
