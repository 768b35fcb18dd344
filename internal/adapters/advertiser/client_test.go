package advertiser_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hotel_search/internal/adapters/advertiser"
	"hotel_search/internal/domain"
)

var acme = domain.Advertiser{ID: 7, Name: "Acme"}

func offersJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	_ = json.NewEncoder(w).Encode(map[string]any{"offers": []map[string]any{
		{"hotel_id": 1, "cpc": 3, "price_in_euro": 120},
		{"hotel_id": 2, "cpc": 1, "price_in_euro": 80},
	}})
}

func TestClient_GetOffers_RequestShape(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/advertisers/7/offers" {
			t.Errorf("path: %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("start") != "10" || q.Get("end") != "12" {
			t.Errorf("range: %v", q)
		}
		if ids := q["hotel_id"]; len(ids) != 2 || ids[0] != "1" || ids[1] != "2" {
			t.Errorf("hotel ids: %v", ids)
		}
		if r.Header.Get("X-API-Key") != "k" {
			t.Errorf("missing api key")
		}
		offersJSON(w)
	}))
	defer ts.Close()

	cl, err := advertiser.New(ts.URL+"/api/", "k", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	got, err := cl.GetOffersFromAdvertiser(context.Background(), acme, []int{1, 2}, domain.DateRange{Start: 10, End: 12})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := domain.Offer{Advertiser: acme, CPC: 3, PriceInEuro: 120}
	if len(got) != 2 || got[1] != want {
		t.Fatalf("unexpected offers: %+v", got)
	}
}

func TestClient_GetOffers_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(503)
		default:
			offersJSON(w)
		}
	}))
	defer ts.Close()

	cl, err := advertiser.New(ts.URL, "", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	got, err := cl.GetOffersFromAdvertiser(ctx, acme, []int{1, 2}, domain.DateRange{Start: 1, End: 2})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected offers: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_GetOffers_404IsNoOffers(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl, _ := advertiser.New(ts.URL, "", 100)
	got, err := cl.GetOffersFromAdvertiser(context.Background(), acme, []int{1}, domain.DateRange{Start: 1, End: 2})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no offers, got %+v", got)
	}
}

func TestClient_GetOffers_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	cl, _ := advertiser.New(ts.URL, "bad", 100)
	_, err := cl.GetOffersFromAdvertiser(context.Background(), acme, []int{1}, domain.DateRange{Start: 1, End: 2})
	if !errors.Is(err, advertiser.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestClient_GetOffers_NoHotelsNoRequest(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer ts.Close()

	cl, _ := advertiser.New(ts.URL, "", 100)
	got, err := cl.GetOffersFromAdvertiser(context.Background(), acme, nil, domain.DateRange{Start: 1, End: 2})
	if err != nil || len(got) != 0 || atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("got=%v err=%v hits=%d", got, err, hits)
	}
}

func TestClient_GetOffers_ContextDeadline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(503)
	}))
	defer ts.Close()

	cl, _ := advertiser.New(ts.URL, "", 100)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := cl.GetOffersFromAdvertiser(ctx, acme, []int{1}, domain.DateRange{Start: 1, End: 2})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestClient_GetOffers_RateLimitPastDeadline(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		offersJSON(w)
	}))
	defer ts.Close()

	cl, _ := advertiser.New(ts.URL, "", 1)
	r := domain.DateRange{Start: 1, End: 2}
	if _, err := cl.GetOffersFromAdvertiser(context.Background(), acme, []int{1}, r); err != nil {
		t.Fatalf("first call: %v", err)
	}

	// the bucket is empty and refills in 1s, well past the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := cl.GetOffersFromAdvertiser(ctx, acme, []int{1}, r)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected 1 gateway hit, got %d", n)
	}
}

func TestNew_RejectsBadURL(t *testing.T) {
	if _, err := advertiser.New("not a url", "", 1); err == nil {
		t.Fatalf("expected error")
	}
}
