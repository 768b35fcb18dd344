//go:build integration || !unit

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"hotel_search/internal/adapters/advertiser"
	server "hotel_search/internal/adapters/http_server"
	"hotel_search/internal/adapters/memcache"
	"hotel_search/internal/adapters/offercache"
	"hotel_search/internal/app"
	"hotel_search/internal/domain"
	mysqlrepo "hotel_search/internal/storage/mysql"
)

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = filepath.Join("..", "..", "migrations")
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// gateway is a fake advertiser gateway: every advertiser offers every
// requested hotel at 100 + hotel id euros.
func gateway(hits *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		type offer struct {
			HotelID     int `json:"hotel_id"`
			CPC         int `json:"cpc"`
			PriceInEuro int `json:"price_in_euro"`
		}
		var offers []offer
		for _, v := range r.URL.Query()["hotel_id"] {
			var id int
			_, _ = fmt.Sscanf(v, "%d", &id)
			offers = append(offers, offer{HotelID: id, CPC: 1, PriceInEuro: 100 + id})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"offers": offers})
	}))
}

func TestHTTP_EndToEnd_Search(t *testing.T) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=hotels"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/hotels?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))
	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	applyMigrations(t, db)

	repo := mysqlrepo.New(db)
	ctx := context.Background()
	if err := repo.UpsertCities(ctx, []domain.City{{ID: 1, Name: "Berlin"}, {ID: 2, Name: "Paris"}}); err != nil {
		t.Fatalf("cities: %v", err)
	}
	if err := repo.UpsertAdvertisers(ctx, []domain.Advertiser{{ID: 10, Name: "A"}, {ID: 20, Name: "B"}}); err != nil {
		t.Fatalf("advertisers: %v", err)
	}
	if err := repo.UpsertHotels(ctx, []domain.HotelRow{
		{Hotel: domain.Hotel{ID: 100, Name: "Adlon", Rating: 90, Stars: 5}, CityID: 1},
		{Hotel: domain.Hotel{ID: 101, Name: "Ibis", Rating: 60, Stars: 2}, CityID: 1},
		{Hotel: domain.Hotel{ID: 200, Name: "Ritz", Rating: 95, Stars: 5}, CityID: 2},
	}); err != nil {
		t.Fatalf("hotels: %v", err)
	}
	if err := repo.UpsertAdvertiserHotels(ctx, []domain.AdvertiserHotelLink{
		{AdvertiserID: 10, HotelID: 100},
		{AdvertiserID: 20, HotelID: 100},
		{AdvertiserID: 20, HotelID: 200},
	}); err != nil {
		t.Fatalf("links: %v", err)
	}

	store, err := app.LoadCatalog(ctx, repo)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}

	var hits int32
	gw := gateway(&hits)
	defer gw.Close()
	client, err := advertiser.New(gw.URL, "", 100)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	mem, _ := memcache.New(64)

	srv := server.New("*")
	srv.MountHandlers(&server.Handlers{
		Search: app.NewSearchService(store, app.WithParallelism(4), app.WithTimeout(5*time.Second)),
		Store:  store,
		Offers: offercache.New(client, mem, time.Minute),
	})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	search := func() []domain.HotelWithOffers {
		res, err := http.Get(ts.URL + "/v1/search?city=Berlin&start=3&end=5")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("status %d", res.StatusCode)
		}
		var body struct {
			Hotels []domain.HotelWithOffers `json:"hotels"`
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return body.Hotels
	}

	hotels := search()
	// hotel 100 gets one offer from each advertiser, 101 has no advertiser
	if len(hotels) != 1 || hotels[0].Hotel.ID != 100 || len(hotels[0].Offers) != 2 {
		t.Fatalf("unexpected result: %+v", hotels)
	}
	if hotels[0].Offers[0].Advertiser.ID != 10 || hotels[0].Offers[1].Advertiser.ID != 20 {
		t.Fatalf("offers not in advertiser order: %+v", hotels[0].Offers)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected 2 gateway hits, got %d", hits)
	}

	// second search is served by the offer cache
	_ = search()
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected cached second search, got %d gateway hits", hits)
	}
}
