package mysql

// -----------------------------------------------------------------------------
// WRITE QUERIES (multi-row prefixes; VALUES tuples are appended per batch)
// -----------------------------------------------------------------------------

const upsertCitiesPrefix = "INSERT INTO cities (id, name) VALUES "

const upsertCitiesOnDup = " ON DUPLICATE KEY UPDATE name = VALUES(name)"

const upsertAdvertisersPrefix = "INSERT INTO advertisers (id, name) VALUES "

const upsertAdvertisersOnDup = " ON DUPLICATE KEY UPDATE name = VALUES(name)"

const upsertHotelsPrefix = "INSERT INTO hotels\n  (id, city_id, name, rating, stars, clicks, impressions)\nVALUES "

const upsertHotelsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  city_id     = VALUES(city_id),\n" +
	"  name        = VALUES(name),\n" +
	"  rating      = VALUES(rating),\n" +
	"  stars       = VALUES(stars),\n" +
	"  clicks      = VALUES(clicks),\n" +
	"  impressions = VALUES(impressions),\n" +
	"  updated_at  = CURRENT_TIMESTAMP\n"

// links carry no payload; a repeated pair is a no-op
const insertAdvertiserHotelsPrefix = "INSERT IGNORE INTO advertiser_hotels (advertiser_id, hotel_id) VALUES "

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const listCitiesSQL = `SELECT id, name FROM cities ORDER BY id`

const listAdvertisersSQL = `SELECT id, name FROM advertisers ORDER BY id`

const listAdvertiserHotelsSQL = `
SELECT advertiser_id, hotel_id
FROM advertiser_hotels
ORDER BY advertiser_id, hotel_id
`

const listHotelsSQL = `
SELECT id, city_id, name, rating, stars, clicks, impressions
FROM hotels
ORDER BY id
`
