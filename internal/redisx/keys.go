package redisx

import "time"

const (
	// Storefront key/value entries: storefront:{key} -> JSON value
	// (session scoped keys arrive as "{session}:{key}")
	KeyStore = "storefront:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLDedup = 48 * time.Hour
)

// maxUpdateRetries bounds the optimistic WATCH/MULTI loop in Store.Update.
const maxUpdateRetries = 16
