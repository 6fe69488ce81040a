// Package respond writes the API's JSON bodies: cached reference data with
// ETags, per-request ranking results, and the error envelope.
package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WriteCached writes pre-marshaled reference data (metric groups, seasons)
// with its ETag and a Cache-Control derived from the cache TTL.
func WriteCached(w http.ResponseWriter, data []byte, etag string, ttl time.Duration, hit bool) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("ETag", etag)
	h.Set("Vary", "Accept-Encoding")
	if hit {
		h.Set("X-Cache", "HIT")
	} else {
		h.Set("X-Cache", "MISS")
	}
	maxAge := int(ttl.Seconds())
	h.Set("Cache-Control", fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", maxAge, maxAge/2))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// WriteNotModified answers a matching If-None-Match.
func WriteNotModified(w http.ResponseWriter, etag string) {
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusNotModified)
}

// WriteComputed writes a value computed for this request. Rankings and
// standings are never cached, so neither is the response. The value is
// marshaled before any header is sent so an encoding failure still yields
// an ENCODE_FAILED error body.
func WriteComputed(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		WriteErrorDetail(w, EncodeFailed, "Failed to encode response", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}
