package resizer

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/greut/resizer/config"
)

// NoCache is the Cache-Control value of the responses that must not be kept.
var NoCache = strings.Join([]string{
	"no-cache",
	"no-store",
	"private",
	"must-revalidate",
	"max-age=0",
	"max-stale=0",
	"post-check=0",
	"pre-check=0",
}, ", ")

// DisableCache sets the headers preventing any caching.
func DisableCache(h http.Header) {
	h.Set("Cache-Control", NoCache)
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
}

// CacheControl builds the Cache-Control value of a rendered image, empty when
// nothing is configured.
func CacheControl(c config.CacheConfig) string {
	var parts []string

	directive := func(name string, d time.Duration) {
		if d > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", name, int64(d/time.Second)))
		}
	}

	directive("max-age", c.MaxAge.Duration)
	directive("stale-while-revalidate", c.StaleWhileRevalidate.Duration)
	directive("stale-if-error", c.StaleIfError.Duration)

	return strings.Join(parts, ", ")
}
