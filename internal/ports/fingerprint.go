package ports

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

// Request headers that select between representations of the same resource
var varyHeaders = []string{"Accept", "Accept-Encoding", "Accept-Language"}

// RequestFingerprint identifies requests that are answered with the same response.
//
// Query parameters are sorted by key, so their order does not matter. Range and
// conditional requests bypass the cache, so their headers are not part of the key.
func RequestFingerprint(r *http.Request) string {
	hash := sha256.New()

	fmt.Fprintf(hash, "%s\n%s\n%s\n", r.Method, r.URL.EscapedPath(), r.URL.Query().Encode())
	for _, name := range varyHeaders {
		fmt.Fprintf(hash, "%s: %s\n", name, strings.Join(r.Header.Values(name), ","))
	}

	return hex.EncodeToString(hash.Sum(nil))
}
