package httputil

import (
	"net/http"
	"time"
)

// AuthClient is for GoTrue calls. Auth round trips gate every request, so
// the timeout is short.
func AuthClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// FetchClient is for pulling third-party listing pages and images. Remote
// hosts can be slow, so it gets a longer leash and never follows more than
// the default redirect chain.
func FetchClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
