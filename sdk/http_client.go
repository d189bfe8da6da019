package vocalis

import (
	"net"
	"net/http"
	"time"
)

// newDefaultHTTPClient configures transport-level timeouts while leaving the
// overall request lifetime to context deadlines.
//
// No http.Client.Timeout is set because synthesis responses stream for as
// long as the audio lasts; callers should put deadlines on the context for
// the non-streaming calls.
func newDefaultHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport}
}
