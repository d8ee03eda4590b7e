package wait

import (
	"crypto/tls"
	"net/http"
)

// newHTTPClient returns a client owned by one strategy. Keep-alives are off
// so every attempt dials the target afresh.
func newHTTPClient(relaxedTLS bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = true
	if relaxedTLS {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // opt-in for self-signed test endpoints
		}
	}
	return &http.Client{Transport: transport}
}
