// Package httpx holds the shared HTTP client for outbound integrations,
// currently just the fulfillment provider.
package httpx

import (
	"net"
	"net/http"
	"time"
)

// Provider dispatch runs inside an open database transaction, so the timeout
// stays short: better to leave an order pending than to sit on row locks
// waiting for a slow provider.
var defaultClient = &http.Client{
	Timeout: 8 * time.Second,
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   3 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     60 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	},
}

func Client() *http.Client { return defaultClient }
