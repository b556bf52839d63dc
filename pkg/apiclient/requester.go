// Copyright 2025 The CargoBuddy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package apiclient talks to the CargoBuddy REST API. Session cookies
// captured from responses are replayed on subsequent requests through the
// shared cookie map.
package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptrace"
	"strings"
	"sync"
	"time"

	"github.com/united-manufacturing-hub/expiremap/v2/pkg/expiremap"
	"go.uber.org/zap"

	"github.com/giftakari/cargobuddy-frontend/pkg/metrics"
	"github.com/giftakari/cargobuddy-frontend/pkg/tools/latency"
	"github.com/giftakari/cargobuddy-frontend/pkg/tools/safejson"
)

// ErrUnauthorized is returned when the backend answers 401. The caller
// should drop the session and send the user back to login.
var ErrUnauthorized = errors.New("unauthorized: the session is missing or expired")

// APIError is any other non-2xx backend response.
type APIError struct {
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("error response code %d: %s", e.Status, string(e.Body))
	}
	return fmt.Sprintf("error response code %d", e.Status)
}

var secureHTTPClient *http.Client
var insecureHTTPClient *http.Client
var initHTTPClientOnce sync.Once

// GetClient returns a shared HTTP client. HTTP/2 is disabled, the
// backend's websocket upgrade path misbehaves behind h2 proxies.
func GetClient(insecureTLS bool) *http.Client {
	// Prevent init race
	initHTTPClientOnce.Do(func() {
		secureTransport := &http.Transport{
			ForceAttemptHTTP2: false,
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			Proxy:             http.ProxyFromEnvironment,
		}

		secureHTTPClient = &http.Client{
			Transport: secureTransport,
			Timeout:   30 * time.Second,
		}

		insecureTransport := &http.Transport{
			ForceAttemptHTTP2: false,
			TLSNextProto:      make(map[string]func(authority string, c *tls.Conn) http.RoundTripper),
			Proxy:             http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		}

		insecureHTTPClient = &http.Client{
			Transport: insecureTransport,
			Timeout:   30 * time.Second,
		}
	})

	if insecureTLS {
		return insecureHTTPClient
	}

	return secureHTTPClient
}

var latenciesFRB = expiremap.NewEx[time.Time, time.Duration](5*time.Minute, 5*time.Minute)
var latenciesDNS = expiremap.NewEx[time.Time, time.Duration](5*time.Minute, 5*time.Minute)
var latenciesTLS = expiremap.NewEx[time.Time, time.Duration](5*time.Minute, 5*time.Minute)
var latenciesConn = expiremap.NewEx[time.Time, time.Duration](5*time.Minute, 5*time.Minute)

// GetLatencyTimeTillFirstByte summarizes first-byte latency over the last
// five minutes of requests.
func GetLatencyTimeTillFirstByte() latency.Latency {
	return latency.Calculate(latenciesFRB)
}
func GetLatencyTimeTillDNS() latency.Latency {
	return latency.Calculate(latenciesDNS)
}
func GetLatencyTimeTillTLS() latency.Latency {
	return latency.Calculate(latenciesTLS)
}
func GetLatencyTimeTillConn() latency.Latency {
	return latency.Calculate(latenciesConn)
}

// setupClientTrace creates and returns an http trace with timing measurements
func setupClientTrace(requestStart *time.Time, timings *struct {
	firstByte time.Duration
	dns       time.Duration
	tls       time.Duration
	conn      time.Duration
}) *httptrace.ClientTrace {
	var dnsStart, tlsStart, connStart time.Time

	return &httptrace.ClientTrace{
		DNSStart: func(_ httptrace.DNSStartInfo) {
			dnsStart = time.Now()
		},
		DNSDone: func(_ httptrace.DNSDoneInfo) {
			timings.dns = time.Since(dnsStart)
		},
		TLSHandshakeStart: func() {
			tlsStart = time.Now()
		},
		TLSHandshakeDone: func(_ tls.ConnectionState, _ error) {
			timings.tls = time.Since(tlsStart)
		},
		ConnectStart: func(_, _ string) {
			connStart = time.Now()
		},
		ConnectDone: func(_, _ string, _ error) {
			timings.conn = time.Since(connStart)
		},
		GotFirstResponseByte: func() {
			timings.firstByte = time.Since(*requestStart)
		},
	}
}

// processCookies handles cookie updates from response headers
func processCookies(response *http.Response, cookies *map[string]string) {
	if cookies == nil {
		return
	}

	cookieMap := *cookies
	for _, cookie := range response.Cookies() {
		cookieMap[cookie.Name] = cookie.Value
	}

	for _, headerName := range []string{"Cookie", "Set-Cookie"} {
		header := response.Header.Get(headerName)
		for _, pair := range strings.Split(header, ";") {
			pair = strings.TrimSpace(pair)
			parts := strings.Split(pair, "=")
			if len(parts) == 2 {
				cookieMap[parts[0]] = parts[1]
			}
		}
	}

	*cookies = cookieMap
}

// enhanceConnectionError adds detailed context to common connection errors
func enhanceConnectionError(err error) error {
	if strings.Contains(err.Error(), "EOF") {
		return fmt.Errorf("connection closed unexpectedly before receiving response: %w (possible causes: network issues, server timeout, or firewall blocking)", err)
	} else if strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline exceeded") {
		return fmt.Errorf("request timed out: %w (possible causes: slow network, server overload, or request too large)", err)
	} else if strings.Contains(err.Error(), "connection refused") {
		return fmt.Errorf("connection refused: %w (possible causes: server down, incorrect URL, or firewall blocking)", err)
	}
	return fmt.Errorf("connection error: %w (no response received from server, status code 0)", err)
}

// metricsEndpoint strips the query string so bids filters do not explode
// the metric label set.
func metricsEndpoint(endpoint Endpoint) string {
	s := string(endpoint)
	if i := strings.IndexByte(s, '?'); i >= 0 {
		return s[:i]
	}
	return s
}

// GetRequest does a GET request to the given endpoint, with optional header and cookies
func GetRequest[R any](ctx context.Context, endpoint Endpoint, header map[string]string, cookies *map[string]string, insecureTLS bool, apiURL string, logger *zap.SugaredLogger) (result *R, responseErr error, statusCode int) {
	return doRequest[R, struct{}](ctx, http.MethodGet, endpoint, nil, header, cookies, insecureTLS, apiURL, logger)
}

// PostRequest does a POST request to the given endpoint, with optional header and cookies
// Note: Cookies will be updated with the response cookies, if not nil
func PostRequest[R any, T any](ctx context.Context, endpoint Endpoint, data *T, header map[string]string, cookies *map[string]string, insecureTLS bool, apiURL string, logger *zap.SugaredLogger) (result *R, responseErr error, statusCode int) {
	return doRequest[R, T](ctx, http.MethodPost, endpoint, data, header, cookies, insecureTLS, apiURL, logger)
}

// PutRequest does a PUT request to the given endpoint, with optional header and cookies
func PutRequest[R any, T any](ctx context.Context, endpoint Endpoint, data *T, header map[string]string, cookies *map[string]string, insecureTLS bool, apiURL string, logger *zap.SugaredLogger) (result *R, responseErr error, statusCode int) {
	return doRequest[R, T](ctx, http.MethodPut, endpoint, data, header, cookies, insecureTLS, apiURL, logger)
}

func doRequest[R any, T any](ctx context.Context, method string, endpoint Endpoint, data *T, header map[string]string, cookies *map[string]string, insecureTLS bool, apiURL string, logger *zap.SugaredLogger) (result *R, responseErr error, statusCode int) {
	// Set up context with default 30 second timeout if none provided
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
	}

	url := apiURL + string(endpoint)

	var bodyReader io.Reader
	if data != nil {
		body, err := safejson.Marshal(data)
		if err != nil {
			return nil, err, 0
		}
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err, 0
	}

	req.Header.Set("Content-Type", "application/json")
	if header != nil {
		for k, v := range header {
			req.Header.Set(k, v)
		}
	}

	if cookies != nil {
		for k, v := range *cookies {
			req.AddCookie(&http.Cookie{Name: k, Value: v})
		}
	}

	// Setup request tracing
	var requestStart time.Time
	var timings struct {
		firstByte, dns, tls, conn time.Duration
	}
	trace := setupClientTrace(&requestStart, &timings)

	// Send request
	requestStart = time.Now()
	response, err := GetClient(insecureTLS).Do(req.WithContext(httptrace.WithClientTrace(req.Context(), trace)))
	if err != nil {
		if response != nil {
			return nil, err, response.StatusCode
		}
		// Enhance error message for connection failures
		return nil, enhanceConnectionError(err), 0
	}
	defer func() {
		if err := response.Body.Close(); err != nil {
			if responseErr != nil {
				// If we already have an error, just log this one
				logger.Errorf("Error closing response body: %v", err)
			} else {
				// No previous error, so return this one
				responseErr = fmt.Errorf("error closing response body: %w", err)
			}
		}
	}()

	// Record latencies
	now := time.Now()
	latenciesFRB.Set(now, timings.firstByte)
	latenciesDNS.Set(now, timings.dns)
	latenciesTLS.Set(now, timings.tls)
	latenciesConn.Set(now, timings.conn)
	metrics.ObserveRequestDuration(method, metricsEndpoint(endpoint), time.Since(requestStart).Seconds())

	bodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err, response.StatusCode
	}

	if response.StatusCode < 200 || response.StatusCode > 399 {
		metrics.IncErrorCount(metrics.ComponentAPIClient)
		if response.StatusCode == http.StatusUnauthorized {
			return nil, ErrUnauthorized, response.StatusCode
		}
		return nil, &APIError{Status: response.StatusCode, Body: bodyBytes}, response.StatusCode
	}

	if len(bodyBytes) == 0 {
		processCookies(response, cookies)
		return nil, nil, response.StatusCode
	}

	var typedResult R
	if err := safejson.Unmarshal(bodyBytes, &typedResult); err != nil {
		return nil, err, response.StatusCode
	}

	processCookies(response, cookies)

	statusCode = response.StatusCode
	result = &typedResult
	return
}
