// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jcodagnone/csvgeo/spatial"
	"github.com/jcodagnone/csvgeo/utils/httputils"
	"googlemaps.github.io/maps"
)

// ProviderOptions configures the Google Maps provider.
type ProviderOptions struct {
	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool

	// BaseURL overrides the Maps API endpoint
	BaseURL string

	// Timeout bounds every request. Zero means no timeout.
	Timeout time.Duration
}

// GoogleMapsProvider uses the Google Maps Geocoding API.
type GoogleMapsProvider struct {
	client *maps.Client
}

// NewGoogleMapsProvider creates a new Google Maps provider.
func NewGoogleMapsProvider(apiKey string, options *ProviderOptions) (*GoogleMapsProvider, error) {
	if options == nil {
		options = &ProviderOptions{}
	}

	var httpLogWriter io.Writer
	if options.EnableHTTPTrace || options.EnableHTTPBodyTrace {
		httpLogWriter = os.Stderr
	}

	userAgent := "csvgeo/unknown"
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	httpClient := &http.Client{
		Timeout: options.Timeout,
		Transport: &httputils.AppendRequestHeadersRoundTripper{
			Headers: map[string]string{"User-Agent": userAgent},
			Transport: &httputils.LoggingRoundTripper{
				Writer:    httpLogWriter,
				DumpBody:  options.EnableHTTPBodyTrace,
				Transport: http.DefaultTransport,
			},
		},
	}

	clientOptions := []maps.ClientOption{
		maps.WithAPIKey(apiKey),
		maps.WithHTTPClient(httpClient),
	}
	if options.BaseURL != "" {
		clientOptions = append(clientOptions, maps.WithBaseURL(options.BaseURL))
	}

	client, err := maps.NewClient(clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("creating maps client: %w", err)
	}

	return &GoogleMapsProvider{client: client}, nil
}

// Geocode implements Provider. Region and viewport are sent as biases, never
// as component filters.
func (g *GoogleMapsProvider) Geocode(ctx context.Context, query string, bias Bias) ([]Result, error) {
	req := &maps.GeocodingRequest{
		Address: query,
		Region:  bias.Region,
	}

	if bias.Viewport != nil {
		req.Bounds = &maps.LatLngBounds{
			NorthEast: maps.LatLng{Lat: bias.Viewport.NorthEast.Lat, Lng: bias.Viewport.NorthEast.Lng},
			SouthWest: maps.LatLng{Lat: bias.Viewport.SouthWest.Lat, Lng: bias.Viewport.SouthWest.Lng},
		}
	}

	resp, err := g.client.Geocode(ctx, req)
	if err != nil {
		if strings.Contains(err.Error(), "ZERO_RESULTS") {
			return nil, nil
		}

		// transport errors carry the request URL, API key included
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = httputils.RedactSecrets(urlErr.URL)
		}

		if msg := httputils.RedactSecrets(err.Error()); msg != err.Error() {
			err = &redactedError{msg: msg, err: err}
		}

		if errors.Is(err, context.Canceled) {
			return nil, err
		}

		return nil, ClassifyStatusError(err)
	}

	results := make([]Result, 0, len(resp))
	for _, r := range resp {
		results = append(results, Result{
			Location:         spatial.Point{Lat: r.Geometry.Location.Lat, Lng: r.Geometry.Location.Lng},
			FormattedAddress: r.FormattedAddress,
		})
	}

	// only the first result is ever used; an unusable one counts as no result
	if len(results) > 0 {
		if err := results[0].Location.Validate(); err != nil {
			log.Printf("⚠️ Ignoring result %q for %q: %v", results[0].FormattedAddress, query, err)

			return nil, nil
		}
	}

	return results, nil
}

// redactedError hides credentials from the message of the error it wraps.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }
