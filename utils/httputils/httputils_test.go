// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
)

// dummyRoundTripper records the request and answers with a canned body.
type dummyRoundTripper struct {
	lastRequest *http.Request
	body        string
}

func (d *dummyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	d.lastRequest = req

	return &http.Response{
		Status:     "200 OK",
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(d.body)),
	}, nil
}

func TestLoggingRoundTripper(t *testing.T) {
	var logBuffer bytes.Buffer

	lt := &LoggingRoundTripper{
		Transport: &dummyRoundTripper{body: `{"status":"OK"}`},
		Writer:    &logBuffer,
		DumpBody:  true,
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.com/maps/api/geocode/json?address=paris&key=AIzaSecret", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if _, err = lt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	logContent := logBuffer.String()
	if !strings.Contains(logContent, "> GET /maps/api/geocode/json?address=paris&key=REDACTED") {
		t.Errorf("log does not contain redacted request line. Got: %s", logContent)
	}

	if strings.Contains(logContent, "AIzaSecret") {
		t.Errorf("log leaks the API key. Got: %s", logContent)
	}

	if !strings.Contains(logContent, "< RESPONSE: [") {
		t.Errorf("log does not contain response header with timing info. Got: %s", logContent)
	}

	if !strings.Contains(logContent, `{"status":"OK"}`) {
		t.Errorf("log does not contain response body. Got: %s", logContent)
	}
}

func TestLoggingRoundTripper_Disabled(t *testing.T) {
	dummy := &dummyRoundTripper{}
	lt := &LoggingRoundTripper{Transport: dummy}

	req, err := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if _, err = lt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	if dummy.lastRequest != req {
		t.Errorf("request was not forwarded untouched")
	}
}

func TestAbbreviate(t *testing.T) {
	long := strings.Repeat("x", 600)
	lines := abbreviate([]string{"GET /?a=1&signature=abc&b=2", long}, '>')

	if lines[0] != "> GET /?a=1&signature=REDACTED&b=2" {
		t.Errorf("unexpected first line %q", lines[0])
	}

	if got := len([]rune(lines[1])); got != 513 {
		t.Errorf("long line not truncated, got %d runes", got)
	}
}

func TestRedactSecrets(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			`Get "http://127.0.0.1:1/maps/api/geocode/json?address=paris&key=AIzaSECRET": dial tcp`,
			`Get "http://127.0.0.1:1/maps/api/geocode/json?address=paris&key=REDACTED": dial tcp`,
		},
		{"/json?key=AIza&client=gme-x&signature=s1", "/json?key=REDACTED&client=REDACTED&signature=REDACTED"},
		{"/json?address=monkey=1", "/json?address=monkey=1"},
		{"no url here", "no url here"},
	}

	for _, tt := range tests {
		if got := RedactSecrets(tt.in); got != tt.want {
			t.Errorf("RedactSecrets(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAppendRequestHeadersRoundTripper(t *testing.T) {
	dummy := &dummyRoundTripper{}

	atr := &AppendRequestHeadersRoundTripper{
		Transport: dummy,
		Headers:   map[string]string{"User-Agent": "csvgeo/test"},
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.org", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if _, err = atr.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	if dummy.lastRequest == nil {
		t.Fatalf("dummy transport did not receive any request")
	}

	if got := dummy.lastRequest.Header.Get("User-Agent"); got != "csvgeo/test" {
		t.Errorf("expected User-Agent 'csvgeo/test', got '%s'", got)
	}

	if req.Header.Get("User-Agent") != "" {
		t.Errorf("the caller's request was modified")
	}
}
