package middleware

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(r *http.Request)
		fallback string
		country  string
		want     string
	}{
		{
			name: "x-locale overrides",
			setup: func(r *http.Request) {
				r.Header.Set("X-Locale", "fr-FR")
			},
			country: "US",
			want:    "fr",
		},
		{
			name: "accept-language matched",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "es-MX,es;q=0.9,en;q=0.5")
			},
			want: "es",
		},
		{
			name: "unsupported accept-language falls through to country",
			setup: func(r *http.Request) {
				r.Header.Set("Accept-Language", "zz")
			},
			country: "JP",
			want:    "ja",
		},
		{
			name:    "country mapping",
			country: "ID",
			want:    "id",
		},
		{
			name:     "configured fallback",
			fallback: "de",
			want:     "de",
		},
		{
			name: "default to en",
			want: "en",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.setup != nil {
				tc.setup(req)
			}
			if got := detectLocale(req, tc.fallback, tc.country); got != tc.want {
				t.Fatalf("detectLocale() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLocaleMiddlewareStoresContextValues(t *testing.T) {
	var gotLocale, gotCountry string
	handler := Locale("en", func(ip string) (string, error) {
		return "FR", nil
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLocale = LocaleFromContext(r.Context())
		gotCountry = CountryFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.1:1234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotCountry != "FR" {
		t.Fatalf("country = %q, want FR", gotCountry)
	}
	if gotLocale != "fr" {
		t.Fatalf("locale = %q, want fr (mapped from country)", gotLocale)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		remoteAddr string
		want       string
	}{
		{
			name:       "forwarded header wins",
			header:     "203.0.113.1, 198.51.100.2",
			remoteAddr: "198.51.100.10:1234",
			want:       "203.0.113.1",
		},
		{
			name:       "remote host fallback",
			remoteAddr: "198.51.100.10:1234",
			want:       "198.51.100.10",
		},
		{
			name:       "ipv6 remote",
			remoteAddr: net.JoinHostPort("2001:db8::2", "443"),
			want:       "2001:db8::2",
		},
		{
			name:       "remote without port",
			remoteAddr: "203.0.113.1",
			want:       "203.0.113.1",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remoteAddr
			if tc.header != "" {
				req.Header.Set("X-Forwarded-For", tc.header)
			}
			if got := ClientIP(req); got != tc.want {
				t.Fatalf("ClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}
