package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

var supportedLocales = []language.Tag{
	language.English, // first entry is the matcher fallback
	language.Spanish,
	language.French,
	language.German,
	language.Indonesian,
	language.Japanese,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// countryLocales maps countries to a locale when the request carries no
// language hint of its own.
var countryLocales = map[string]string{
	"ES": "es", "MX": "es", "AR": "es", "CO": "es",
	"FR": "fr", "DE": "de", "AT": "de",
	"ID": "id", "JP": "ja",
}

// Locale detects the request locale from X-Locale, Accept-Language, or the
// request origin country, and stores both on the context. The locale feeds
// language hints into generation prompts.
func Locale(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := resolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, strings.ToUpper(country))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback, country string) string {
	if v := matchLocale(r.Header.Get("X-Locale")); v != "" {
		return v
	}
	if tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil && len(tags) > 0 {
		tag, _, conf := localeMatcher.Match(tags...)
		if conf > language.No {
			base, _ := tag.Base()
			return base.String()
		}
	}
	if v, ok := countryLocales[strings.ToUpper(country)]; ok {
		return v
	}
	if fallback != "" {
		return fallback
	}
	return "en"
}

func matchLocale(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	tag, err := language.Parse(raw)
	if err != nil {
		return ""
	}
	matched, _, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return ""
	}
	base, _ := matched.Base()
	return base.String()
}

func resolveCountry(r *http.Request, lookup CountryLookup) string {
	for _, key := range []string{"X-Country-Code", "CF-IPCountry", "X-Appengine-Country"} {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// LocaleFromContext returns the detected request locale, defaulting to "en".
func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return "en"
}

// CountryFromContext returns the ISO country code stored in the context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}
