// Package csrf reads the anti-forgery token the backend keeps in a cookie.
package csrf

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/apperr"
)

// NewJar returns a cookie jar scoped with the public suffix list.
func NewJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return jar, nil
}

// Seed stores a cookie for base, used to resume an existing backend session.
func Seed(jar http.CookieJar, base *url.URL, name, value string) {
	if value == "" {
		return
	}
	jar.SetCookies(base, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}

type Accessor struct {
	jar    http.CookieJar
	base   *url.URL
	cookie string
}

func NewAccessor(jar http.CookieJar, base *url.URL, cookie string) *Accessor {
	return &Accessor{jar: jar, base: base, cookie: cookie}
}

// Token returns the decoded token, or "" when the backend has not set it yet.
func (a *Accessor) Token() string {
	return CookieValue(a.jar, a.base, a.cookie)
}

// Prime asks the backend for a page so it can set the token cookie. It is a
// no-op once the cookie is present.
func (a *Accessor) Prime(ctx context.Context, httpClient *http.Client) error {
	if a.Token() != "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base.ResolveReference(&url.URL{Path: "/"}).String(), nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return &apperr.NetworkError{Op: "csrf.prime", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// CookieValue finds name among the cookies jar would send to base.
func CookieValue(jar http.CookieJar, base *url.URL, name string) string {
	for _, c := range jar.Cookies(base) {
		if c.Name != name {
			continue
		}
		// cookie values may be percent-encoded; '+' stays literal
		v, err := url.PathUnescape(c.Value)
		if err != nil {
			return c.Value
		}
		return v
	}
	return ""
}
