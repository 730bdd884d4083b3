package verygoods

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	// TokenCookieName is the long-lived login cookie
	TokenCookieName = "remember_token"
	// SessionCookieName is the session cookie
	SessionCookieName = "session"
)

// Authentication holds the cookies that identify a signed-in user
type Authentication struct {
	Username string
	Token    *http.Cookie
	Session  *http.Cookie
}

// Expired reports whether either cookie has a known expiry in the past
func (a *Authentication) Expired(now time.Time) bool {
	for _, c := range []*http.Cookie{a.Token, a.Session} {
		if c != nil && !c.Expires.IsZero() && c.Expires.Before(now) {
			return true
		}
	}
	return false
}

// apply adds the authentication cookies to req
func (a *Authentication) apply(req *http.Request) {
	for _, c := range []*http.Cookie{a.Token, a.Session} {
		if c != nil {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
}

// Login signs in with a username and password. The login page is loaded
// first to obtain a CSRF token and the cookies it is bound to; redirects are
// not followed so the cookies set by the login response can be read.
func (c *Client) Login(ctx context.Context, username, password string) (*Authentication, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	loginClient := *c.httpClient
	loginClient.Jar = jar
	loginClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	loginURL := c.siteURLFor("login")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.doWith(&loginClient, req)
	if err != nil {
		return nil, fmt.Errorf("failed to load login page: %w", err)
	}

	csrfToken, err := parseCSRFToken(resp.body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse login page: %w", err)
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("_csrf_token", csrfToken)
	form.Set("next", "")

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, loginURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", loginURL)

	resp, err = c.doWith(&loginClient, req)
	if err != nil {
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	auth := &Authentication{Username: username}
	for _, cookie := range resp.cookies() {
		switch cookie.Name {
		case TokenCookieName:
			auth.Token = cookie
		case SessionCookieName:
			auth.Session = cookie
		}
	}

	if auth.Token == nil {
		return nil, ErrTokenCookieNotFound
	}
	if auth.Session == nil {
		return nil, ErrSessionCookieNotFound
	}

	c.logger.Info().Str("username", username).Msg("Logged in to Very Goods")
	return auth, nil
}
