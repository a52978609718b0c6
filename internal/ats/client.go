// Package ats is a client for a PCRecruiter-style applicant tracking system.
// It owns the session-token lifecycle and translates the remote
// activity/pipeline-interview object graph into flat candidate lists.
package ats

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAPIURL         = "https://www2.pcrecruiter.net/rest/api"
	defaultSessionTimeout = 60 * time.Minute
	// Max page size accepted by the list endpoints.
	perPage = 100
)

// Credentials identify the ATS database and API application.
type Credentials struct {
	DatabaseID string
	Username   string
	Password   string
	APIKey     string
}

type Client struct {
	// ctx is used only for http requests.
	ctx    context.Context
	creds  Credentials
	logger *zap.Logger

	HTTPClient *http.Client
	APIURL     string
	// TokenFile persists the session across process starts. Empty disables
	// persistence.
	TokenFile string
	// SessionTimeout is the lifetime assigned to freshly issued tokens.
	SessionTimeout time.Duration

	session *session
	now     func() time.Time
}

func New(ctx context.Context, logger *zap.Logger, creds Credentials) *Client {
	return &Client{
		ctx:    ctx,
		creds:  creds,
		logger: logger,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		APIURL:         defaultAPIURL,
		SessionTimeout: defaultSessionTimeout,
		now:            time.Now,
	}
}

// LoadSession restores a persisted session token from TokenFile, if any.
func (c *Client) LoadSession() {
	if s := loadSession(c.TokenFile); s != nil && s.validAt(c.now()) {
		c.session = s
		c.logger.Debug("reusing persisted session", zap.Time("expires_at", s.ExpiresAt))
	}
}

// Authenticate obtains a session token. When force is false and the current
// session is still outside the refresh margin, it is kept.
func (c *Client) Authenticate(force bool) error {
	if !force && c.session.validAt(c.now()) {
		return nil
	}

	q := url.Values{}
	q.Set("DatabaseId", c.creds.DatabaseID)
	q.Set("Username", c.creds.Username)
	q.Set("Password", c.creds.Password)
	q.Set("ApiKey", c.creds.APIKey)
	q.Set("AppId", c.creds.APIKey)

	var resp struct {
		SessionID string `json:"SessionId"`
	}
	if err := c.doJSON(http.MethodGet, "/access-token", q, nil, &resp, false); err != nil {
		return err
	}

	if resp.SessionID == "" {
		return &AuthError{Msg: "no session token in response"}
	}

	c.session = &session{
		Token:     resp.SessionID,
		ExpiresAt: c.now().Add(c.SessionTimeout),
	}

	if err := saveSession(c.TokenFile, c.session); err != nil {
		c.logger.Warn("persisting session token", zap.Error(err))
	}

	c.logger.Debug("authenticated", zap.Time("expires_at", c.session.ExpiresAt))
	return nil
}

// EnsureAuthenticated authenticates when there is no session or the current
// one is within the refresh margin of expiry.
func (c *Client) EnsureAuthenticated() error {
	if c.session.validAt(c.now()) {
		return nil
	}
	return c.Authenticate(true)
}

// TestConnection authenticates and reports whether the API is reachable.
func (c *Client) TestConnection() error {
	return c.Authenticate(true)
}
