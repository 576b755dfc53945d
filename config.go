package console

import (
	"strings"
	"time"
)

// SimpleConfig is the default Config implementation.
type SimpleConfig struct {
	BaseURL          string
	RequestTimeout   time.Duration
	LoginPath        string
	LandingPath      string
	RejectedRouteKey string
	AuthScheme       string
}

var _ Config = (*SimpleConfig)(nil)

type ConfigOption func(*SimpleConfig)

// NewConfig builds a config pointing at the given API base URL, e.g.
// "https://resqlink.example.com/api".
func NewConfig(baseURL string, opts ...ConfigOption) *SimpleConfig {
	c := &SimpleConfig{
		BaseURL:          strings.TrimRight(baseURL, "/"),
		RequestTimeout:   30 * time.Second,
		LoginPath:        "/login",
		LandingPath:      "/dashboard",
		RejectedRouteKey: "rejected_route",
		AuthScheme:       "Bearer",
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *SimpleConfig) {
		if d > 0 {
			c.RequestTimeout = d
		}
	}
}

func WithLoginPath(path string) ConfigOption {
	return func(c *SimpleConfig) {
		if path != "" {
			c.LoginPath = path
		}
	}
}

func WithLandingPath(path string) ConfigOption {
	return func(c *SimpleConfig) {
		if path != "" {
			c.LandingPath = path
		}
	}
}

func WithRejectedRouteKey(key string) ConfigOption {
	return func(c *SimpleConfig) {
		if key != "" {
			c.RejectedRouteKey = key
		}
	}
}

func (c *SimpleConfig) GetBaseURL() string { return c.BaseURL }

func (c *SimpleConfig) GetRequestTimeout() time.Duration { return c.RequestTimeout }

func (c *SimpleConfig) GetLoginPath() string { return c.LoginPath }

func (c *SimpleConfig) GetLandingPath() string { return c.LandingPath }

func (c *SimpleConfig) GetRejectedRouteKey() string { return c.RejectedRouteKey }

func (c *SimpleConfig) GetAuthScheme() string { return c.AuthScheme }
