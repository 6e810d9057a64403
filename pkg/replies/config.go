package replies

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultBaseURI   = "https://api.messagemedia.com"
	DefaultUserAgent = "replies-relay-go/1.0"
	DefaultTimeout   = 30 * time.Second
)

// Config holds the connection settings bound to a Client at construction.
type Config struct {
	BaseURI   string        `mapstructure:"base_uri"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// normalize applies defaults and validates the base URI and credentials.
func (c Config) normalize() (Config, error) {
	c.BaseURI = strings.TrimSpace(c.BaseURI)
	if c.BaseURI == "" {
		c.BaseURI = DefaultBaseURI
	}
	if _, err := CleanURL(c.BaseURI, ""); err != nil {
		return Config{}, err
	}

	c.Username = strings.TrimSpace(c.Username)
	if c.Username == "" {
		return Config{}, fmt.Errorf("replies: username is required")
	}
	if c.Password == "" {
		return Config{}, fmt.Errorf("replies: password is required")
	}

	c.UserAgent = strings.TrimSpace(c.UserAgent)
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c, nil
}
