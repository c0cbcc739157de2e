package identity

import "time"

// RuntimeConfig is a plain Config implementation for hosts that load
// settings from their own environment or file layer.
type RuntimeConfig struct {
	AccessSigningKey  string
	RefreshSigningKey string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	Issuer            string
	Audience          []string
	OtpLength         int
	OtpTTL            time.Duration
}

var _ Config = (*RuntimeConfig)(nil)

func (c *RuntimeConfig) GetAccessSigningKey() string { return c.AccessSigningKey }

func (c *RuntimeConfig) GetRefreshSigningKey() string { return c.RefreshSigningKey }

func (c *RuntimeConfig) GetAccessTokenTTL() time.Duration {
	if c.AccessTokenTTL <= 0 {
		return 15 * time.Minute
	}
	return c.AccessTokenTTL
}

func (c *RuntimeConfig) GetRefreshTokenTTL() time.Duration {
	if c.RefreshTokenTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.RefreshTokenTTL
}

func (c *RuntimeConfig) GetIssuer() string { return c.Issuer }

func (c *RuntimeConfig) GetAudience() []string { return c.Audience }

func (c *RuntimeConfig) GetOtpLength() int {
	if c.OtpLength <= 0 {
		return DefaultOtpLength
	}
	return c.OtpLength
}

func (c *RuntimeConfig) GetOtpTTL() time.Duration {
	if c.OtpTTL <= 0 {
		return DefaultOtpTTL
	}
	return c.OtpTTL
}
