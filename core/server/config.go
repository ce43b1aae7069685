package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API. Empty disables auth.
	ApiKey string `mapstructure:"api_key" default:""`
	// RateLimit is the sustained requests per second allowed per client IP on
	// snapshot routes.
	RateLimit float64 `mapstructure:"rate_limit" default:"1"`
	// RateBurst is the burst size allowed on top of RateLimit.
	RateBurst int `mapstructure:"rate_burst" default:"3"`
	// BodyLimitMB caps the size of uploaded snapshot documents.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"64"`
}

// Addr returns the listen address for the configured port.
func (c Config) Addr() string {
	if c.Port == "" {
		return ":8080"
	}
	return ":" + c.Port
}

// BodyLimit returns the request body limit in bytes.
func (c Config) BodyLimit() int {
	if c.BodyLimitMB <= 0 {
		return 64 * 1024 * 1024
	}
	return c.BodyLimitMB * 1024 * 1024
}
