package config

import (
	"errors"
	"fmt"
)

// Require reports every setting the server cannot start without.
func (c Config) Require() error {
	var errs []error
	missing := func(empty bool, env string) {
		if empty {
			errs = append(errs, fmt.Errorf("missing required env %s", env))
		}
	}
	missing(c.DatabaseURL == "", "DATABASE_URL")
	missing(len(c.JWTAccessSecret) == 0, "JWT_SECRET")
	missing(len(c.JWTRefreshSecret) == 0, "JWT_REFRESH_SECRET")
	if c.RateLimitRPS <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %d", c.RateLimitRPS))
	}
	return errors.Join(errs...)
}
