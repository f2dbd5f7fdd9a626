package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var validSorts = map[string]struct{}{
	"newest":   {},
	"priority": {},
	"risk":     {},
	"score":    {},
}

var validLogFormats = map[string]struct{}{
	"console": {},
	"json":    {},
}

// Validate checks the configuration for values that would prevent startup.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.StateDir) == "" {
		problems = append(problems, "paths.state_dir must be set")
	}

	if base := strings.TrimSpace(c.Gateway.BaseURL); base != "" {
		parsed, err := url.Parse(base)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			problems = append(problems, fmt.Sprintf("gateway.base_url %q is not a valid URL", base))
		}
	}

	if _, ok := validSorts[c.Engine.DefaultSort]; !ok {
		problems = append(problems, fmt.Sprintf("engine.default_sort %q is not one of newest, priority, risk, score", c.Engine.DefaultSort))
	}

	if _, ok := validLogFormats[c.Logging.Format]; !ok {
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
