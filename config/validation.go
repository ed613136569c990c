package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// oneOf reports an error naming the allowed values when v is not among them.
func oneOf(field, v string, allowed ...string) error {
	if slices.Contains(allowed, v) {
		return nil
	}
	return fmt.Errorf("%s must be one of: %s", field, strings.Join(allowed, ", "))
}

func joinErrs(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errs, "; "))
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	var errs []string
	if s.Address == "" {
		errs = append(errs, "address cannot be empty")
	}
	timeouts := []struct {
		name string
		v    int64
	}{
		{"read_timeout", int64(s.ReadTimeout)},
		{"write_timeout", int64(s.WriteTimeout)},
		{"idle_timeout", int64(s.IdleTimeout)},
		{"read_header_timeout", int64(s.ReadHeaderTimeout)},
		{"shutdown_timeout", int64(s.ShutdownTimeout)},
	}
	for _, t := range timeouts {
		if t.v <= 0 {
			errs = append(errs, t.name+" must be positive")
		}
	}
	return joinErrs(errs)
}

// Validate validates storage configuration
func (s *StorageConfig) Validate() error {
	var errs []string
	if err := oneOf("adapter", s.Adapter, AdapterMemory, AdapterFile, AdapterRedis, AdapterSQL); err != nil {
		errs = append(errs, err.Error())
	}

	switch s.Adapter {
	case AdapterFile:
		if err := s.File.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("file config: %v", err))
		}
	case AdapterRedis:
		if s.Redis.Addr == "" {
			errs = append(errs, "redis config: addr cannot be empty")
		}
	case AdapterSQL:
		if err := s.SQL.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("sql config: %v", err))
		}
	}
	return joinErrs(errs)
}

// Validate validates file storage configuration
func (f *FileConfig) Validate() error {
	if f.Path == "" {
		return errors.New("path cannot be empty")
	}
	return nil
}

// Validate validates ranking configuration
func (r *RankingConfig) Validate() error {
	if strings.TrimSpace(r.RegistryKey) == "" {
		return errors.New("registry_key cannot be empty")
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	var errs []string
	if err := oneOf("level", l.Level, "debug", "info", "warn", "error"); err != nil {
		errs = append(errs, err.Error())
	}
	if err := oneOf("format", l.Format, "json", "text"); err != nil {
		errs = append(errs, err.Error())
	}
	if err := oneOf("output", l.Output, "stdout", "stderr"); err != nil {
		errs = append(errs, err.Error())
	}
	return joinErrs(errs)
}

// Validate validates security settings.
func (s SecurityConfig) Validate() error {
	var errs []string
	if s.EnableRateLimit {
		if s.RateLimit.RequestsPerMinute <= 0 {
			errs = append(errs, "rate_limit.requests_per_minute must be > 0 when rate limiting is enabled")
		}
		if s.RateLimit.BurstSize <= 0 {
			errs = append(errs, "rate_limit.burst_size must be > 0 when rate limiting is enabled")
		}
	}
	for i, key := range s.APIKeys {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, fmt.Sprintf("api_keys[%d] is empty", i))
		}
	}
	return joinErrs(errs)
}
