// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	applog "github.com/W47K3R9/SpectralDev/internal/log"
)

// Load reads configuration from a YAML file at path. An empty path
// searches the default locations; if no file is found the built-in
// defaults are used. Environment overrides are applied after the file
// and the result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{
			"spectraldev.yaml",
			"config.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides layers SPCT_* environment variables over whatever
// the file provided. Unparseable values are ignored with a warning.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("SPCT_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
			applog.Infof("Config: overriding debug from env: %v", bVal)
		} else {
			applog.Warnf("Config: ignoring SPCT_DEBUG=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("SPCT_LOG_LEVEL"); ok {
		c.LogLevel = val
		applog.Infof("Config: overriding log_level from env: %s", val)
	}
	if val, ok := os.LookupEnv("SPCT_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = bVal
			applog.Infof("Config: overriding transport.udp_enabled from env: %v", bVal)
		} else {
			applog.Warnf("Config: ignoring SPCT_UDP_ENABLED=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("SPCT_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
		applog.Infof("Config: overriding transport.udp_target_address from env: %s", val)
	}
	if val, ok := os.LookupEnv("SPCT_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = dur
			applog.Infof("Config: overriding transport.udp_send_interval from env: %s", dur)
		} else {
			applog.Warnf("Config: ignoring SPCT_UDP_SEND_INTERVAL=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("SPCT_WS_LISTEN_ADDRESS"); ok {
		c.Transport.WSListenAddress = val
		c.Transport.WSEnabled = true
		applog.Infof("Config: overriding transport.ws_listen_address from env: %s", val)
	}
}
