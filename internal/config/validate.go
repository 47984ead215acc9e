package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDownloader(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return errors.New("paths.cache_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateDownloader() error {
	if c.Downloader.Workers < 1 {
		return errors.New("downloader.workers must be at least 1")
	}
	if c.Downloader.RequestTimeout < 1 {
		return errors.New("downloader.request_timeout must be at least 1 second")
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.RemoteURL == "" {
		return errors.New("session.remote_url is required. Set DECKHAND_WEBDRIVER_URL or edit the config file (create with 'deckhand config init')")
	}
	if _, err := url.Parse(c.Session.RemoteURL); err != nil {
		return fmt.Errorf("session.remote_url: %w", err)
	}
	if c.Session.StartURL == "" {
		return errors.New("session.start_url must be set")
	}
	if c.Session.BusyTimeout < 1 {
		return errors.New("session.busy_timeout must be at least 1 second")
	}
	switch c.Session.Browser {
	case "chrome", "firefox", "edge":
	default:
		return fmt.Errorf("session.browser: unsupported value %q", c.Session.Browser)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "text", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
