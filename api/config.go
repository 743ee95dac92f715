package api

import "errors"

type CORSConfig struct {
	TrustedOrigins []string `yaml:"trusted_origins"`
}

type Config struct {
	Addr         string     `yaml:"addr"`
	CertFile     string     `yaml:"cert_file"`
	KeyFile      string     `yaml:"key_file"`
	CORS         CORSConfig `yaml:"cors"`
	HistoryLimit int        `yaml:"history_limit"`
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("api server address is required")
	}

	if c.HistoryLimit < 0 {
		return errors.New("api history limit cannot be negative")
	}

	return nil
}
