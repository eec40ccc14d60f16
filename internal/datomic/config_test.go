package datomic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patomic/internal/errs"
)

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{ServerURL: "http://localhost", Port: 9998, Storage: "MEM", Alias: "dev"}
	}

	t.Run("valid config folds storage", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "mem", cfg.Storage)
	})

	t.Run("empty storage defaults", func(t *testing.T) {
		cfg := valid()
		cfg.Storage = ""
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DefaultStorage, cfg.Storage)
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		kind   error
		msg    string
	}{
		{"empty url", func(c *Config) { c.ServerURL = " " }, errs.ErrMissingArgument, "serverUrl must be a non-empty string"},
		{"zero port", func(c *Config) { c.Port = 0 }, errs.ErrWrongType, "port must be an integer between 1 and 65535"},
		{"port too large", func(c *Config) { c.Port = 70000 }, errs.ErrWrongType, "got 70000"},
		{"unknown storage", func(c *Config) { c.Storage = "riak" }, errs.ErrInvalidEnum, "storage must be one of the following [mem, dev, sql, inf, ddb]"},
		{"empty alias", func(c *Config) { c.Alias = "" }, errs.ErrMissingArgument, "alias must be a non-empty string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errs.Is(err, tt.kind))
			assert.Contains(t, err.Error(), "datomic.New")
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestConfigURLs(t *testing.T) {
	cfg := Config{ServerURL: "http://localhost/", Port: 9998, Alias: "dev"}
	assert.Equal(t, "http://localhost:9998/data/", cfg.DataURL())
	assert.Equal(t, "http://localhost:9998/api/query", cfg.APIURL())
}
