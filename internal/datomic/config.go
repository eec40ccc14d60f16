package datomic

import (
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/patomic/internal/errs"
)

// StorageTypes are the storage protocols a peer can be started with.
var StorageTypes = []string{"mem", "dev", "sql", "inf", "ddb"}

// DefaultStorage is used when Config.Storage is empty.
const DefaultStorage = "mem"

// Config locates a REST peer and the storage alias it serves.
type Config struct {
	ServerURL string
	Port      int
	Storage   string
	Alias     string
}

// Validate checks every field and normalizes Storage.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ServerURL) == "" {
		return errs.Validation("datomic.New", errs.ErrMissingArgument, "serverUrl must be a non-empty string")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errs.Validation("datomic.New", errs.ErrWrongType, "port must be an integer between 1 and 65535, got %d", c.Port)
	}
	if strings.TrimSpace(c.Storage) == "" {
		c.Storage = DefaultStorage
	}
	storage := lower(c.Storage)
	if !slices.Contains(StorageTypes, storage) {
		return errs.Validation("datomic.New", errs.ErrInvalidEnum, "storage must be one of the following [%s]", strings.Join(StorageTypes, ", "))
	}
	c.Storage = storage
	if strings.TrimSpace(c.Alias) == "" {
		return errs.Validation("datomic.New", errs.ErrMissingArgument, "alias must be a non-empty string")
	}
	return nil
}

func (c Config) base() string {
	return strings.TrimRight(c.ServerURL, "/:") + ":" + strconv.Itoa(c.Port)
}

// DataURL is the root of the database and transaction endpoints.
func (c Config) DataURL() string { return c.base() + "/data/" }

// APIURL is the query endpoint.
func (c Config) APIURL() string { return c.base() + "/api/query" }

// lower folds s with a fresh Caser; Casers are stateful.
func lower(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}
