// Package configs loads the cdrd server configuration.
//
// Configuration values are read from yaml into mutable *Marshall types, then
// sealed into immutable accessor types. Sealing panics on misconfiguration so
// a broken config stops the server at startup, not mid-request.
package configs

import "time"

type ServerConfig struct {
	port     int32
	database *DatabaseConfig
	auth     *AuthConfig
	cache    *CacheConfig
}

func (c *ServerConfig) Port() int32 {
	return c.port
}

func (c *ServerConfig) Database() *DatabaseConfig {
	return c.database
}

func (c *ServerConfig) Auth() *AuthConfig {
	return c.auth
}

func (c *ServerConfig) Cache() *CacheConfig {
	return c.cache
}

type DatabaseConfig struct {
	url          string
	replicaURL   string
	autoMigrate  bool
	parallelLoad bool
}

// Connection string for the clinical database.
func (d *DatabaseConfig) URL() string {
	return d.url
}

// Connection string of the replica store receiving copy requests.
// Empty when no replica is attached; the copy endpoint then rejects
// requests.
func (d *DatabaseConfig) ReplicaURL() string {
	return d.replicaURL
}

// Whether cdrd upgrades the schema at startup.
func (d *DatabaseConfig) AutoMigrate() bool {
	return d.autoMigrate
}

// Whether full-depth reads hydrate collections concurrently.
func (d *DatabaseConfig) ParallelLoad() bool {
	return d.parallelLoad
}

type AuthConfig struct {
	signKey       string
	tokenLifetime time.Duration
}

// HS256 key used to sign and verify access tokens.
func (a *AuthConfig) SignKey() string {
	return a.signKey
}

// How long an issued token stays valid. default = 8h
func (a *AuthConfig) TokenLifetime() time.Duration {
	return a.tokenLifetime
}

type CacheConfig struct {
	records   int
	querySets int
}

// How many records the shared cache holds. default = 4096
func (c *CacheConfig) Records() int {
	return c.records
}

// How many frozen query result sets are retained. default = 256
func (c *CacheConfig) QuerySets() int {
	return c.querySets
}
