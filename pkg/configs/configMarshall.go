package configs

import (
	"fmt"
	"time"
)

type Marshalled[S any] interface {
	trySeal(string) S
}

// seal marshalled object.
//
// this function CAN CAUSE PANIC if misconfiguration is found.
//
// All types named `pkg/configs.XxxMarshall` are `Marshalled[*Xxx]` .
func TrySeal[S any](conf Marshalled[S]) S {
	return conf.trySeal("(root)")
}

type ServerConfigMarshall struct {
	Port     int32                   `yaml:"port"`
	Database *DatabaseConfigMarshall `yaml:"database"`
	Auth     *AuthConfigMarshall     `yaml:"auth"`
	Cache    *CacheConfigMarshall    `yaml:"cache,omitempty"`
}

var _ Marshalled[*ServerConfig] = &ServerConfigMarshall{}

func (s *ServerConfigMarshall) trySeal(path string) *ServerConfig {
	cache := s.Cache
	if cache == nil {
		cache = &CacheConfigMarshall{}
	}
	return &ServerConfig{
		port:     required(s.Port, path+".port"),
		database: nonnil(s.Database, path+".database").trySeal(path + ".database"),
		auth:     nonnil(s.Auth, path+".auth").trySeal(path + ".auth"),
		cache:    cache.trySeal(path + ".cache"),
	}
}

type DatabaseConfigMarshall struct {
	URL          string `yaml:"url"`
	ReplicaURL   string `yaml:"replicaUrl,omitempty"`
	AutoMigrate  bool   `yaml:"autoMigrate,omitempty"`
	ParallelLoad bool   `yaml:"parallelLoad,omitempty"`
}

func (d *DatabaseConfigMarshall) trySeal(path string) *DatabaseConfig {
	return &DatabaseConfig{
		url:          required(d.URL, path+".url"),
		replicaURL:   d.ReplicaURL,
		autoMigrate:  d.AutoMigrate,
		parallelLoad: d.ParallelLoad,
	}
}

type AuthConfigMarshall struct {
	SignKey       string `yaml:"signKey"`
	TokenLifetime string `yaml:"tokenLifetime,omitempty"`
}

func (a *AuthConfigMarshall) trySeal(path string) *AuthConfig {
	lifetime := 8 * time.Hour
	if a.TokenLifetime != "" {
		parsed, err := time.ParseDuration(a.TokenLifetime)
		if err != nil {
			panic(fmt.Errorf("%s.tokenLifetime can not be parsed: %w", path, err))
		}
		lifetime = parsed
	}
	return &AuthConfig{
		signKey:       required(a.SignKey, path+".signKey"),
		tokenLifetime: lifetime,
	}
}

type CacheConfigMarshall struct {
	Records   int `yaml:"records,omitempty"`
	QuerySets int `yaml:"querySets,omitempty"`
}

func (c *CacheConfigMarshall) trySeal(path string) *CacheConfig {
	records := c.Records
	if records == 0 {
		records = 4096
	}
	querySets := c.QuerySets
	if querySets == 0 {
		querySets = 256
	}
	if records < 0 || querySets < 0 {
		panic(path + " sizes can not be negative")
	}
	return &CacheConfig{
		records:   records,
		querySets: querySets,
	}
}

func nonnil[T any](v *T, path string) *T {
	if v == nil {
		panic(path + " is required")
	}
	return v
}

func required[T comparable](v T, path string) T {
	if v == *new(T) {
		panic(path + " is required")
	}
	return v
}
