package config

import (
	"sync"
)

const (
	// ConfigMapName is the ConfigMap holding the proxy configuration
	ConfigMapName = "pgbouncer-config"

	// IniKey is the ConfigMap data field holding the pgbouncer.ini text
	IniKey = "pgbouncer.ini"
)

// FetchFunc retrieves the proxy configuration text from the cluster
type FetchFunc func() (string, error)

// Source fetches the pgbouncer.ini text once per run and shares it across
// the configuration checks. Both checks grade the same buffer; the cluster
// is asked only once.
type Source struct {
	fetch FetchFunc

	once sync.Once
	text string
	err  error
}

// NewSource creates a shared configuration source
func NewSource(fetch FetchFunc) *Source {
	return &Source{fetch: fetch}
}

// Text returns the proxy configuration text, fetching it on first use
func (s *Source) Text() (string, error) {
	s.once.Do(func() {
		s.text, s.err = s.fetch()
	})
	return s.text, s.err
}
