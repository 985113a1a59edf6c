// Package serversettings implements the ServerSetting data model and its
// reader-writer-guarded runtime wrapper: a plain YAML-backed value type plus
// a lock discipline for concurrent stage access.
package serversettings

import (
	"strings"
	"sync"

	"github.com/HasinZaman/pipelined-server/pkg/identifier"
)

// DomainPath describes, for a single virtual host, where its files live on
// disk and which file extensions may be served from that root. Extensions
// are stored lowercase and never contain a leading dot.
type DomainPath struct {
	Root             string          `yaml:"path"`
	AllowedExtension map[string]bool `yaml:"-"`
	Allow            []string        `yaml:"allow"`
}

// normalize lowercases and de-dots the configured allow list into
// AllowedExtension, the form consulted on every request.
func (d *DomainPath) normalize() {
	d.AllowedExtension = make(map[string]bool, len(d.Allow))
	for _, ext := range d.Allow {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		d.AllowedExtension[ext] = true
	}
}

// AllowsExtension reports whether the given extension (without a leading
// dot) is in this domain's allow-set. Matching is case-insensitive.
func (d *DomainPath) AllowsExtension(extension string) bool {
	return d.AllowedExtension[strings.ToLower(extension)]
}

// defaultSourceRoot is the fixed top-level directory every DomainPath.Root is
// resolved beneath, matching the file-layout convention of the system this
// server reimplements: a served path is never just a domain's configured
// root, it is always "source/<domain-root>/...".
const defaultSourceRoot = "source"

// ServerSetting is the root configuration value: a listen address, a port,
// and a mapping from virtual host name to its DomainPath.
type ServerSetting struct {
	Address string `yaml:"address"`
	Port    uint16 `yaml:"port"`
	// SourceRoot is the directory every DomainPath.Root is resolved
	// beneath. It defaults to "source", overridable (e.g. by tests that
	// need an isolated temp directory standing in for it) but otherwise
	// left untouched so deployments keep the conventional layout.
	SourceRoot string                 `yaml:"sourceRoot"`
	Paths      map[string]*DomainPath `yaml:"paths"`
}

// normalize prepares derived fields (lowercased extension sets) on every
// DomainPath and applies the default SourceRoot when unset.
func (s *ServerSetting) normalize() {
	if s.SourceRoot == "" {
		s.SourceRoot = defaultSourceRoot
	}
	for _, path := range s.Paths {
		path.normalize()
	}
}

// Lookup returns the DomainPath for a host name, if configured.
func (s *ServerSetting) Lookup(host string) (*DomainPath, bool) {
	path, ok := s.Paths[host]
	return path, ok
}

// Settings is a read-mostly, reader-writer-guarded handle to a
// ServerSetting. Stages take a read snapshot (via Snapshot) for the duration
// of processing a single queue item; a Reload call takes the write lock and
// replaces the underlying value wholesale.
type Settings struct {
	mu         sync.RWMutex
	value      *ServerSetting
	generation string
}

// NewSettings wraps an already-loaded ServerSetting.
func NewSettings(value *ServerSetting) *Settings {
	value.normalize()
	return &Settings{value: value, generation: newGeneration()}
}

// Generation returns the identifier assigned to the currently loaded
// ServerSetting. It changes on every successful Reload, so a log line that
// captures it can be correlated against the configuration that was active
// when a request was processed.
func (s *Settings) Generation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// newGeneration mints a fresh configuration-generation identifier, falling
// back to a fixed marker in the extremely unlikely event the system
// randomness source is unavailable.
func newGeneration() string {
	id, err := identifier.New(identifier.PrefixConfig)
	if err != nil {
		return identifier.PrefixConfig + "_unavailable"
	}
	return id
}

// Snapshot returns the current ServerSetting under a read lock. The caller
// must not retain the pointer past its current item's processing without
// re-snapshotting, since a concurrent Reload can replace it.
func (s *Settings) Snapshot() *ServerSetting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Reload replaces the underlying ServerSetting under a write lock and mints
// a new generation identifier for it.
func (s *Settings) Reload(value *ServerSetting) {
	value.normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	s.generation = newGeneration()
}
