package channels

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed types.yaml
var defaultTypesYAML []byte

// ChannelType describes what the log display needs to know about a kind of
// channel.
type ChannelType struct {
	Code        string `yaml:"code"`
	Name        string `yaml:"name"`
	ErrorRefURL string `yaml:"error_ref_url"`

	// CredentialKeys are the config keys whose values are secrets that
	// must never appear in a displayed log.
	CredentialKeys []string `yaml:"credential_keys"`

	// RedactRequestKeys and RedactResponseKeys name body fields holding
	// contact data that anonymization masks.
	RedactRequestKeys  []string `yaml:"redact_request_keys"`
	RedactResponseKeys []string `yaml:"redact_response_keys"`
}

// ErrorRef resolves a provider error code to a documentation URL, or ""
// when the type has none.
func (t *ChannelType) ErrorRef(code string) string {
	if t.ErrorRefURL == "" {
		return ""
	}
	return strings.ReplaceAll(t.ErrorRefURL, "{code}", code)
}

// CredentialValues returns the non-empty secret values of ch's config.
func (t *ChannelType) CredentialValues(ch *Channel) []string {
	var values []string
	for _, key := range t.CredentialKeys {
		if v := ch.Config[key]; v != "" {
			values = append(values, v)
		}
	}
	return values
}

// unknownType is used for channels whose type isn't registered.
var unknownType = &ChannelType{Code: "", Name: "Unknown"}

// Registry holds channel types by code.
type Registry struct {
	types map[string]*ChannelType
}

// ParseRegistry parses a YAML list of channel types.
func ParseRegistry(data []byte) (*Registry, error) {
	var list []*ChannelType
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse channel types: %w", err)
	}

	r := &Registry{types: make(map[string]*ChannelType, len(list))}
	for i, t := range list {
		if t.Code == "" {
			return nil, fmt.Errorf("parse channel types: entry %d has no code", i)
		}
		if _, dup := r.types[t.Code]; dup {
			return nil, fmt.Errorf("parse channel types: duplicate code %q", t.Code)
		}
		r.types[t.Code] = t
	}
	return r, nil
}

// LoadRegistry reads channel types from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load channel types: %w", err)
	}
	return ParseRegistry(data)
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := ParseRegistry(defaultTypesYAML)
	if err != nil {
		panic(err)
	}
	return r
})

// DefaultRegistry returns the built-in channel types.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Get returns the type for code, falling back to a type with no error
// references, credentials or redaction keys.
func (r *Registry) Get(code string) *ChannelType {
	if t, ok := r.types[code]; ok {
		return t
	}
	return unknownType
}

// Has reports whether code is a registered type.
func (r *Registry) Has(code string) bool {
	_, ok := r.types[code]
	return ok
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.types)
}
