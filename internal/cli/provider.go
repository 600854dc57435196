package cli

import (
	"errors"
	"fmt"

	"github.com/alnah/clipcap/internal/config"
)

// Provider is a validated speech-recognition backend name.
// The zero value means "not set" and resolves to OpenAIProvider.
type Provider struct {
	name string
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Provider{}

// ErrInvalidProvider indicates an unknown provider name.
var ErrInvalidProvider = errors.New("invalid provider")

// Pre-parsed providers.
var (
	OpenAIProvider     = Provider{name: config.ProviderOpenAI}
	WhisperCppProvider = Provider{name: config.ProviderWhisperCpp}
)

// ParseProvider validates a provider name. Empty input returns the zero
// Provider.
func ParseProvider(s string) (Provider, error) {
	switch s {
	case "":
		return Provider{}, nil
	case config.ProviderOpenAI:
		return OpenAIProvider, nil
	case config.ProviderWhisperCpp:
		return WhisperCppProvider, nil
	}
	return Provider{}, fmt.Errorf("unknown provider %q (use '%s' or '%s'): %w",
		s, config.ProviderOpenAI, config.ProviderWhisperCpp, ErrInvalidProvider)
}

// String returns the provider name, or "" for the zero value.
func (p Provider) String() string {
	return p.name
}

// IsZero reports whether no provider was chosen.
func (p Provider) IsZero() bool {
	return p.name == ""
}

// OrDefault returns p, or OpenAIProvider if p is zero.
func (p Provider) OrDefault() Provider {
	if p.IsZero() {
		return OpenAIProvider
	}
	return p
}
