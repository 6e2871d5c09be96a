// Package inference provides the gateway to the external vision-language
// endpoint. Providers register themselves by name; the pipeline only ever
// sees the port.InferenceGateway interface and its typed outcomes.
package inference

import (
	"fmt"

	"doculens/internal/config"
	"doculens/internal/port"
)

// ProviderFactory is a function that creates an InferenceGateway from config.
type ProviderFactory func(cfg *config.InferenceConfig) (port.InferenceGateway, error)

// registry of gateway provider factories, populated by init() in each
// provider package or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a gateway provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewGateway creates an InferenceGateway from config using the registered factory.
func NewGateway(cfg *config.InferenceConfig) (port.InferenceGateway, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown inference provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
