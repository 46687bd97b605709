// Package integration wires the built-in API integrations into the
// operation registry.
package integration

import (
	"github.com/tombee/icount-connector/internal/integration/icount"
	"github.com/tombee/icount-connector/internal/operation"
	"github.com/tombee/icount-connector/internal/operation/api"
	"github.com/tombee/icount-connector/internal/operation/transport"
)

// BuiltinRegistry holds all built-in API integration factories.
var BuiltinRegistry = map[string]func(config *api.ProviderConfig) (operation.Connector, error){
	"icount": icount.NewICountIntegration,
}

func init() {
	for name := range BuiltinRegistry {
		connName := name // capture for closure
		operation.Register(name, func(baseURL, token string, additionalAuth map[string]string) (operation.Connector, error) {
			tr, err := transport.NewHTTPTransport(&transport.HTTPTransportConfig{
				// Failed calls are reported to the workflow rather than
				// retried; a duplicate doc/create is worse than a failed one.
				RetryConfig: transport.SingleAttemptConfig(),
			})
			if err != nil {
				return nil, err
			}

			return BuiltinRegistry[connName](&api.ProviderConfig{
				Transport:      tr,
				BaseURL:        baseURL,
				Token:          token,
				AdditionalAuth: additionalAuth,
			})
		})
	}
}
