package ai

import "fmt"

// ProviderError classifies a provider failure for the fallback chain.
// Transient failures were already retried at the transport layer; by the time
// the chain sees the error the distinction only matters for reporting.
type ProviderError struct {
	Provider  string
	Reason    string
	Transient bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

func newProviderError(provider, reason string, transient bool) *ProviderError {
	return &ProviderError{Provider: provider, Reason: reason, Transient: transient}
}

func errUnavailable(provider string) *ProviderError {
	return newProviderError(provider, "provider not available", false)
}

func errUnsupported(provider string, c Capability) *ProviderError {
	return newProviderError(provider, fmt.Sprintf("capability %s not supported", c), false)
}
