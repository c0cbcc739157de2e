package social

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeAssertionRejected marks identity assertions that fail
	// signature, issuer, audience, or expiry checks
	TextCodeAssertionRejected = "SOCIAL_ASSERTION_REJECTED"
	// TextCodeExchangeFailed marks authorization codes the provider
	// would not exchange
	TextCodeExchangeFailed = "SOCIAL_EXCHANGE_FAILED"
)

// ErrAssertionRejected is returned when a provider identity assertion
// cannot be trusted.
var ErrAssertionRejected = goerrors.New("Invalid social identity assertion", goerrors.CategoryAuth).
	WithTextCode(TextCodeAssertionRejected).
	WithCode(goerrors.CodeUnauthorized)

// ErrExchangeFailed is returned when the provider rejects the
// authorization code.
var ErrExchangeFailed = goerrors.New("Social login failed", goerrors.CategoryAuth).
	WithTextCode(TextCodeExchangeFailed).
	WithCode(goerrors.CodeUnauthorized)

// ProviderError captures normalized provider response details.
type ProviderError struct {
	Provider    string
	Operation   string
	Status      int
	Code        string
	Description string
	Err         error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}

	scope := e.Provider
	if e.Operation != "" {
		scope = fmt.Sprintf("%s %s", e.Provider, e.Operation)
	}

	switch {
	case e.Description != "":
		return fmt.Sprintf("%s failed: %s", scope, e.Description)
	case e.Code != "":
		return fmt.Sprintf("%s failed: %s", scope, e.Code)
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", scope, e.Err)
	}

	return fmt.Sprintf("%s failed", scope)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ProviderError) metadata() map[string]any {
	if e == nil {
		return nil
	}

	meta := map[string]any{}
	if e.Provider != "" {
		meta["provider"] = e.Provider
	}
	if e.Operation != "" {
		meta["operation"] = e.Operation
	}
	if e.Status != 0 {
		meta["status"] = e.Status
	}
	if e.Code != "" {
		meta["code"] = e.Code
	}
	if e.Description != "" {
		meta["description"] = e.Description
	}

	return meta
}

// wrap attaches provider detail to one of the sentinel errors above
// while keeping the ProviderError reachable through Unwrap.
func wrap(base *goerrors.Error, perr *ProviderError) error {
	clone := base.Clone()
	if clone == nil {
		clone = base
	}
	clone.Source = perr
	if meta := perr.metadata(); len(meta) > 0 {
		clone.WithMetadata(meta)
	}
	return clone
}
