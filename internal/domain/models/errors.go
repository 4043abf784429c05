package models

import "fmt"

// UpstreamError reports a failed call to the market price API: transport
// error, timeout, or non-2xx status. Status is zero for transport failures.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream: %s", e.Message)
}

// NoDataError means the upstream failed and the store holds nothing to fall
// back on. It is the only hard failure GetPrices surfaces.
type NoDataError struct {
	Commodity string
	Err       error
}

func (e *NoDataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no price data for %q: %v", e.Commodity, e.Err)
	}
	return fmt.Sprintf("no price data for %q", e.Commodity)
}

func (e *NoDataError) Unwrap() error { return e.Err }
