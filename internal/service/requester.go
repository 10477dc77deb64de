// Package service maps each CMS resource onto its REST endpoints. Decoding
// goes through the normalisation types in normalize.go so callers only ever
// see canonical domain values.
package service

import (
	"context"
	"net/url"
)

// Requester is the transport the services need. *apiclient.Client satisfies
// it; tests substitute a recording fake.
type Requester interface {
	Do(ctx context.Context, method, path string, query url.Values, reqBody, respBody any) error
	Upload(ctx context.Context, path, field, filename, contentType string, data []byte, respBody any) error
}
