// Package openapi carries the description of the storefront JSON API under /api.
package openapi

import _ "embed"

//go:embed openapi.yaml
var Document []byte

// DocsPage renders Document with Swagger UI. Only GET calls can be tried from
// it, so browsing the docs never changes a cart.
//
//go:embed docs.html
var DocsPage []byte
