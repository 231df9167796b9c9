// Package schemas embeds the hgraph HTTP API contract.
package schemas

import _ "embed"

// OpenAPISpec is the OpenAPI 3 document describing the /api/v1 surface.
//
//go:embed openapi.yaml
var OpenAPISpec []byte
