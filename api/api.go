// Package api holds the OpenAPI document of the HTTP surface. The document
// drives request validation and the Swagger UI.
package api

import _ "embed"

//go:embed openapi.yml
var Spec []byte
