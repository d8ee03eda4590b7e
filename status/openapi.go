package status

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var openapiYAML []byte

// OpenAPI returns the validated OpenAPI document of the status API. Each call
// returns a fresh document.
func OpenAPI() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiYAML)
	if err != nil {
		return nil, fmt.Errorf("load status openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate status openapi document: %w", err)
	}
	return doc, nil
}

// OpenAPIYAML returns the raw document.
func OpenAPIYAML() []byte {
	return append([]byte(nil), openapiYAML...)
}
