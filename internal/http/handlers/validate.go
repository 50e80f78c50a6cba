package handlers

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"reelmate/internal/domain"
)

//go:embed generate_request.schema.json
var generateRequestSchema string

func compileGenerateSchema() (*jsonschema.Schema, error) {
	schema, err := jsonschema.CompileString("generate_request.schema.json", generateRequestSchema)
	if err != nil {
		return nil, fmt.Errorf("compile generate request schema: %w", err)
	}
	return schema, nil
}

// validateJSON checks body against schema and reports the first leaf
// violations as a domain.ErrInvalidRequest.
func validateJSON(schema *jsonschema.Schema, body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("%w: body is not valid json", domain.ErrInvalidRequest)
	}
	if err := schema.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, strings.Join(leafMessages(ve), "; "))
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}

func leafMessages(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return []string{loc + ": " + ve.Message}
	}
	var out []string
	for _, c := range ve.Causes {
		out = append(out, leafMessages(c)...)
	}
	return out
}
