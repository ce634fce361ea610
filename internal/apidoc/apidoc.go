// Package apidoc holds the OpenAPI description of the REST surface. The
// server publishes it and the MCP tools derive their parameters from it.
package apidoc

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/mark3labs/mcp-go/mcp"
)

//go:embed openapi.yaml
var document []byte

// Load parses and validates the embedded document. version overrides
// info.version when non-empty.
func Load(ctx context.Context, version string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	if version != "" {
		doc.Info.Version = version
	}
	return doc, nil
}

// JSON renders the document for /openapi.json
func JSON(doc *openapi3.T) ([]byte, error) {
	return json.Marshal(doc)
}

// Operation returns the operation for method and path
func Operation(doc *openapi3.T, method, path string) (*openapi3.PathItem, *openapi3.Operation, error) {
	item := doc.Paths.Find(path)
	if item == nil {
		return nil, nil, fmt.Errorf("path %s not documented", path)
	}
	op := item.GetOperation(method)
	if op == nil {
		return nil, nil, fmt.Errorf("%s %s not documented", method, path)
	}
	return item, op, nil
}

// ToolOptions converts the operation's summary, path and query parameters
// and JSON body properties into MCP tool options
func ToolOptions(doc *openapi3.T, method, path string) ([]mcp.ToolOption, error) {
	item, op, err := Operation(doc, method, path)
	if err != nil {
		return nil, err
	}

	opts := []mcp.ToolOption{mcp.WithDescription(op.Summary)}

	params := append(openapi3.Parameters{}, item.Parameters...)
	params = append(params, op.Parameters...)
	for _, ref := range params {
		p := ref.Value
		if p == nil || (p.In != openapi3.ParameterInPath && p.In != openapi3.ParameterInQuery) {
			continue
		}
		opts = append(opts, schemaOption(withDescription(p.Schema, p.Description), p.Name, p.Required))
	}

	if body := jsonBody(op); body != nil {
		names := make([]string, 0, len(body.Properties))
		for name := range body.Properties {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			opts = append(opts, schemaOption(body.Properties[name], name, contains(body.Required, name)))
		}
	}
	return opts, nil
}

func jsonBody(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	media := op.RequestBody.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil {
		return nil
	}
	return media.Schema.Value
}

func withDescription(schema *openapi3.SchemaRef, description string) *openapi3.SchemaRef {
	if schema == nil || schema.Value == nil || description == "" {
		return schema
	}
	s := *schema.Value
	s.Description = description
	return &openapi3.SchemaRef{Value: &s}
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
