package hcl

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/iacexport/iacexport/pkg/model"
)

// Serializer renders objects and variable sets into the output language.
type Serializer interface {
	// Extension is the file extension of rendered documents, including the dot.
	Extension() string
	// Resource renders one resource together with the variables it declares.
	Resource(resourceType, identity string, vars []model.Variable, body model.Record) ([]byte, error)
	// Variables renders a document that only declares vars.
	Variables(vars []model.Variable) ([]byte, error)
}

// JSONSerializer renders Terraform JSON configuration (*.tf.json).
type JSONSerializer struct{}

var _ Serializer = JSONSerializer{}

func (JSONSerializer) Extension() string {
	return ".tf.json"
}

func (JSONSerializer) Resource(resourceType, identity string, vars []model.Variable, body model.Record) ([]byte, error) {
	rendered, err := renderBody(body)
	if err != nil {
		return nil, fmt.Errorf("render %s.%s: %w", resourceType, identity, err)
	}

	doc := map[string]any{
		"resource": map[string]any{
			resourceType: map[string]any{
				identity: rendered,
			},
		},
	}
	if len(vars) > 0 {
		doc["variable"] = variableBlock(vars)
	}
	return encode(doc)
}

func (JSONSerializer) Variables(vars []model.Variable) ([]byte, error) {
	doc := map[string]any{}
	if len(vars) > 0 {
		doc["variable"] = variableBlock(vars)
	}
	return encode(doc)
}

func variableBlock(vars []model.Variable) map[string]any {
	block := make(map[string]any, len(vars))
	for _, v := range vars {
		decl := map[string]any{}
		if v.Default != nil {
			decl["default"] = v.Default
		}
		block[v.Name] = decl
	}
	return block
}

func encode(doc map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderBody(body map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(body))
	for key, value := range body {
		token, name := SplitAnnotation(key)
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("attribute %q is declared more than once", name)
		}

		var (
			rendered any
			err      error
		)
		switch token {
		case ExprPrefix:
			if s, ok := value.(string); ok && !IsInterpolation(s) {
				rendered = Interpolate(s)
			} else {
				rendered = value
			}
		case RawStringPrefix:
			rendered = value
		default:
			rendered, err = renderValue(value)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = rendered
	}
	return out, nil
}

func renderValue(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return escapeLiteral(v), nil
	case map[string]any:
		return renderBody(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			rendered, err := renderValue(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return v, nil
	}
}
