package gemini

import (
	"imageprompt/internal/domain"

	"google.golang.org/genai"
)

// toGenaiSchema は、ドメインの出力スキーマをgenai.Schemaに変換します
func toGenaiSchema(schema domain.ResponseSchema) *genai.Schema {
	result := &genai.Schema{
		Type:       toGenaiType(schema.Type),
		Properties: make(map[string]*genai.Schema, len(schema.Properties)),
		Required:   append([]string(nil), schema.Required...),
	}

	for _, property := range schema.Properties {
		result.Properties[property.Name] = &genai.Schema{Type: toGenaiType(property.Type)}
		result.PropertyOrdering = append(result.PropertyOrdering, property.Name)
	}

	return result
}

func toGenaiType(t domain.SchemaType) genai.Type {
	switch t {
	case domain.SchemaTypeObject:
		return genai.TypeObject
	case domain.SchemaTypeString:
		return genai.TypeString
	default:
		return genai.TypeUnspecified
	}
}
