package vector

import (
	"context"

	"github.com/weaviate/weaviate/entities/models"
)

// ClassName is the Weaviate class holding document chunk vectors.
const ClassName = "DocumentChunk"

// SchemaClient defines the interface for Weaviate schema operations
type SchemaClient interface {
	ClassExists(ctx context.Context, className string) (bool, error)
	CreateClass(ctx context.Context, class *models.Class) error
	GetClass(ctx context.Context, className string) (*models.Class, error)
	AddProperty(ctx context.Context, className string, property *models.Property) error
}

// EnsureSchema checks if the required class exists and creates it if
// not, adding any properties missing from an older deployment.
func EnsureSchema(ctx context.Context, client SchemaClient) error {
	exists, err := client.ClassExists(ctx, ClassName)
	if err != nil {
		return err
	}

	properties := []*models.Property{
		{
			Name:     "chunkId",
			DataType: []string{"string"}, // "<docId>#chunk-<n>" (exact match)
		},
		{
			Name:     "docId",
			DataType: []string{"string"},
		},
		{
			Name:     "title",
			DataType: []string{"text"},
		},
		{
			Name:     "chunkText",
			DataType: []string{"text"},
		},
		{
			Name:     "chunkIndex",
			DataType: []string{"int"},
		},
		{
			Name:     "chunkingStrategy",
			DataType: []string{"string"},
		},
		{
			Name:     "extractionMethod",
			DataType: []string{"string"},
		},
	}

	if !exists {
		class := &models.Class{
			Class:       ClassName,
			Description: "A chunk of an ingested document",
			Vectorizer:  "none",
			Properties:  properties,
		}
		return client.CreateClass(ctx, class)
	}

	// Class exists, check for missing properties
	class, err := client.GetClass(ctx, ClassName)
	if err != nil {
		return err
	}

	existingProps := make(map[string]bool)
	for _, p := range class.Properties {
		existingProps[p.Name] = true
	}

	for _, p := range properties {
		if !existingProps[p.Name] {
			if err := client.AddProperty(ctx, ClassName, p); err != nil {
				return err
			}
		}
	}

	return nil
}
