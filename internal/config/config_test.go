package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		WeaviateHost:      "localhost:8080",
		FixedChunkSize:    500,
		FixedChunkOverlap: 50,
		BoundaryFraction:  0.2,
	}
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("Missing Weaviate Host", func(t *testing.T) {
		cfg := validConfig()
		cfg.WeaviateHost = ""
		assert.ErrorIs(t, cfg.Validate(), ErrMissingRequired)
	})

	t.Run("Overlap Not Below Size", func(t *testing.T) {
		cfg := validConfig()
		cfg.FixedChunkOverlap = 500
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidChunking)
	})

	t.Run("Boundary Fraction Out Of Range", func(t *testing.T) {
		cfg := validConfig()
		cfg.BoundaryFraction = 1.0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidChunking)

		cfg.BoundaryFraction = 0
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidChunking)
	})
}

func TestFeatureToggles(t *testing.T) {
	t.Run("Async Needs Bucket And Queue", func(t *testing.T) {
		cfg := validConfig()
		assert.False(t, cfg.AsyncEnabled())

		cfg.DocBucket = "docs"
		assert.False(t, cfg.AsyncEnabled())

		cfg.NSQDHost = "nsqd:4150"
		assert.True(t, cfg.AsyncEnabled())
	})

	t.Run("Job Tracking Needs Database", func(t *testing.T) {
		cfg := validConfig()
		assert.False(t, cfg.JobTrackingEnabled())
		cfg.DBHost = "postgres"
		assert.True(t, cfg.JobTrackingEnabled())
	})

	t.Run("Extraction Providers", func(t *testing.T) {
		cfg := validConfig()
		assert.False(t, cfg.AzureConfigured())
		assert.False(t, cfg.TextractConfigured())

		cfg.AzureDocIntelEndpoint = "https://example.cognitiveservices.azure.com"
		cfg.AzureDocIntelKey = "key"
		assert.True(t, cfg.AzureConfigured())

		cfg.AWSAccessKey = "AKIA..."
		cfg.AWSSecretKey = "secret"
		assert.True(t, cfg.TextractConfigured())
	})
}
