package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAgainstEmbeddedSchema(t *testing.T) {
	var cfg Config
	cfg.Server.Listen = ":8080"
	cfg.Server.Timeout = 30 * time.Second
	cfg.Database.DSN = "file:test.db"

	assert.NoError(t, VerifyAgainstEmbeddedSchema(&cfg))

	cfg.Server.Listen = ""
	err := VerifyAgainstEmbeddedSchema(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.listen is required")
}

func TestGenerateSchema(t *testing.T) {
	schema, err := GenerateSchema()
	require.NoError(t, err)
	require.NotNil(t, schema)

	def, ok := schema.Definitions["Config"]
	require.True(t, ok)
	_, ok = def.Properties.Get("providers")
	assert.True(t, ok)
}
