package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPQQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"ai_nexus"`, pqQuoteIdentifier("ai_nexus"))
	assert.Equal(t, `"we""ird"`, pqQuoteIdentifier(`we"ird`))
}

func TestConnectValidatesConfig(t *testing.T) {
	_, err := Connect(Config{})
	require.Error(t, err)

	_, err = Connect(Config{Driver: "mysql", DSN: "root@/db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestEnsureDatabaseExistsIgnoresKeyValueDSN(t *testing.T) {
	assert.NoError(t, ensureDatabaseExists("host=localhost user=postgres dbname=ai_nexus"))
}
