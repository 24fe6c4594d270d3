package docstore

import (
	"context"
	"testing"

	"github.com/go-verify-bot/internal/config"
	"github.com/go-verify-bot/internal/infrastructure/jsondb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_Disabled(t *testing.T) {
	s, err := New(context.Background(), &config.Config{Database: config.Database{Enabled: false, Type: "json"}}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestNew_JSON(t *testing.T) {
	cfg := &config.Config{Database: config.Database{Enabled: true, Type: TypeJSON, JSONPath: t.TempDir()}}
	s, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &jsondb.Store{}, s)
}

func TestNew_Unsupported(t *testing.T) {
	cfg := &config.Config{Database: config.Database{Enabled: true, Type: "mysql"}}
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, `unsupported database type: "mysql"`)
}

func TestTables(t *testing.T) {
	got := Tables(config.DynamoTables{GuildConfigs: "a", PendingVerifications: "b"})
	assert.Equal(t, map[string]string{"guild_configs": "a", "pending_verifications": "b"}, got)
}
