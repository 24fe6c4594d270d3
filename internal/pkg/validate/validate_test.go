package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	GuildID string `json:"id" validate:"required"`
	RoleID  string `json:"role_id" validate:"required,numeric"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(sample{GuildID: "g1", RoleID: "42"}))

	err := Struct(sample{RoleID: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id required")
	assert.Contains(t, err.Error(), "role_id failed 'numeric'")
}
