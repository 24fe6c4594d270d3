package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrKey(t *testing.T) {
	key := strKey("id", "g1")
	require.Len(t, key, 1)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "g1"}, key["id"])
}

func TestBuildUpdateExpr(t *testing.T) {
	tests := []struct {
		name      string
		updates   map[string]interface{}
		wantExpr  string
		wantNames map[string]string
	}{
		{
			name:      "toggle",
			updates:   map[string]interface{}{"enabled": false},
			wantExpr:  "SET #f0 = :v0",
			wantNames: map[string]string{"#f0": "enabled"},
		},
		{
			name: "review post fields sorted",
			updates: map[string]interface{}{
				"review_message_id": "m1",
				"guild_id":          "g1",
				"evidence_key":      "evidence/1/a.png",
			},
			wantExpr: "SET #f0 = :v0, #f1 = :v1, #f2 = :v2",
			wantNames: map[string]string{
				"#f0": "evidence_key",
				"#f1": "guild_id",
				"#f2": "review_message_id",
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ue, err := buildUpdateExpr(tc.updates)
			require.NoError(t, err)
			assert.Equal(t, tc.wantExpr, ue.Expr)
			assert.Equal(t, tc.wantNames, ue.Names)
			assert.Len(t, ue.Values, len(tc.updates))
		})
	}
}

func TestBuildUpdateExpr_MarshalsBool(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"enabled": true})
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: true}, ue.Values[":v0"])
}

func TestBuildUpdateExpr_Empty(t *testing.T) {
	_, err := buildUpdateExpr(nil)
	assert.ErrorContains(t, err, "no fields to update")
}
