package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	expr, names, values, err := buildUpdateExpr(map[string]interface{}{"seller_slug": "asha-rao"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", expr)
	assert.Equal(t, map[string]string{"#f0": "seller_slug"}, names)
	_, ok := values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		"seller_slug":  "asha-rao",
		"display_name": "Asha Rao",
		"updated_at":   "2026-01-01T00:00:00Z",
	}
	// Call twice to verify determinism.
	expr1, names1, _, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	expr2, _, _, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, expr1, expr2)

	// Keys must be sorted: display_name < seller_slug < updated_at
	assert.Equal(t, "display_name", names1["#f0"])
	assert.Equal(t, "seller_slug", names1["#f1"])
	assert.Equal(t, "updated_at", names1["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", expr1)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	_, _, values, err := buildUpdateExpr(map[string]interface{}{"enable": true})
	require.NoError(t, err)
	av, ok := values[":v0"]
	require.True(t, ok)
	boolVal, isBool := av.(*types.AttributeValueMemberBOOL)
	require.True(t, isBool)
	assert.True(t, boolVal.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, _, _, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestCursorRoundTrip(t *testing.T) {
	c := encodeCursor("01JF3G4K5M6N7P8Q9R0S1T2U3V")
	got, err := decodeCursor(c)
	require.NoError(t, err)
	assert.Equal(t, "01JF3G4K5M6N7P8Q9R0S1T2U3V", got)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	_, err := decodeCursor("not base64 at all!!")
	assert.Error(t, err)
}

func TestStrKey(t *testing.T) {
	key := strKey("slug", "asha-rao")
	v, ok := key["slug"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "asha-rao", v.Value)
}

func TestCompositeKey(t *testing.T) {
	key := compositeKey("user_id", "u1", "listing_id", "l1")
	pk, ok := key["user_id"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "u1", pk.Value)
	sk, ok := key["listing_id"].(*types.AttributeValueMemberS)
	require.True(t, ok)
	assert.Equal(t, "l1", sk.Value)
}
