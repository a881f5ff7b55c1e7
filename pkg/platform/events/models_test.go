package events

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeCategory(t *testing.T) {
	assert.Equal(t, CategoryCustody, TypeTokensUnfrozen.Category())
	assert.Equal(t, CategoryCompliance, TypeComplianceModuleAdded.Category())
	assert.Equal(t, CategorySupply, TypeTransferCompleted.Category())
	assert.Equal(t, CategoryGovernance, Type("SomethingNew").Category())
	assert.Equal(t, "tokengate.custody", Topic("tokengate", TypeAddressFrozen))
}

func TestCodecPreservesEnvelope(t *testing.T) {
	token := common.HexToAddress("0x70")
	actor := common.HexToAddress("0xac")
	e := New(TypeTokensUnfrozen, token, actor, AttrHolder, "0xabc", AttrAmount, "30")
	e.RequestID = "req-1"
	e.Timestamp = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	b, err := Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"category":"custody"`)

	got, err := Unmarshal(b)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, e.Type, got.Type)
	assert.Equal(t, token, got.Emitter)
	assert.Equal(t, actor, got.Actor)
	assert.Equal(t, "30", got.Attr(AttrAmount))
	assert.True(t, e.Timestamp.Equal(got.Timestamp))
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	_, err := Unmarshal([]byte(`{"id":"nope"}`))
	require.Error(t, err)
}
