package indexer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokengate/pkg/platform/events"
)

func newIndexRouter(t *testing.T) (http.Handler, *Projection) {
	t.Helper()
	p := New()
	r := chi.NewRouter()
	NewHandler(p).Register(r)
	return r, p
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandleToken(t *testing.T) {
	h, p := newIndexRouter(t)

	t.Run("unindexed token is not found", func(t *testing.T) {
		rec := get(t, h, "/index/tokens/"+bond.Hex())
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	p.Notify(context.Background(), []events.Event{
		mintEvent(alice, "40"),
		mintEvent(bob, "2"),
		events.New(events.TypeComplianceModuleAdded, bond, agent, events.AttrModule, allowAt.Hex(), events.AttrParams, "0x"),
	})

	t.Run("summary with sorted holders", func(t *testing.T) {
		rec := get(t, h, "/index/tokens/"+bond.Hex())
		require.Equal(t, http.StatusOK, rec.Code)

		var body TokenResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "42", body.TotalSupply)
		assert.Equal(t, 3, body.Events)
		require.Len(t, body.Holders, 2)
		assert.Equal(t, bob.Hex(), body.Holders[0].Address)
		assert.Equal(t, []ModuleResponse{{Module: allowAt.Hex(), Params: "0x"}}, body.Modules)
	})

	t.Run("holder view", func(t *testing.T) {
		rec := get(t, h, "/index/tokens/"+bond.Hex()+"/holders/"+alice.Hex())
		require.Equal(t, http.StatusOK, rec.Code)
		var body HolderResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "40", body.Balance)
		assert.Equal(t, "0", body.FrozenTokens)
	})

	t.Run("malformed address", func(t *testing.T) {
		rec := get(t, h, "/index/tokens/not-an-address")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleIdentity(t *testing.T) {
	h, p := newIndexRouter(t)
	identity := "0x00000000000000000000000000000000000001d0"
	p.Notify(context.Background(), []events.Event{
		events.New(events.TypeIdentityRegistered, registry, agent,
			events.AttrHolder, alice.Hex(), events.AttrIdentity, identity, events.AttrCountry, "250"),
	})

	rec := get(t, h, "/index/registries/"+registry.Hex()+"/identities/"+alice.Hex())
	require.Equal(t, http.StatusOK, rec.Code)
	var body IdentityResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "250", body.Country)

	rec = get(t, h, "/index/registries/"+registry.Hex()+"/identities/"+bob.Hex())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
