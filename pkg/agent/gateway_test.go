package agent

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeParams struct {
	values map[string]string
}

func (f *fakeParams) GetParameter(ctx context.Context, name string) (string, error) {
	v, ok := f.values[name]
	if !ok || v == "" {
		return "", errors.New("parameter not found: " + name)
	}
	return v, nil
}

func TestInvokeForwardsGoalAndToken(t *testing.T) {
	var gotAuth string
	var gotGoal string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/invocations", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		var body struct {
			Goal string `json:"goal"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotGoal = body.Goal
		json.NewEncoder(w).Encode(map[string]any{
			"completion": map[string]any{"message": "analysis complete"},
		})
	}))
	defer server.Close()

	params := &fakeParams{values: map[string]string{DefaultEndpointParam: server.URL}}
	g := New(params, "", nil)

	message, err := g.Invoke(context.Background(), "analyze my costs", "token-123")
	require.NoError(t, err)

	assert.Equal(t, "analysis complete", message)
	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.Equal(t, "analyze my costs", gotGoal)
}

func TestInvokeStringCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"completion": "plain answer"})
	}))
	defer server.Close()

	g := New(&fakeParams{values: map[string]string{DefaultEndpointParam: server.URL}}, "", nil)

	message, err := g.Invoke(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "plain answer", message)
}

func TestInvokeRuntimeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	g := New(&fakeParams{values: map[string]string{DefaultEndpointParam: server.URL}}, "", nil)

	_, err := g.Invoke(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 502")
}

func TestConfigured(t *testing.T) {
	g := New(&fakeParams{values: map[string]string{}}, "", nil)
	assert.False(t, g.Configured(context.Background()))

	g = New(&fakeParams{values: map[string]string{DefaultEndpointParam: "https://runtime.example"}}, "", nil)
	assert.True(t, g.Configured(context.Background()))
}

func TestEndpointCachedAfterFirstResolve(t *testing.T) {
	params := &fakeParams{values: map[string]string{DefaultEndpointParam: "https://runtime.example"}}
	g := New(params, "", nil)

	require.True(t, g.Configured(context.Background()))

	// Parameter removal after first resolution does not break the gateway.
	params.values = map[string]string{}
	assert.True(t, g.Configured(context.Background()))
}
