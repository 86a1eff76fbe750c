package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fable/pkg/adapters/httpapi"
	"github.com/aretw0/fable/pkg/adapters/memory"
	"github.com/aretw0/fable/pkg/domain"
)

func testFlow() *domain.FlowDefinition {
	return &domain.FlowDefinition{
		ID:           "adventure",
		StartNodeID:  "gate",
		InitialState: map[string]any{"keys": 1},
		Nodes: []domain.Node{
			{
				ID:      "gate",
				Content: "A locked gate.",
				Outlets: []domain.Outlet{
					{ID: "unlock", To: "garden", Label: "Use a key", Condition: "keys > 0"},
					{ID: "turn-back", To: "home", Label: "Turn back"},
				},
			},
			{ID: "garden", Content: "A quiet garden.", Outlets: []domain.Outlet{{ID: "g1", To: "home"}}},
			{ID: "home", Content: "Home again."},
		},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(httpapi.NewServer(memory.NewStore()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type viewPayload struct {
	SessionID string         `json:"sessionId"`
	FlowID    string         `json:"flowId"`
	Node      *domain.Node   `json:"node"`
	Choices   []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	} `json:"choices"`
	State     map[string]any `json:"state"`
	Completed bool           `json:"completed"`
	CanGoBack bool           `json:"canGoBack"`
}

func TestHealthAndInfo(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/info")
	require.NoError(t, err)
	info := decode[map[string]string](t, resp)
	assert.Equal(t, "fable-http", info["app"])
}

func TestFlowCRUD(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/flows", testFlow())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/flows")
	require.NoError(t, err)
	list := decode[map[string][]string](t, resp)
	assert.Contains(t, list["flows"], "adventure")

	resp, err = http.Get(srv.URL + "/flows/adventure")
	require.NoError(t, err)
	def := decode[domain.FlowDefinition](t, resp)
	assert.Equal(t, "gate", def.StartNodeID)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/flows/adventure", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/flows/adventure")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/flows", testFlow())
	resp.Body.Close()

	// Create
	resp = postJSON(t, srv.URL+"/sessions", map[string]string{"flowId": "adventure"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	view := decode[viewPayload](t, resp)
	require.NotEmpty(t, view.SessionID)
	assert.Equal(t, "gate", view.Node.ID)
	assert.Len(t, view.Choices, 2)
	assert.False(t, view.Completed)

	base := srv.URL + "/sessions/" + view.SessionID

	// Next with a choice
	resp = postJSON(t, base+"/next", map[string]string{"choiceId": "unlock"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[viewPayload](t, resp)
	assert.Equal(t, "garden", view.Node.ID)
	assert.True(t, view.CanGoBack)

	// Read back without advancing
	getResp, err := http.Get(base)
	require.NoError(t, err)
	view = decode[viewPayload](t, getResp)
	assert.Equal(t, "garden", view.Node.ID)

	// Back
	resp = postJSON(t, base+"/back", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[viewPayload](t, resp)
	assert.Equal(t, "gate", view.Node.ID)

	// Finish the flow
	resp = postJSON(t, base+"/next", map[string]string{"choiceId": "turn-back"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[viewPayload](t, resp)
	assert.Equal(t, "home", view.Node.ID)
	assert.True(t, view.Completed)

	// Reset rearms at the start
	resp = postJSON(t, base+"/reset", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view = decode[viewPayload](t, resp)
	assert.Equal(t, "gate", view.Node.ID)
	assert.False(t, view.Completed)

	// Delete
	req, err := http.NewRequest(http.MethodDelete, base, nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	getResp, err = http.Get(base)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	getResp.Body.Close()
}

func TestSessionErrors(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/flows", testFlow())
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/sessions", map[string]string{"flowId": "missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/sessions", map[string]string{"flowId": "adventure"})
	view := decode[viewPayload](t, resp)
	base := srv.URL + "/sessions/" + view.SessionID

	resp = postJSON(t, base+"/next", map[string]string{"choiceId": "no-such-outlet"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, base+"/back", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "back with a single history step is unavailable")
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/sessions/nope/next", map[string]string{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
