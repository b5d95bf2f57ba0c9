package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worksentry/internal/core"
	"worksentry/internal/indexer"
	"worksentry/internal/record"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, err := core.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	srv := httptest.NewServer(NewServer(svc).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHandleSearch_ReturnsMatchingResults(t *testing.T) {
	srv := newTestServer(t)
	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "budget.txt"), []byte("q3 numbers"), 0o644))

	resp := postJSON(t, srv, "/folders", folderRequest{Path: source})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv, "/search", searchRequest{Query: "budget.txt"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Results []record.Result `json:"results"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, "budget.txt", body.Results[0].Name)
}

func TestHandleSearch_RejectsNonPostMethod(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/search")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandleFolders_AddGetAndRemoveRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	source := t.TempDir()

	resp := postJSON(t, srv, "/folders", folderRequest{Path: source})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var added struct {
		Folders []string `json:"folders"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&added))
	assert.Contains(t, added.Folders, source)

	getResp, err := http.Get(srv.URL + "/folders")
	require.NoError(t, err)
	defer getResp.Body.Close()
	var listed struct {
		Folders []string `json:"folders"`
	}
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&listed))
	assert.Contains(t, listed.Folders, source)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/folders", bytes.NewReader(mustJSON(t, folderRequest{Path: source})))
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer delResp.Body.Close()
	require.Equal(t, http.StatusOK, delResp.StatusCode)

	var removed struct {
		Folders []string `json:"folders"`
	}
	require.NoError(t, json.NewDecoder(delResp.Body).Decode(&removed))
	assert.NotContains(t, removed.Folders, source)
}

func TestHandleFolders_AddRejectsMissingDirectory(t *testing.T) {
	srv := newTestServer(t)
	resp := postJSON(t, srv, "/folders", folderRequest{Path: filepath.Join(t.TempDir(), "does-not-exist")})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleReindex_ReturnsStats(t *testing.T) {
	srv := newTestServer(t)
	source := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(source, "a.txt"), []byte("hello"), 0o644))

	resp := postJSON(t, srv, "/folders", folderRequest{Path: source})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv, "/reindex", reindexRequest{Path: source})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats indexer.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.GreaterOrEqual(t, stats.Processed, int64(1))
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
