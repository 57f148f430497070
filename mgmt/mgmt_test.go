package mgmt_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/named-data/ndnrepo/core"
	"github.com/named-data/ndnrepo/mgmt"
	"github.com/named-data/ndnrepo/ndn"
	"github.com/named-data/ndnrepo/ndn/security"
	"github.com/named-data/ndnrepo/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type response struct {
	StatusCode int             `json:"statusCode"`
	StatusText string          `json:"statusText"`
	Body       json.RawMessage `json:"body"`
}

func setup(t *testing.T, names ...string) (*repo.Repository, http.Handler) {
	r, err := repo.New(core.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	for _, name := range names {
		obj, err := ndn.NewContentObject(ndn.MustNameFromString(name), ndn.MetaInfo{}, []byte(name), security.DigestSha256{})
		require.NoError(t, err)
		_, _, err = r.Put(obj)
		require.NoError(t, err)
	}
	return r, mgmt.MakeMgmtThread(r, "127.0.0.1:0").Handler()
}

func do(t *testing.T, handler http.Handler, method string, target string) (*httptest.ResponseRecorder, response) {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var resp response
	if w.Header().Get("Content-Type") != "application/octet-stream" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, w.Code, resp.StatusCode)
	}
	return w, resp
}

func TestStatus(t *testing.T) {
	_, handler := setup(t, "/a/1", "/a/2")

	w, resp := do(t, handler, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, w.Code)

	var status mgmt.GeneralStatus
	require.NoError(t, json.Unmarshal(resp.Body, &status))
	assert.Equal(t, core.BackendMemory, status.Backend)
	assert.Equal(t, 2, status.Repository.Objects)
	assert.Equal(t, 2, status.Repository.Counters["content.stored"])
}

func TestContentQuery(t *testing.T) {
	_, handler := setup(t, "/a/b", "/a/c", "/b/x")

	w, resp := do(t, handler, http.MethodGet, "/content?name=/a&order=rightmost")
	require.Equal(t, http.StatusOK, w.Code)
	var entry mgmt.ContentEntry
	require.NoError(t, json.Unmarshal(resp.Body, &entry))
	assert.Equal(t, "/a/c", entry.Name)
	assert.Equal(t, "Blob", entry.ContentType)
	assert.Equal(t, []byte("/a/c"), entry.Content)
	require.NotNil(t, entry.SigningTime)
	assert.WithinDuration(t, time.Now(), *entry.SigningTime, time.Minute)

	w, resp = do(t, handler, http.MethodGet, "/content?name=/a&order=leftmost")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(resp.Body, &entry))
	assert.Equal(t, "/a/b", entry.Name)

	w, _ = do(t, handler, http.MethodGet, "/content?name=/a&maxSuffix=0")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, handler, http.MethodGet, "/content?name=/zzz")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, handler, http.MethodGet, "/content?name=/a&order=sideways")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, handler, http.MethodGet, "/content?name=/a&publisher=xyz")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContentEntryOmitsSigningTime(t *testing.T) {
	encoded, err := json.Marshal(mgmt.ContentEntry{Name: "/a", Digest: "00"})
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "signingTime")
}

func TestContentQueryWire(t *testing.T) {
	r, handler := setup(t, "/wire/1")

	w, _ := do(t, handler, http.MethodGet, "/content?name=/wire&format=wire")
	require.Equal(t, http.StatusOK, w.Code)
	obj, err := ndn.DecodeContentObjectWire(w.Body.Bytes())
	require.NoError(t, err)

	stored, err := r.GetContent(ndn.NewInterest(ndn.MustNameFromString("/wire/1")))
	require.NoError(t, err)
	assert.Equal(t, stored.Digest(), obj.Digest())
}

func TestContentErase(t *testing.T) {
	r, handler := setup(t, "/a/1", "/a/2", "/a/3/x", "/b/1")
	other, err := ndn.NewContentObject(ndn.MustNameFromString("/a/1"), ndn.MetaInfo{}, []byte("other"), security.DigestSha256{})
	require.NoError(t, err)
	require.NoError(t, r.SaveContent(other))

	w, resp := do(t, handler, http.MethodDelete, "/content?name=/a/1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"removed":2}`, string(resp.Body))

	w, resp = do(t, handler, http.MethodDelete, "/content?name=/a/1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"removed":0}`, string(resp.Body))

	w, resp = do(t, handler, http.MethodDelete, "/content?prefix=/a")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"removed":2}`, string(resp.Body))

	w, _ = do(t, handler, http.MethodDelete, "/content")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = do(t, handler, http.MethodDelete, "/content?name=/b/1&prefix=/b")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, 1, r.Stats().Objects)
}

func TestContentList(t *testing.T) {
	_, handler := setup(t, "/l/3", "/l/1", "/l/2", "/m/1")

	w, resp := do(t, handler, http.MethodGet, "/content/list?prefix=/l&limit=2")
	require.Equal(t, http.StatusOK, w.Code)
	var entries []mgmt.ContentEntry
	require.NoError(t, json.Unmarshal(resp.Body, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "/l/1", entries[0].Name)
	assert.Equal(t, "/l/2", entries[1].Name)
	assert.Len(t, entries[0].Digest, 64)

	w, _ = do(t, handler, http.MethodGet, "/content/list?prefix=/l&limit=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFaces(t *testing.T) {
	_, handler := setup(t)

	w, _ := do(t, handler, http.MethodGet, "/faces")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, handler, http.MethodDelete, "/faces/999999")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, handler, http.MethodDelete, "/faces/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownVerb(t *testing.T) {
	_, handler := setup(t)

	w, resp := do(t, handler, http.MethodGet, "/rib/list")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "Unknown verb", resp.StatusText)
}
