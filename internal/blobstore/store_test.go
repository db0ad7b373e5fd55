package blobstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundwatch/pkg/httputil"
	"github.com/wonny/fundwatch/pkg/logger"
)

// exerciseStore runs the shared Store contract against s
func exerciseStore(t *testing.T, s Store, key string) {
	t.Helper()
	ctx := context.Background()

	data, token, err := s.Read(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Empty(t, token)

	// Create
	t1, err := s.Write(ctx, key, []byte(`{"a":1}`), "", "create")
	require.NoError(t, err)
	require.NotEmpty(t, t1)

	// Create again must conflict
	_, err = s.Write(ctx, key, []byte(`{"a":2}`), "", "create again")
	assert.ErrorIs(t, err, ErrConflict)

	data, token, err = s.Read(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))
	assert.Equal(t, t1, token)

	// Update with fresh token
	t2, err := s.Write(ctx, key, []byte(`{"a":3}`), t1, "update")
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)

	// Stale token
	_, err = s.Write(ctx, key, []byte(`{"a":4}`), t1, "stale")
	assert.ErrorIs(t, err, ErrConflict)

	data, _, err = s.Read(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":3}`, string(data))
}

func TestMemoryStoreContract(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s, KeyFunds)
	assert.Equal(t, []string{"create", "update"}, s.Messages())
}

func TestMemoryStoreUpdateMissingKeyConflicts(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Write(context.Background(), "absent.json", []byte(`{}`), "deadbeef", "update")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryStoreConcurrentWritersOneWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	token, err := s.Write(ctx, KeyFactors, []byte(`{}`), "", "init")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = s.Write(ctx, KeyFactors, []byte(`{"n":`+string(rune('0'+i))+`}`), token, "race")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrConflict)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type doc struct {
		Name string `json:"name"`
	}

	var missing doc
	token, err := ReadJSON(ctx, s, KeyFunds, &missing)
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Empty(t, missing.Name)

	token, err = WriteJSON(ctx, s, KeyFunds, doc{Name: "泰康新锐C"}, "", "init")
	require.NoError(t, err)

	raw, _, err := s.Read(ctx, KeyFunds)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "泰康新锐C")
	assert.Contains(t, string(raw), "\n    \"name\"")

	var got doc
	readToken, err := ReadJSON(ctx, s, KeyFunds, &got)
	require.NoError(t, err)
	assert.Equal(t, token, readToken)
	assert.Equal(t, "泰康新锐C", got.Name)

	_, err = WriteJSON(ctx, s, KeyFunds, doc{Name: "x"}, "stale", "update")
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestEncodeKeepsHTMLAndNonASCII(t *testing.T) {
	out, err := Encode(map[string]string{"k": "<a>&中"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "<a>&中")
}

// fakeContentsAPI is a minimal GitHub contents endpoint
type fakeContentsAPI struct {
	t     *testing.T
	mu    sync.Mutex
	files map[string]string // path -> content
	shas  map[string]string
	seq   int
}

func (f *fakeContentsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/repos/me/funds/contents/")
	switch r.Method {
	case http.MethodGet:
		assert.Equal(f.t, "main", r.URL.Query().Get("ref"))
		content, ok := f.files[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		encoded := base64.StdEncoding.EncodeToString([]byte(content))
		// GitHub wraps content lines
		if len(encoded) > 8 {
			encoded = encoded[:8] + "\n" + encoded[8:]
		}
		json.NewEncoder(w).Encode(map[string]string{"content": encoded, "encoding": "base64", "sha": f.shas[path]})
	case http.MethodPut:
		var body contentsWrite
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		current, exists := f.shas[path]
		if exists && body.SHA == "" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		if body.SHA != "" && body.SHA != current {
			w.WriteHeader(http.StatusConflict)
			return
		}
		decoded, _ := base64.StdEncoding.DecodeString(body.Content)
		f.seq++
		sha := "sha" + string(rune('a'+f.seq))
		f.files[path] = string(decoded)
		f.shas[path] = sha
		json.NewEncoder(w).Encode(map[string]interface{}{"content": map[string]string{"sha": sha}})
	}
}

func newGitHubTestStore(t *testing.T) (*GitHubStore, *fakeContentsAPI) {
	api := &fakeContentsAPI{t: t, files: map[string]string{}, shas: map[string]string{}}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	client := httputil.New(logger.Nop(), time.Second).DisableRetry()
	store := NewGitHubStore(client, GitHubOptions{
		BaseURL: server.URL,
		Owner:   "me",
		Repo:    "funds",
		Branch:  "main",
		Token:   "secret",
	})
	return store, api
}

func TestGitHubStoreContract(t *testing.T) {
	store, api := newGitHubTestStore(t)
	exerciseStore(t, store, KeyNavHistory)
	assert.JSONEq(t, `{"a":3}`, api.files[KeyNavHistory])
}

func TestGitHubStoreUnauthorized(t *testing.T) {
	store, _ := newGitHubTestStore(t)
	store.token = "wrong"

	_, _, err := store.Read(context.Background(), KeyFunds)
	var statusErr *httputil.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestPostgresStoreContract(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	store := NewPostgresStore(pool)
	require.NoError(t, store.EnsureSchema(ctx))

	key := "test-" + time.Now().Format("150405.000000") + ".json"
	defer pool.Exec(ctx, `DELETE FROM fund_blobs WHERE key = $1`, key)

	exerciseStore(t, store, key)

	_, err = store.Write(ctx, key, []byte(`{}`), "not-a-number", "bad")
	assert.ErrorIs(t, err, ErrConflict)
}
