package enrich

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexandro/libindex-mcp/terms"
)

type fakeWiki struct {
	extracts  map[string]string // search term -> extract
	searches  atomic.Int32
	userAgent atomic.Value
}

func (f *fakeWiki) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.userAgent.Store(r.Header.Get("User-Agent"))
	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case q.Get("list") == "search":
		f.searches.Add(1)
		term := q.Get("srsearch")
		results := []map[string]string{}
		if _, ok := f.extracts[term]; ok {
			results = append(results, map[string]string{"title": term})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"query": map[string]any{"search": results}})
	case q.Get("prop") == "extracts":
		title := q.Get("titles")
		_ = json.NewEncoder(w).Encode(map[string]any{"query": map[string]any{
			"pages": map[string]any{"42": map[string]string{"extract": f.extracts[title]}},
		}})
	default:
		http.Error(w, "bad request", http.StatusBadRequest)
	}
}

func newTestClient(t *testing.T, handler http.Handler, glossary *terms.Glossary) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Options{
		Endpoint: server.URL,
		Rate:     -1,
		Glossary: glossary,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func Test_SelectSeeds(t *testing.T) {
	glossary := terms.NewGlossary([]string{"algebra", "group", "ring", "field"})

	assert.Equal(t, []string{"algebra", "field", "group"},
		SelectSeeds([]string{"algebra", "field", "group", "ring", "zebra"}, glossary, 3))
	assert.Equal(t, []string{"abstraction"},
		SelectSeeds([]string{"abstraction", "basics", "nonsense"}, glossary, 3))
	assert.Equal(t, []string{"aaaa"},
		SelectSeeds([]string{"aaaa", "bbbb"}, nil, 3), "ties keep the first seed")
	assert.Empty(t, SelectSeeds(nil, glossary, 3))
}

func Test_Client_Expand(t *testing.T) {
	wiki := &fakeWiki{extracts: map[string]string{
		"quantum mechanics": "Quantum mechanics describes nature at the scale of atoms using the Hilbert space and the wave function.",
	}}
	glossary := terms.NewGlossary([]string{"quantum mechanics", "hilbert space", "wave function", "atoms"})
	client := newTestClient(t, wiki, glossary)

	got := client.Expand(context.Background(), []string{"mechanics", "quantum", "quantum mechanics"})
	assert.Equal(t, []string{"atoms", "hilbert space", "quantum mechanics", "wave function"}, got)
	assert.Equal(t, DefaultUserAgent, wiki.userAgent.Load())
}

func Test_Client_Expand_NoSearchResult(t *testing.T) {
	wiki := &fakeWiki{extracts: map[string]string{}}
	client := newTestClient(t, wiki, terms.NewGlossary([]string{"topology"}))

	assert.Empty(t, client.Expand(context.Background(), []string{"topology"}))
	assert.Equal(t, int32(1), wiki.searches.Load())
}

func Test_Client_Expand_EmptyGlossarySkipsNetwork(t *testing.T) {
	wiki := &fakeWiki{extracts: map[string]string{"topology": "topology"}}
	client := newTestClient(t, wiki, nil)

	assert.Empty(t, client.Expand(context.Background(), []string{"topology"}))
	assert.Equal(t, int32(0), wiki.searches.Load())
}

func Test_Client_Expand_ServerErrorIsSkipped(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	client := newTestClient(t, handler, terms.NewGlossary([]string{"topology"}))

	assert.Empty(t, client.Expand(context.Background(), []string{"topology"}))

	_, err := client.Terms(context.Background(), "topology")
	assert.Error(t, err)
}

func Test_Client_Terms_CachedAndCollapsed(t *testing.T) {
	wiki := &fakeWiki{extracts: map[string]string{"group theory": "Group theory studies the group."}}
	client := newTestClient(t, wiki, terms.NewGlossary([]string{"group theory", "group"}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := client.Terms(context.Background(), "group theory")
			assert.NoError(t, err)
			assert.Equal(t, []string{"group", "group theory"}, got)
		}()
	}
	wg.Wait()

	before := wiki.searches.Load()
	_, err := client.Terms(context.Background(), "group theory")
	require.NoError(t, err)
	assert.Equal(t, before, wiki.searches.Load(), "second lookup must be served from cache")
	assert.LessOrEqual(t, before, int32(8))
}

func Test_Client_Lookup_Timeout(t *testing.T) {
	release := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	server := httptest.NewServer(handler)
	defer server.Close()
	defer close(release)

	client := New(Options{Endpoint: server.URL, Rate: -1, Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := client.Lookup(context.Background(), "slow")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
