// Package enrich expands a document's seed terms with glossary terms found in
// the introduction of the matching encyclopedia article.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/lexandro/libindex-mcp/terms"
)

const (
	DefaultEndpoint  = "https://en.wikipedia.org/w/api.php"
	DefaultUserAgent = "libindex/1.0 (personal document library indexer)"
	DefaultTimeout   = 10 * time.Second
	DefaultRate      = 1.0
	DefaultCacheSize = 1024
	DefaultMaxSeeds  = 3
)

// Options configures a Client. Zero values take the defaults above.
type Options struct {
	Endpoint   string
	UserAgent  string
	Timeout    time.Duration
	Rate       float64 // requests per second; negative disables limiting
	CacheSize  int
	MaxSeeds   int
	Glossary   *terms.Glossary
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client queries a MediaWiki API. It is safe for concurrent use: lookups of
// the same term are collapsed and their results cached.
type Client struct {
	endpoint  string
	userAgent string
	timeout   time.Duration
	maxSeeds  int
	glossary  *terms.Glossary
	http      *http.Client
	limiter   *rate.Limiter
	cache     *lru.Cache[string, []string]
	group     singleflight.Group
	logger    *slog.Logger
}

// New creates a client.
func New(options Options) *Client {
	c := &Client{
		endpoint:  options.Endpoint,
		userAgent: options.UserAgent,
		timeout:   options.Timeout,
		maxSeeds:  options.MaxSeeds,
		glossary:  options.Glossary,
		http:      options.HTTPClient,
		logger:    options.Logger,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.maxSeeds <= 0 {
		c.maxSeeds = DefaultMaxSeeds
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	switch r := options.Rate; {
	case r < 0:
		c.limiter = rate.NewLimiter(rate.Inf, 1)
	case r == 0:
		c.limiter = rate.NewLimiter(rate.Limit(DefaultRate), 1)
	default:
		c.limiter = rate.NewLimiter(rate.Limit(r), 1)
	}

	size := options.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	c.cache, _ = lru.New[string, []string](size)
	return c
}

// SelectSeeds picks the terms worth looking up: the first max seeds that are
// glossary members, or failing that the single longest seed.
func SelectSeeds(seeds []string, glossary *terms.Glossary, max int) []string {
	var picked []string
	for _, s := range seeds {
		if len(picked) == max {
			break
		}
		if glossary.Contains(s) {
			picked = append(picked, s)
		}
	}
	if len(picked) > 0 || len(seeds) == 0 {
		return picked
	}

	byLength := append([]string(nil), seeds...)
	sort.SliceStable(byLength, func(i, j int) bool { return len(byLength[i]) > len(byLength[j]) })
	return byLength[:1]
}

// Expand looks up the selected seeds and returns the glossary terms found in
// their article introductions. Lookup failures are logged and skipped.
func (c *Client) Expand(ctx context.Context, seeds []string) []string {
	if c.glossary.Len() == 0 {
		return nil
	}

	var found [][]string
	for _, seed := range SelectSeeds(seeds, c.glossary, c.maxSeeds) {
		c.logger.Debug("expanding term", "term", seed)
		termsFound, err := c.Terms(ctx, seed)
		if err != nil {
			c.logger.Warn("encyclopedia lookup failed", "term", seed, "error", err)
			continue
		}
		found = append(found, termsFound)
	}
	return terms.SortedSet(found...)
}

// Terms returns the glossary terms of the article best matching term.
func (c *Client) Terms(ctx context.Context, term string) ([]string, error) {
	if cached, ok := c.cache.Get(term); ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(term, func() (any, error) {
		text, err := c.Lookup(ctx, term)
		if err != nil {
			return nil, err
		}
		found := c.glossary.Match(text)
		c.cache.Add(term, found)
		return found, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

type extractResponse struct {
	Query struct {
		Pages map[string]struct {
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

// Lookup searches for term and returns the plain-text introduction of the
// first result. No result yields an empty string.
func (c *Client) Lookup(ctx context.Context, term string) (string, error) {
	var search searchResponse
	err := c.get(ctx, url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {term},
		"format":   {"json"},
	}, &search)
	if err != nil {
		return "", fmt.Errorf("searching %q: %w", term, err)
	}
	if len(search.Query.Search) == 0 {
		return "", nil
	}
	title := search.Query.Search[0].Title

	var extract extractResponse
	err = c.get(ctx, url.Values{
		"action":      {"query"},
		"prop":        {"extracts"},
		"exintro":     {"1"},
		"explaintext": {"1"},
		"titles":      {title},
		"format":      {"json"},
	}, &extract)
	if err != nil {
		return "", fmt.Errorf("fetching extract of %q: %w", title, err)
	}

	ids := make([]string, 0, len(extract.Query.Pages))
	for id := range extract.Query.Pages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if text := extract.Query.Pages[id].Extract; text != "" {
			return text, nil
		}
	}
	return "", nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
