package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/rising-tools/roomservice/internal/branding"
)

// DefaultTimeout bounds a registry fetch when no timeout is configured.
const DefaultTimeout = 10 * time.Second

var (
	// ErrFetch is returned when the registry cannot be downloaded.
	ErrFetch = errors.New("failed to fetch device registry")
	// ErrParse is returned when the registry is not well-formed XML.
	ErrParse = errors.New("failed to parse device registry")
)

// Fetcher downloads the device registry.
type Fetcher struct {
	url        string
	httpClient *http.Client
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.httpClient = c
	}
}

// WithTimeout bounds the whole request, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		c := *f.httpClient
		c.Timeout = d
		f.httpClient = &c
	}
}

// New creates a Fetcher for the registry at url.
func New(url string, opts ...Option) *Fetcher {
	f := &Fetcher{
		url:        url,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// URL returns the registry location.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch downloads the registry and returns the repository names of all
// project elements, in document order.
func (f *Fetcher) Fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", branding.CLIName())

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrFetch, f.url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrFetch, err)
	}
	return ParseNames(body)
}

// ParseNames extracts the name attribute of every project element at any
// depth of an XML registry document.
func ParseNames(data []byte) ([]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", ErrParse)
	}

	var names []string
	for _, el := range doc.FindElements("//project") {
		if name := el.SelectAttrValue("name", ""); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
