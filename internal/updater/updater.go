package updater

import (
	"net/http"
	"time"

	"github.com/spf13/afero"
)

const defaultAPIBase = "https://api.github.com"

// Release is the subset of a GitHub release the version check needs.
type Release struct {
	TagName   string    `json:"tag_name"`
	Published time.Time `json:"published_at"`
	HTMLURL   string    `json:"html_url"`
}

// Updater checks GitHub for newer releases.
type Updater struct {
	currentVersion string
	httpClient     *http.Client
	apiBase        string
	token          string

	cacheFs  afero.Fs
	cacheDir string
	maxAge   time.Duration
}

// Option configures an Updater.
type Option func(*Updater)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(u *Updater) {
		u.httpClient = c
	}
}

// WithAPIBase points the updater at a different GitHub API root.
func WithAPIBase(base string) Option {
	return func(u *Updater) {
		u.apiBase = base
	}
}

// WithToken authenticates API requests for higher rate limits.
func WithToken(token string) Option {
	return func(u *Updater) {
		u.token = token
	}
}

// WithCache stores check results in dir on fs for maxAge.
func WithCache(fs afero.Fs, dir string, maxAge time.Duration) Option {
	return func(u *Updater) {
		u.cacheFs = fs
		u.cacheDir = dir
		u.maxAge = maxAge
	}
}

// New creates an Updater for the running version.
func New(currentVersion string, opts ...Option) *Updater {
	u := &Updater{
		currentVersion: currentVersion,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		apiBase:        defaultAPIBase,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// CurrentVersion returns the version this updater was created with.
func (u *Updater) CurrentVersion() string {
	return u.currentVersion
}
