// Package zotero provides a Zotero Web API v3 implementation of
// refdex.CatalogSource.
package zotero

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/refdex/refdex"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Zotero API endpoint.
const DefaultBaseURL = "https://api.zotero.org"

// DefaultRequestTimeout bounds a single API request, including attachment
// downloads.
const DefaultRequestTimeout = 60 * time.Second

// defaultRequestsPerSecond keeps the client inside Zotero's politeness
// guidelines; the server additionally signals load via Backoff headers.
const defaultRequestsPerSecond = 3

// pageSize is the maximum page size the Zotero API allows.
const pageSize = 100

// Ensure Client implements refdex.CatalogSource at compile time.
var _ refdex.CatalogSource = (*Client)(nil)

// Client talks to one Zotero library (a user or group library) over the
// Web API v3. It honors the API's Backoff and Retry-After signals and
// rate limits its own requests.
type Client struct {
	baseURL     string
	libraryType string // "users" or "groups"
	libraryID   string
	apiKey      string
	timeout     time.Duration
	client      *http.Client
	limiter     *rate.Limiter

	mu           sync.Mutex
	backoffUntil time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint. Used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the timeout for individual API requests.
// Defaults to DefaultRequestTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client wholesale.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewClient creates a Client for the given library. libraryType must be
// "users" or "groups"; libraryID is the numeric library identifier.
func NewClient(libraryType, libraryID, apiKey string, opts ...Option) (*Client, error) {
	if libraryType != "users" && libraryType != "groups" {
		return nil, refdex.Errorf(refdex.EINVALID, "library type must be \"users\" or \"groups\", got %q", libraryType)
	}
	if libraryID == "" {
		return nil, refdex.Errorf(refdex.EINVALID, "library ID required")
	}

	c := &Client{
		baseURL:     DefaultBaseURL,
		libraryType: libraryType,
		libraryID:   libraryID,
		apiKey:      apiKey,
		timeout:     DefaultRequestTimeout,
		limiter:     rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultRequestsPerSecond),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}

	return c, nil
}

// wireItem is the Zotero API representation of an item, including the
// fields shared by regular items and attachment items.
type wireItem struct {
	Key     string       `json:"key"`
	Version int          `json:"version"`
	Data    wireItemData `json:"data"`
}

type wireItemData struct {
	ItemType         string        `json:"itemType"`
	Title            string        `json:"title"`
	DOI              string        `json:"DOI"`
	Date             string        `json:"date"`
	PublicationTitle string        `json:"publicationTitle"`
	Creators         []wireCreator `json:"creators"`

	// Attachment fields.
	ParentItem  string `json:"parentItem"`
	LinkMode    string `json:"linkMode"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	MD5         string `json:"md5"`
}

type wireCreator struct {
	CreatorType string `json:"creatorType"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Name        string `json:"name"`
}

// ListItems returns every item in the library with its attachment
// descriptors. It lists top-level items and attachment items in two
// paginated passes and joins them locally, which keeps the request count
// independent of library size.
func (c *Client) ListItems(ctx context.Context) ([]refdex.RemoteItem, error) {
	topItems, err := c.listPages(ctx, "/items/top", nil)
	if err != nil {
		return nil, err
	}

	attachments, err := c.listPages(ctx, "/items", url.Values{"itemType": []string{"attachment"}})
	if err != nil {
		return nil, err
	}

	byParent := make(map[string][]refdex.Attachment)
	standalone := make(map[string]refdex.Attachment)
	for _, w := range attachments {
		// Only imported attachments have content stored in Zotero;
		// linked attachments point at files on the owner's machine.
		if w.Data.LinkMode != "imported_file" && w.Data.LinkMode != "imported_url" {
			continue
		}
		att := refdex.Attachment{
			ID:          w.Key,
			Filename:    w.Data.Filename,
			ContentType: w.Data.ContentType,
			Version:     w.Version,
			Checksum:    w.Data.MD5,
		}
		if w.Data.ParentItem == "" {
			standalone[w.Key] = att
		} else {
			byParent[w.Data.ParentItem] = append(byParent[w.Data.ParentItem], att)
		}
	}

	var items []refdex.RemoteItem
	for _, w := range topItems {
		switch w.Data.ItemType {
		case "note":
			continue
		case "attachment":
			// A standalone attachment is its own top-level item.
			att, ok := standalone[w.Key]
			if !ok {
				continue
			}
			items = append(items, refdex.RemoteItem{
				ID:          w.Key,
				Metadata:    metadataFromWire(w.Data),
				Attachments: []refdex.Attachment{att},
			})
		default:
			items = append(items, refdex.RemoteItem{
				ID:          w.Key,
				Metadata:    metadataFromWire(w.Data),
				Attachments: byParent[w.Key],
			})
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

// DownloadAttachment streams the stored content of an attachment item.
func (c *Client) DownloadAttachment(ctx context.Context, attachmentID string) (io.ReadCloser, error) {
	if attachmentID == "" {
		return nil, refdex.Errorf(refdex.EINVALID, "attachment ID required")
	}

	resp, err := c.get(ctx, "/items/"+attachmentID+"/file", nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// metadataFromWire maps Zotero item fields onto the bibliographic record.
func metadataFromWire(data wireItemData) refdex.Metadata {
	title := data.Title
	if title == "" {
		title = data.Filename
	}
	return refdex.Metadata{
		Title:       title,
		Authors:     formatAuthors(data.Creators),
		Year:        ParseYear(data.Date),
		Publication: data.PublicationTitle,
		DOI:         data.DOI,
	}
}

// formatAuthors renders item creators of type "author" as
// "Last, First; Last, First". Institutional creators use their single
// name field.
func formatAuthors(creators []wireCreator) string {
	var parts []string
	for _, cr := range creators {
		if cr.CreatorType != "author" {
			continue
		}
		switch {
		case cr.Name != "":
			parts = append(parts, cr.Name)
		case cr.LastName != "" && cr.FirstName != "":
			parts = append(parts, cr.LastName+", "+cr.FirstName)
		case cr.LastName != "":
			parts = append(parts, cr.LastName)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	result := parts[0]
	for _, p := range parts[1:] {
		result += "; " + p
	}
	return result
}

// ParseYear extracts a four-digit year from a Zotero date string, which
// may be anything from "2019" to "March 3, 2019". Returns "" if no year
// is found.
func ParseYear(date string) string {
	digits := 0
	for i := 0; i < len(date); i++ {
		if date[i] >= '0' && date[i] <= '9' {
			digits++
			if digits == 4 {
				year := date[i-3 : i+1]
				if year[0] == '1' || year[0] == '2' {
					return year
				}
				digits = 0
			}
		} else {
			digits = 0
		}
	}
	return ""
}

// listPages fetches every page of a listing endpoint, following the
// Total-Results header until the collection is exhausted.
func (c *Client) listPages(ctx context.Context, path string, extra url.Values) ([]wireItem, error) {
	var all []wireItem
	start := 0
	for {
		query := url.Values{
			"format": []string{"json"},
			"limit":  []string{strconv.Itoa(pageSize)},
			"start":  []string{strconv.Itoa(start)},
		}
		for k, vs := range extra {
			query[k] = vs
		}

		resp, err := c.get(ctx, path, query)
		if err != nil {
			return nil, err
		}

		var page []wireItem
		err = json.NewDecoder(resp.Body).Decode(&page)
		total, _ := strconv.Atoi(resp.Header.Get("Total-Results"))
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("zotero: failed to decode %s response: %w", path, err)
		}

		all = append(all, page...)
		start += len(page)
		if len(page) == 0 || start >= total {
			return all, nil
		}
	}
}

// get performs a rate-limited, authenticated GET against the library
// prefix and maps error statuses onto application error codes. On success
// the caller owns the response body.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	if err := c.waitBackoff(ctx); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + "/" + c.libraryType + "/" + c.libraryID + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Zotero-API-Version", "3")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, refdex.Errorf(refdex.EUNAVAILABLE, "zotero: request failed: %v", err)
	}

	// The API signals mounting load with a Backoff header on otherwise
	// successful responses.
	if seconds, parseErr := strconv.Atoi(resp.Header.Get("Backoff")); parseErr == nil && seconds > 0 {
		c.setBackoff(time.Duration(seconds) * time.Second)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		resp.Body.Close()
		return nil, refdex.Errorf(refdex.EUNAVAILABLE, "zotero: authentication failed (HTTP %d); check the API key and library ID", resp.StatusCode)
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, refdex.Errorf(refdex.ENOTFOUND, "zotero: %s not found", path)
	case http.StatusTooManyRequests:
		if seconds, parseErr := strconv.Atoi(resp.Header.Get("Retry-After")); parseErr == nil && seconds > 0 {
			c.setBackoff(time.Duration(seconds) * time.Second)
		}
		resp.Body.Close()
		return nil, refdex.Errorf(refdex.EUNAVAILABLE, "zotero: rate limited on %s", path)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("zotero: HTTP %d for %s", resp.StatusCode, path)
	}
}

// setBackoff extends the quiet period requested by the server. A shorter
// request never shrinks an already scheduled backoff.
func (c *Client) setBackoff(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	until := time.Now().Add(d)
	if until.After(c.backoffUntil) {
		c.backoffUntil = until
	}
}

// waitBackoff sleeps out any server-requested quiet period.
func (c *Client) waitBackoff(ctx context.Context) error {
	c.mu.Lock()
	wait := time.Until(c.backoffUntil)
	c.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
