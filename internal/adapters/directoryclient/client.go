// Package directoryclient talks to the membership directory service over its JSON API.
package directoryclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gymroster/internal/application/roster"
)

// DefaultTimeout bounds every request when the caller does not set one.
const DefaultTimeout = 10 * time.Second

// Client implements roster.Directory against the HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ roster.Directory = (*Client)(nil)

// New creates a client for the service at baseURL.
// PRE: baseURL is an absolute http(s) URL
// POST: timeout <= 0 falls back to DefaultTimeout
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid directory URL %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    u.String(),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type wireRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Plan       int    `json:"plan"`
	ExpiryDate string `json:"expiry_date"`
	LateDays   int    `json:"late_days"`
}

type wirePage struct {
	Results      []wireRow `json:"results"`
	CurrentPage  int       `json:"current_page"`
	TotalPages   int       `json:"total_pages"`
	TotalMembers int       `json:"total_members"`
}

type wireSummary struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
}

// SearchDirectory fetches one page of members matching c.
// PRE: c.Valid()
// POST: 1 <= CurrentPage <= TotalPages; LateDays >= 0 on every row
func (c *Client) SearchDirectory(ctx context.Context, crit roster.Criteria) (roster.ResultPage, error) {
	q := url.Values{}
	if crit.Text != "" {
		q.Set("q", crit.Text)
	}
	q.Set("status", string(crit.Status))
	q.Set("page", strconv.Itoa(crit.Page))
	q.Set("page_size", strconv.Itoa(crit.PageSize))

	var wp wirePage
	if err := c.do(ctx, http.MethodGet, "/api/members/search?"+q.Encode(), nil, &wp); err != nil {
		return roster.ResultPage{}, err
	}
	return normalizePage(wp), nil
}

// DeleteMember removes a member by id.
func (c *Client) DeleteMember(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/members/"+url.PathEscape(id), nil, nil)
}

// UpdateMember changes a member's name and phone.
// PRE: edit has passed Validate
func (c *Client) UpdateMember(ctx context.Context, id string, edit roster.MemberEdit) error {
	edit = edit.Normalize()
	body := map[string]string{"name": edit.Name, "phone": edit.Phone}
	return c.do(ctx, http.MethodPut, "/api/members/"+url.PathEscape(id), body, nil)
}

// FetchSummary returns the dashboard counts.
func (c *Client) FetchSummary(ctx context.Context) (roster.Summary, error) {
	var ws wireSummary
	if err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &ws); err != nil {
		return roster.Summary{}, err
	}
	return roster.Summary{Total: ws.Total, Active: ws.Active, Expired: ws.Expired}, nil
}

// do sends one request and decodes a JSON body into out when out is non-nil.
// Every request declares a JSON content type so the service's CSRF check exempts it.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("%w: build request: %w", roster.ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", roster.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return err
	}
	if out == nil {
		// Drain so the connection can be reused; a short body is not a failed mutation.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", roster.ErrNetwork, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	detail := strings.TrimSpace(string(msg))
	switch resp.StatusCode {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", roster.ErrValidation, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", roster.ErrNotFound, detail)
	}
	return fmt.Errorf("%w: status %d: %s", roster.ErrNetwork, resp.StatusCode, detail)
}

// normalizePage turns the wire page into the shape the roster engine relies on.
func normalizePage(wp wirePage) roster.ResultPage {
	page := roster.ResultPage{
		Results:      make([]roster.Member, 0, len(wp.Results)),
		CurrentPage:  wp.CurrentPage,
		TotalPages:   wp.TotalPages,
		TotalMembers: wp.TotalMembers,
	}
	if page.TotalPages < 1 {
		page.TotalPages = 1
	}
	if page.CurrentPage < 1 {
		page.CurrentPage = 1
	}
	if page.CurrentPage > page.TotalPages {
		page.CurrentPage = page.TotalPages
	}
	if page.TotalMembers < 0 {
		page.TotalMembers = 0
	}
	for _, r := range wp.Results {
		page.Results = append(page.Results, normalizeRow(r))
	}
	return page
}

func normalizeRow(r wireRow) roster.Member {
	m := roster.Member{
		ID:       r.ID,
		Name:     r.Name,
		Phone:    r.Phone,
		Plan:     PlanLabel(r.Plan),
		LateDays: r.LateDays,
	}
	if m.LateDays < 0 {
		m.LateDays = 0
	}
	// An unparseable date leaves the zero time; the renderer shows a dash.
	if t, err := time.Parse("2006-01-02", r.ExpiryDate); err == nil {
		m.ExpiryDate = t
	}
	return m
}

// PlanLabel renders plan months as shown in the roster, e.g. "3 mo".
func PlanLabel(months int) string {
	if months <= 0 {
		return "-"
	}
	return strconv.Itoa(months) + " mo"
}
