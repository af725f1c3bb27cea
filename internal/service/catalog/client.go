package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"sprouting-academy/internal/domain"
)

// Client reads published documents from the Payload CMS REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a CMS HTTP client.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// docID accepts both numeric and string Payload ids.
type docID string

func (d *docID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*d = docID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*d = docID(n.String())
	return nil
}

type CourseDoc struct {
	ID             docID    `json:"id"`
	Title          string   `json:"title"`
	Price          int64    `json:"price"`
	TotalTime      string   `json:"totalTime"`
	ClassType      string   `json:"classType"`
	AvailableDates []string `json:"availableDates"`
}

type EbookDoc struct {
	ID        docID  `json:"id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	PageCount *int   `json:"pageCount"`
}

type BootcampDoc struct {
	ID        docID    `json:"id"`
	Title     string   `json:"title"`
	Price     int64    `json:"price"`
	StartDate string   `json:"startDate"`
	Duration  string   `json:"duration"`
	Schedule  string   `json:"schedule"`
	Features  []string `json:"features"`
}

func collection(t domain.ItemType) (string, error) {
	switch t {
	case domain.ItemTypeCourse:
		return "courses", nil
	case domain.ItemTypeEbook:
		return "ebooks", nil
	case domain.ItemTypeBootcamp:
		return "bootcamps", nil
	default:
		return "", &domain.ValidationError{Field: "itemType", Message: "unsupported item type"}
	}
}

func (c *Client) getDoc(ctx context.Context, t domain.ItemType, id string, out interface{}) error {
	coll, err := collection(t)
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/api/%s/%s?depth=0", c.baseURL, coll, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("cms request failed", zap.String("collection", coll), zap.String("id", id), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("cms returned %d for %s/%s: %s", resp.StatusCode, coll, id, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s/%s: %w", coll, id, err)
	}
	return nil
}

func (c *Client) Course(ctx context.Context, id string) (*CourseDoc, error) {
	var doc CourseDoc
	if err := c.getDoc(ctx, domain.ItemTypeCourse, id, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) Ebook(ctx context.Context, id string) (*EbookDoc, error) {
	var doc EbookDoc
	if err := c.getDoc(ctx, domain.ItemTypeEbook, id, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) Bootcamp(ctx context.Context, id string) (*BootcampDoc, error) {
	var doc BootcampDoc
	if err := c.getDoc(ctx, domain.ItemTypeBootcamp, id, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
