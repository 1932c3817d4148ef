// Package indexclient hands parsed courses to a remote index service over HTTP.
package indexclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dgallion1/coursegest/internal/course"
)

// Client communicates with the index service HTTP API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CourseRequest is the body for PUT /courses/{title}.
type CourseRequest struct {
	Course course.Course `json:"course"`
	Chunks []ChunkRecord `json:"chunks"`
}

// ChunkRecord is one chunk in the shape vector stores ingest.
type ChunkRecord struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// AddCourse stores a course and replaces any chunks previously stored for it.
func (c *Client) AddCourse(ctx context.Context, crs course.Course, chunks []course.Chunk) error {
	req := CourseRequest{Course: crs, Chunks: make([]ChunkRecord, 0, len(chunks))}
	for _, ch := range chunks {
		req.Chunks = append(req.Chunks, ChunkRecord{
			ID:       ch.ID(),
			Content:  ch.Content,
			Metadata: ch.Metadata(),
		})
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal course: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, c.courseURL(crs.Title), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.do(httpReq)
	if err != nil {
		return fmt.Errorf("put course: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return statusError("put course "+crs.Title, resp)
	}
	return nil
}

// HasCourse reports whether the index already holds a course with title.
func (c *Client) HasCourse(ctx context.Context, title string) (bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodHead, c.courseURL(title), nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.do(httpReq)
	if err != nil {
		return false, fmt.Errorf("head course: %w", err)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, statusError("head course "+title, resp)
}

// ListCourses returns the titles of all indexed courses.
func (c *Client) ListCourses(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/courses", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("list courses", resp)
	}

	var result struct {
		Titles []string `json:"titles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode courses: %w", err)
	}
	return result.Titles, nil
}

// Clear deletes every course and chunk from the index.
func (c *Client) Clear(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/courses", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.do(httpReq)
	if err != nil {
		return fmt.Errorf("clear courses: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return statusError("clear courses", resp)
	}
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) courseURL(title string) string {
	return c.baseURL + "/courses/" + url.PathEscape(title)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return c.httpClient.Do(req)
}

// statusError turns an unexpected response into an error. Rate limiting and
// server errors are retryable.
func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(body))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
