package blobstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/wonny/fundwatch/pkg/httputil"
)

// GitHubStore keeps blobs as files of a GitHub repository through the
// contents API. The file's blob sha is the token.
type GitHubStore struct {
	client  *httputil.Client
	baseURL string
	owner   string
	repo    string
	branch  string
	token   string
}

// GitHubOptions configures a GitHubStore
type GitHubOptions struct {
	BaseURL string // https://api.github.com
	Owner   string
	Repo    string
	Branch  string // empty: repository default branch
	Token   string
}

// NewGitHubStore creates a store over the GitHub contents API
func NewGitHubStore(client *httputil.Client, opts GitHubOptions) *GitHubStore {
	return &GitHubStore{
		client:  client,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		owner:   opts.Owner,
		repo:    opts.Repo,
		branch:  opts.Branch,
		token:   opts.Token,
	}
}

type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
}

type contentsWrite struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type contentsWriteResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

func (s *GitHubStore) contentsURL(key string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		s.baseURL, url.PathEscape(s.owner), url.PathEscape(s.repo), url.PathEscape(key))
}

func (s *GitHubStore) newRequest(ctx context.Context, method, target string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	return req, nil
}

// Read implements Store
func (s *GitHubStore) Read(ctx context.Context, key string) ([]byte, string, error) {
	target := s.contentsURL(key)
	if s.branch != "" {
		target += "?ref=" + url.QueryEscape(s.branch)
	}

	req, err := s.newRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("github get %s: %w", key, err)
	}

	body, err := httputil.ReadBody(resp)
	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("github get %s: %w", key, err)
	}

	var content contentsResponse
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, "", fmt.Errorf("decode contents %s: %w", key, err)
	}

	// The API wraps base64 content at 60 columns
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
	if err != nil {
		return nil, "", fmt.Errorf("decode base64 %s: %w", key, err)
	}

	return data, content.SHA, nil
}

// Write implements Store. 409 and 422 (sha missing or mismatched) map to ErrConflict.
func (s *GitHubStore) Write(ctx context.Context, key string, value []byte, token, message string) (string, error) {
	payload, err := json.Marshal(contentsWrite{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(value),
		SHA:     token,
		Branch:  s.branch,
	})
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	req, err := s.newRequest(ctx, http.MethodPut, s.contentsURL(key), payload)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("github put %s: %w", key, err)
	}

	body, err := httputil.ReadBody(resp)
	var statusErr *httputil.StatusError
	if errors.As(err, &statusErr) &&
		(statusErr.StatusCode == http.StatusConflict || statusErr.StatusCode == http.StatusUnprocessableEntity) {
		return "", ErrConflict
	}
	if err != nil {
		return "", fmt.Errorf("github put %s: %w", key, err)
	}

	var written contentsWriteResponse
	if err := json.Unmarshal(body, &written); err != nil {
		return "", fmt.Errorf("decode put response %s: %w", key, err)
	}

	return written.Content.SHA, nil
}
