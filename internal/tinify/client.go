package tinify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
)

const (
	DefaultEndpoint = "https://api.tinify.com"
	maxOutputSize   = 64 << 20
)

type Client struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
	maxOutput  int64
}

type shrinkResponse struct {
	Input  models.FileStats `json:"input"`
	Output struct {
		models.FileStats
		URL string `json:"url"`
	} `json:"output"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "tiny-compress-images/1.0",
		maxOutput:  maxOutputSize,
	}
}

// Compress sends data to the shrink endpoint and downloads the result.
// The returned count is the number of compressions made this month, or -1
// when the service did not report it.
func (c *Client) Compress(ctx context.Context, apiKey string, data []byte) ([]byte, models.CompressionResult, int, error) {
	var result models.CompressionResult

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/shrink", bytes.NewReader(data))
	if err != nil {
		return nil, result, -1, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth("api", apiKey)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, result, -1, &Error{Code: CodeConnection, Message: "Error while connecting: " + err.Error()}
	}
	defer resp.Body.Close()

	count := compressionCount(resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, result, count, &Error{Code: CodeConnection, Message: "Error while reading response: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, result, count, decodeError(resp.StatusCode, body)
	}

	var shrunk shrinkResponse
	if err := json.Unmarshal(body, &shrunk); err != nil {
		return nil, result, count, &Error{Code: CodeServer, Message: "Error while parsing response: " + err.Error(), Status: resp.StatusCode}
	}
	if shrunk.Output.URL == "" {
		return nil, result, count, &Error{Code: CodeServer, Message: "Response did not contain an output location", Status: resp.StatusCode}
	}

	output, err := c.download(ctx, apiKey, shrunk.Output.URL)
	if err != nil {
		return nil, result, count, err
	}

	result.Input = shrunk.Input
	result.Output = shrunk.Output.FileStats
	return output, result, count, nil
}

func (c *Client) download(ctx context.Context, apiKey, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth("api", apiKey)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Code: CodeConnection, Message: "Error while downloading: " + err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxOutput+1))
	if err != nil {
		return nil, &Error{Code: CodeConnection, Message: "Error while downloading: " + err.Error()}
	}
	if int64(len(data)) > c.maxOutput {
		return nil, &Error{Code: CodeServer, Message: "Output exceeds maximum size", Status: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, data)
	}
	if len(data) == 0 {
		return nil, &Error{Code: CodeServer, Message: "Empty output", Status: resp.StatusCode}
	}
	return data, nil
}

func decodeError(status int, body []byte) *Error {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil || e.Error == "" {
		e.Error = codeForStatus(status)
		e.Message = "Error while parsing response"
	}
	return &Error{Code: e.Error, Message: e.Message, Status: status}
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusTooManyRequests:
		return CodeAccount
	case status >= 400 && status < 500:
		return CodeClient
	default:
		return CodeServer
	}
}

func compressionCount(resp *http.Response) int {
	v := resp.Header.Get("Compression-Count")
	if v == "" {
		return -1
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}
