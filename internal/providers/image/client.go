package image

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how the generator client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	AssetBase  string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client talks to a Gemini-style image generation endpoint. When no API key
// is configured it produces deterministic synthetic URLs instead of calling
// out, so local and CI environments stay hermetic.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	assetBase  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient constructs a generator client with sane defaults. A nil HTTP
// client gets replaced with one carrying a generous timeout; renders are
// slow.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	assetBase := strings.TrimRight(opts.AssetBase, "/")
	if assetBase == "" {
		assetBase = "http://localhost:8080/static"
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		assetBase:  assetBase,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// Generate renders one on-model image for the single pose carried in
// req.Settings and returns its URL together with the instruction used.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	prompt := BuildInstruction(req)

	if c.apiKey == "" {
		return c.synthetic(req, prompt), nil
	}

	imageURL, err := c.remoteGenerate(ctx, req, prompt)
	if err != nil {
		return Result{}, err
	}
	return Result{URL: imageURL, Prompt: prompt}, nil
}

func (c *Client) synthetic(req GenerateRequest, prompt string) Result {
	pose := ""
	if len(req.Settings.Poses) > 0 {
		pose = string(req.Settings.Poses[0])
	}
	sum := sha256.Sum256([]byte(req.RequestID + "|" + pose + "|" + prompt))
	seed := hex.EncodeToString(sum[:8])
	result := Result{
		URL:    fmt.Sprintf("%s/synthetic/%s/%s.png", c.assetBase, c.model, seed),
		Prompt: prompt,
	}
	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("pose", pose).
		Msg("image: produced synthetic render")
	return result
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts,omitempty"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
	FileData   *fileData   `json:"fileData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type fileData struct {
	MimeType string `json:"mimeType,omitempty"`
	FileURI  string `json:"fileUri,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

func (c *Client) remoteGenerate(ctx context.Context, req GenerateRequest, prompt string) (string, error) {
	parts := []part{{Text: prompt}}
	if req.Garment.URL != "" {
		parts = append(parts, part{FileData: &fileData{MimeType: "image/png", FileURI: req.Garment.URL}})
	}
	payload := generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	}

	var response generateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.model))
	if err := c.invoke(ctx, path, payload, &response); err != nil {
		return "", err
	}

	for _, candidate := range response.Candidates {
		for _, p := range candidate.Content.Parts {
			if p.FileData != nil && p.FileData.FileURI != "" {
				return p.FileData.FileURI, nil
			}
			if p.InlineData != nil && p.InlineData.Data != "" {
				mime := p.InlineData.MimeType
				if mime == "" {
					mime = "image/png"
				}
				return "data:" + mime + ";base64," + p.InlineData.Data, nil
			}
		}
	}
	return "", fmt.Errorf("generator returned no image for request %s", req.RequestID)
}

func (c *Client) invoke(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := httpReq.URL.Query()
	q.Set("key", c.apiKey)
	httpReq.URL.RawQuery = q.Encode()
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("invoke generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("generator status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("generator status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("generator status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode generator response: %w", err)
	}
	return nil
}

var _ Generator = (*Client)(nil)
