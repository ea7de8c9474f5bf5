package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// whisperModel is the transcription model used for every account; only the
// spoken language varies per request.
const whisperModel = "whisper-1"

// OpenAIClient talks to the OpenAI API on behalf of one account. It covers
// the two calls voxtask makes: audio transcription and task suggestion.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// OpenAIOption customizes an OpenAIClient.
type OpenAIOption func(*OpenAIClient)

// WithOpenAIBaseURL overrides the API base URL, without a trailing slash.
// Empty values are ignored.
func WithOpenAIBaseURL(u string) OpenAIOption {
	return func(c *OpenAIClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithOpenAIHTTPClient substitutes the underlying HTTP client.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(c *OpenAIClient) {
		if client != nil {
			c.client = client
		}
	}
}

// NewOpenAIClient creates a client authenticated with the given API key.
// Transcription uploads can be large, so the default timeout is looser than
// the Todoist client's.
func NewOpenAIClient(apiKey string, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		apiKey:  apiKey,
		baseURL: defaultOpenAIBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe uploads an audio recording to the Whisper endpoint and returns
// the transcript as plain text. language is an ISO 639-1 code and may be
// empty to let the model detect the language.
func (c *OpenAIClient) Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("building transcription form: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("copying audio into form: %w", err)
	}
	if err := form.WriteField("model", whisperModel); err != nil {
		return "", fmt.Errorf("building transcription form: %w", err)
	}
	if err := form.WriteField("response_format", "text"); err != nil {
		return "", fmt.Errorf("building transcription form: %w", err)
	}
	if language != "" {
		if err := form.WriteField("language", language); err != nil {
			return "", fmt.Errorf("building transcription form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("finalizing transcription form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("building transcription request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("posting audio to openai: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai transcription returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	return strings.TrimSpace(string(payload)), nil
}
