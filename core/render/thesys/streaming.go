package thesys

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/adaeng/enhance-core/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultBaseURL = "https://api.thesys.dev/v1/visualize"
	defaultModel   = "c1-nightly"

	chunkPrefix = "data:"
	endMessage  = "[DONE]"
)

// Client streams visual component payloads from the visualize API. The API
// speaks the chat-completions wire format, so transcript conversion mirrors
// the completion client.
type Client struct {
	apiKey  string
	model   string
	baseURL string
}

type ClientOption func(*Client)

// WithAPIKey overrides the key otherwise taken from THESYS_API_KEY.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) { c.apiKey = apiKey }
}

func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(baseURL, "/") }
}

func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{model: defaultModel, baseURL: defaultBaseURL}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		apiKey, ok := os.LookupEnv("THESYS_API_KEY")
		if !ok {
			return nil, fmt.Errorf("thesys api key not found")
		}
		c.apiKey = apiKey
	}

	return c, nil
}

// StreamVisualization requests a streamed rendering of the transcript's
// final assistant message and yields payload fragments in arrival order.
func (c *Client) StreamVisualization(ctx context.Context, transcript []llms.Message) func(func(string, error) bool) {
	return func(yield func(string, error) bool) {
		ctx, span := tracer.Start(ctx, "stream visualization")
		defer span.End()
		span.SetAttributes(attribute.String("request.model", c.model))

		reqBody := requestBody{
			Model:    c.model,
			Messages: toMessages(transcript),
			Stream:   true,
		}

		requestBodyBytes, err := json.Marshal(reqBody)
		if err != nil {
			err = fmt.Errorf("error marshalling JSON: %w", err)
			span.RecordError(err)
			yield("", err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(requestBodyBytes))
		if err != nil {
			err = fmt.Errorf("error creating HTTP request: %w", err)
			span.RecordError(err)
			yield("", err)
			return
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		client := &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
		resp, err := client.Do(req)
		if err != nil {
			err = fmt.Errorf("error sending request: %w", err)
			span.RecordError(err)
			yield("", err)
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode != http.StatusOK {
			if errorBody, readErr := io.ReadAll(resp.Body); readErr == nil {
				span.SetAttributes(attribute.String("response.error", string(errorBody)))
			}
			err := fmt.Errorf("non-OK HTTP status: %s", resp.Status)
			span.RecordError(err)
			yield("", err)
			return
		}

		fragments := 0
		defer func() {
			span.SetAttributes(attribute.Int("response.fragments", fragments))
		}()
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			chunk := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), chunkPrefix))

			if len(chunk) == 0 {
				continue
			}

			if chunk == endMessage {
				break
			}

			var responseBody streamingResponseBody
			if err := json.Unmarshal([]byte(chunk), &responseBody); err != nil {
				err = fmt.Errorf("error unmarshalling JSON: %w", err)
				span.RecordError(err)
				if !yield("", err) {
					return
				}
				continue
			}

			if len(responseBody.Choices) == 0 {
				continue
			}
			if delta := responseBody.Choices[0].Delta.Content; delta != "" {
				fragments++
				if !yield(delta, nil) {
					return
				}
			}
		}

		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("error reading streamed response: %w", err))
			return
		}
	}
}

type streamingResponseBody struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

type requestBody struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toMessages(transcript []llms.Message) []message {
	messages := make([]message, 0, len(transcript))
	for _, entry := range transcript {
		if entry.Content == "" {
			continue
		}
		messages = append(messages, message{
			Role:    string(entry.Role),
			Content: entry.Content,
		})
	}
	return messages
}
