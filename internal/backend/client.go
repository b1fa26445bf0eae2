package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultTimeout = 15 * time.Second

// TokenSource fornece o token bearer guardado localmente.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapta uma função a TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Config descreve o backend REST consumido.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Tokens     TokenSource
	HTTPClient *http.Client
}

// Client encapsula chamadas ao backend da escola.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	logger     zerolog.Logger
}

// New cria o cliente; o token é lido a cada requisição autenticada.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("backend: base url obrigatória")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("backend: base url inválida: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	tokens := cfg.Tokens
	if tokens == nil {
		tokens = TokenFunc(func(context.Context) (string, error) { return "", nil })
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(base, "/") + "/",
		tokens:     tokens,
		logger:     log.With().Str("component", "backend").Logger(),
	}, nil
}

// WithTokens devolve uma cópia do cliente que lê o token de outra fonte.
func (c *Client) WithTokens(tokens TokenSource) *Client {
	clone := *c
	clone.tokens = tokens
	return &clone
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + strings.TrimLeft(path, "/")
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, authed bool) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if authed {
		if err := c.authorize(ctx, req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func (c *Client) newMultipartRequest(ctx context.Context, method, path string, image *Image, data any) (*http.Request, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if image != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="imagenportada"; filename=%q`, image.Filename))
		contentType := image.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(image.Data); err != nil {
			return nil, err
		}
	}
	if err := writer.WriteField("data", string(payload)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("backend: leitura do token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}

// do executa a requisição e decodifica a resposta em v quando v não é nil.
func (c *Client) do(req *http.Request, v any) error {
	endpoint := req.URL.String()
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("falha de transporte")
		return newTransportError(endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return newTransportError(endpoint, err)
	}

	c.logger.Debug().Str("method", req.Method).Str("path", req.URL.Path).
		Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("backend_request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp.StatusCode, resp.Status, endpoint, body)
	}

	if v == nil || len(bytes.TrimSpace(body)) == 0 {
		if v != nil && expectsBody(v) {
			return &DecodeError{Endpoint: req.URL.Path, Err: errors.New("corpo vazio")}
		}
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &DecodeError{Endpoint: req.URL.Path, Err: err}
	}
	return nil
}

// expectsBody diz se o destino exige corpo; mensagens podem vir vazias.
func expectsBody(v any) bool {
	switch v.(type) {
	case *Message:
		return false
	default:
		return true
	}
}

func (c *Client) message(ctx context.Context, method, path string, body any) (Message, error) {
	req, err := c.newRequest(ctx, method, path, body, true)
	if err != nil {
		return Message{}, err
	}
	var msg Message
	if err := c.do(req, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

func (c *Client) flag(ctx context.Context, path string) (bool, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return false, err
	}
	var value bool
	if err := c.do(req, &value); err != nil {
		return false, err
	}
	return value, nil
}

func segment(value string) string {
	return url.PathEscape(value)
}
