package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultMessage é exibida quando nenhum texto melhor pode ser derivado da falha.
const DefaultMessage = "Ha ocurrido un error"

// APIError representa uma resposta não 2xx ou uma falha de transporte (Status 0).
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return DefaultMessage
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// DecodeError indica corpo de resposta que não corresponde ao formato esperado.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("backend: resposta inválida de %s: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UserMessage devolve o texto apresentável ao usuário para qualquer erro.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return DefaultMessage
	}
	return err.Error()
}

// StatusCode devolve o status HTTP associado ao erro, ou 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func newStatusError(status int, statusText, endpoint string, body []byte) *APIError {
	if msg := joinStringValues(body); msg != "" {
		return &APIError{Status: status, Message: msg}
	}
	fallback := fmt.Sprintf("Http failure response for %s: %s", endpoint, statusText)
	return &APIError{Status: status, Message: fmt.Sprintf("Error Code: %d\n%s", status, fallback)}
}

func newTransportError(endpoint string, err error) *APIError {
	detail := fmt.Sprintf("Http failure response for %s: %v", endpoint, err)
	return &APIError{Status: 0, Message: fmt.Sprintf("Error Code: 0\n%s", detail), Err: err}
}

// joinStringValues percorre um objeto JSON na ordem do documento e junta com
// "\n" apenas as propriedades de primeiro nível cujo valor é string. Chave
// repetida mantém a posição da primeira ocorrência e o valor da última.
func joinStringValues(body []byte) string {
	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return ""
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ""
	}

	type field struct {
		text  string
		isStr bool
	}
	var keys []string
	fields := make(map[string]field)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return ""
		}
		key, _ := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return ""
		}
		var f field
		if len(raw) > 0 && raw[0] == '"' && json.Unmarshal(raw, &f.text) == nil {
			f.isStr = true
		}
		if _, seen := fields[key]; !seen {
			keys = append(keys, key)
		}
		fields[key] = f
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return ""
	}

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if f := fields[key]; f.isStr {
			parts = append(parts, f.text)
		}
	}
	return strings.Join(parts, "\n")
}
