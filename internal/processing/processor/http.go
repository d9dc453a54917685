package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vietddude/inventorybot/internal/core/domain"
)

// HTTPOperation submits batches to a remote inventory API.
type HTTPOperation struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPOperation creates an HTTP-backed downstream operation.
func NewHTTPOperation(endpoint string, timeout time.Duration) *HTTPOperation {
	return &HTTPOperation{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Operation returns h as an Operation.
func (h *HTTPOperation) Operation() Operation {
	return h.Call
}

// Call posts the batch id and tags the failure by status code.
func (h *HTTPOperation) Call(ctx context.Context, id domain.BatchID) error {
	jsonData, err := json.Marshal(map[string]string{"batch_id": id.String()})
	if err != nil {
		return domain.NewAPIError(fmt.Sprintf("marshal request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return domain.NewAPIError(fmt.Sprintf("create request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return domain.WrapTransient("inventory api call", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	return classifyStatus(resp.StatusCode, body)
}

func classifyStatus(code int, body []byte) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests:
		return domain.NewTransientError(fmt.Sprintf("http %d: %s", code, bytes.TrimSpace(body)))
	case code >= 500:
		return domain.NewTransientError(fmt.Sprintf("http %d: %s", code, bytes.TrimSpace(body)))
	default:
		return domain.NewAPIError(fmt.Sprintf("http %d: %s", code, bytes.TrimSpace(body)))
	}
}
