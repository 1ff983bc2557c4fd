package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPOracle calls a model server over HTTP. One POST per tile; the engine
// treats the call as blocking and consumes only the dense result.
type HTTPOracle struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPOracle creates a client for the given predict endpoint.
// Returns nil if endpoint is empty (remote oracle disabled).
func NewHTTPOracle(endpoint string, timeout time.Duration) *HTTPOracle {
	if endpoint == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPOracle{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// request is the predict request body.
type request struct {
	Features [][]float32 `json:"features"`
	Height   int         `json:"height"`
	Width    int         `json:"width"`
}

// response is the predict response body.
type response struct {
	Probabilities []float32 `json:"probabilities"`
}

// Predict implements Oracle.
func (o *HTTPOracle) Predict(ctx context.Context, features [][]float32, tileH, tileW int) ([]float32, error) {
	body, err := json.Marshal(request{Features: features, Height: tileH, Width: tileW})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrInvocation, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrInvocation, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvocation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrInvocation, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrInvocation, resp.StatusCode, string(respBody))
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %v", ErrInvocation, err)
	}
	if len(apiResp.Probabilities) != tileH*tileW {
		return nil, fmt.Errorf("%w: got %d probabilities for %dx%d tile",
			ErrInvocation, len(apiResp.Probabilities), tileH, tileW)
	}

	slog.Debug("oracle call",
		"cells", tileH*tileW,
		"elapsed", time.Since(start),
	)
	return apiResp.Probabilities, nil
}
