package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPOraclePredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, 2, req.Height)
		require.Equal(t, 2, req.Width)
		require.Len(t, req.Features, 4)

		probs := make([]float32, len(req.Features))
		for i, vec := range req.Features {
			probs[i] = vec[0]
		}
		json.NewEncoder(w).Encode(response{Probabilities: probs})
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL, 5*time.Second)
	features := [][]float32{{0.1}, {0.2}, {0.3}, {0.4}}
	probs, err := o.Predict(context.Background(), features, 2, 2)
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3, 0.4}, probs)
}

func TestHTTPOracleServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL, 5*time.Second)
	_, err := o.Predict(context.Background(), [][]float32{{0.5}}, 1, 1)
	require.ErrorIs(t, err, ErrInvocation)
}

func TestHTTPOracleShapeMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(response{Probabilities: []float32{0.5}})
	}))
	defer srv.Close()

	o := NewHTTPOracle(srv.URL, 5*time.Second)
	_, err := o.Predict(context.Background(), [][]float32{{0.5}, {0.5}}, 1, 2)
	require.ErrorIs(t, err, ErrInvocation)
}

func TestHTTPOracleDisabledOnEmptyEndpoint(t *testing.T) {
	require.Nil(t, NewHTTPOracle("", time.Second))
}
