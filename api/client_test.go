package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return NewClient(base, srv.Client())
}

func TestClientFromEnvironment(t *testing.T) {
	t.Setenv("STYLEGAN_HOST", "10.0.0.2:9999")
	c, err := ClientFromEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:9999", c.base.String())
}

func TestClientGenerate(t *testing.T) {
	lod := float32(1.5)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, uint64(7), req.Seed)
		assert.Equal(t, 2, req.Count)
		require.NotNil(t, req.LOD)
		assert.InDelta(t, 1.5, *req.LOD, 1e-6)

		json.NewEncoder(w).Encode(GenerateResponse{Images: []ImageData{{1, 2}, {3}}, LOD: *req.LOD, Resolution: 32})
	})

	resp, err := c.Generate(context.Background(), &GenerateRequest{Seed: 7, Count: 2, LOD: &lod})
	require.NoError(t, err)
	assert.Len(t, resp.Images, 2)
	assert.Equal(t, ImageData{1, 2}, resp.Images[0])
	assert.Equal(t, 32, resp.Resolution)
}

func TestClientStatusError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"INVALID_INPUT","error":"lod out of range"}`))
	})

	_, err := c.Score(context.Background(), &ScoreRequest{})
	var serr StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusBadRequest, serr.StatusCode)
	assert.Equal(t, "INVALID_INPUT", serr.Code)
	assert.Equal(t, "lod out of range", serr.ErrorMessage)
}

func TestClientStatusErrorPlainBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Version(context.Background())
	var serr StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "boom\n", serr.ErrorMessage)
}

func TestClientVersionAndHeartbeat(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			assert.Equal(t, http.MethodHead, r.Method)
		case "/api/version":
			json.NewEncoder(w).Encode(VersionResponse{Version: "1.2.3"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	require.NoError(t, c.Heartbeat(context.Background()))
	v, err := c.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v)
}

func TestStatusErrorMessage(t *testing.T) {
	cases := []struct {
		err  StatusError
		want string
	}{
		{StatusError{Status: "400 Bad Request", ErrorMessage: "bad"}, "400 Bad Request: bad"},
		{StatusError{Status: "500"}, "500"},
		{StatusError{ErrorMessage: "only message"}, "only message"},
	}
	for _, tt := range cases {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
