package segmenter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFalSAM3Client_Segment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/fal-ai/sam-3/image", r.URL.Path)
		require.Equal(t, "Key test-key", r.Header.Get("Authorization"))

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "https://img/1.jpg", req["image_url"])
		require.Equal(t, "acne, pimples", req["text_prompt"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"masks":[{"url":"https://masks/a.png"},{"url":"https://masks/b.png"},{"url":""}]}`))
	}))
	defer srv.Close()

	client := NewFalSAM3Client("test-key", srv.URL, testLogger())

	masks, err := client.Segment(context.Background(), "https://img/1.jpg", "acne, pimples")
	require.NoError(t, err)
	require.Len(t, masks, 2)
	require.Equal(t, "https://masks/a.png", masks[0].URL)
}

func TestFalSAM3Client_SegmentErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewFalSAM3Client("test-key", srv.URL, testLogger())

	_, err := client.Segment(context.Background(), "https://img/1.jpg", "acne")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestFalSAM3Client_FetchMask(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	}))
	defer srv.Close()

	client := NewFalSAM3Client("test-key", srv.URL, testLogger())

	data, err := client.FetchMask(context.Background(), srv.URL+"/mask.png")
	require.NoError(t, err)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}
