//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStub_MeterReturnsError(t *testing.T) {
	meter := NewGoCVMaskMeter()

	_, err := meter.Coverage([]byte{1}, 100, 100)
	require.EqualError(t, err, "gocv build tag is not enabled")

	_, err = meter.Bounds([]byte{1}, 100, 100)
	require.EqualError(t, err, "gocv build tag is not enabled")
}

func TestStub_RendererReturnsError(t *testing.T) {
	renderer := NewGoCVOverlayRenderer(nil)

	_, err := renderer.CreateOverlay(context.Background(), []byte{1}, nil)
	require.EqualError(t, err, "gocv build tag is not enabled")
}
