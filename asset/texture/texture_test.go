package texture

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/shapeview/asset"
	"github.com/achilleasa/shapeview/types"
)

func TestLocalTexture(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	img.Set(1, 0, color.RGBA{0, 0, 255, 255})

	imgRes, err := mockImage(t, img)
	if err != nil {
		t.Fatal(err)
	}
	defer imgRes.Close()

	tex, err := New(imgRes)
	if err != nil {
		t.Fatal(err)
	}

	if tex.Width != 2 || tex.Height != 1 {
		t.Fatalf("expected tex dims to be 2x1; got %dx%d", tex.Width, tex.Height)
	}

	// Sampling at the center of the left texel should return pure red
	got := tex.Sample(types.Vec2{0.25, 0.5})
	if math.Abs(float64(got[0]-1)) > 1e-4 || got[2] > 1e-4 {
		t.Fatalf("expected red texel; got %v", got)
	}

	// UVs wrap around
	got = tex.Sample(types.Vec2{1.75, 0.5})
	if got[0] > 1e-4 || math.Abs(float64(got[2]-1)) > 1e-4 {
		t.Fatalf("expected blue texel; got %v", got)
	}
}

func TestStreamHttpTexture(t *testing.T) {
	serverFn := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/texture.png" {
			png.Encode(w, image.NewRGBA64(image.Rect(0, 0, 1, 1)))
		} else {
			http.NotFound(w, r)
		}
	})
	server := httptest.NewServer(serverFn)
	defer server.Close()

	imgRes, err := asset.NewResource(server.URL+"/texture.png", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer imgRes.Close()

	tex, err := New(imgRes)
	if err != nil {
		t.Fatal(err)
	}

	if tex.Width != 1 || tex.Height != 1 {
		t.Fatalf("expected tex dims to be 1x1; got %dx%d", tex.Width, tex.Height)
	}
}

func TestInvalidTexture(t *testing.T) {
	res := asset.NewResourceFromStream("http://example.com/broken.png", strings.NewReader("not an image"))
	_, err := New(res)
	if err == nil {
		t.Fatal("expected decoding error")
	}
}

func TestSRGBRoundTrip(t *testing.T) {
	for _, c := range []float32{0, 0.001, 0.2, 0.5, 0.9, 1} {
		got := LinearToSRGB(SRGBToLinear(c))
		if math.Abs(float64(got-c)) > 1e-4 {
			t.Fatalf("expected %f after sRGB round trip; got %f", c, got)
		}
	}
}

func mockImage(t *testing.T, img image.Image) (*asset.Resource, error) {
	imgFile := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(imgFile)
	if err != nil {
		return nil, err
	}

	err = png.Encode(f, img)
	f.Close()
	if err != nil {
		return nil, err
	}

	return asset.NewResource(imgFile, nil)
}
