package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/mmynk/lunchtab/internal/analysis"
	"github.com/mmynk/lunchtab/internal/models"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.NRGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

type fakeAnalyzer struct {
	ext   *analysis.Extraction
	err   error
	calls int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, imageBase64 string) (*analysis.Extraction, error) {
	f.calls++
	if imageBase64 == "" {
		return nil, errors.New("empty image")
	}
	return f.ext, f.err
}

func sampleExtraction() *analysis.Extraction {
	return &analysis.Extraction{
		Restaurant: &analysis.ExtractedRestaurant{Name: " Pho 24 ", Phone: "555-0100"},
		Items: []analysis.ExtractedItem{
			{Name: "Pho Bo", Price: 65},
			{Name: "Iced Tea", Price: -5},
			{Name: "Spring Rolls", Price: 32.6},
		},
	}
}

func TestNormalize(t *testing.T) {
	t.Run("downscales wide images", func(t *testing.T) {
		img, err := Normalize(pngBytes(t, 2400, 1600), 1200, 80)
		if err != nil {
			t.Fatalf("Normalize failed: %v", err)
		}
		if img.Width != 1200 || img.Height != 800 {
			t.Errorf("expected 1200x800, got %dx%d", img.Width, img.Height)
		}

		decoded, err := jpeg.Decode(bytes.NewReader(img.JPEG))
		if err != nil {
			t.Fatalf("output is not a JPEG: %v", err)
		}
		if decoded.Bounds().Dx() != 1200 {
			t.Errorf("expected encoded width 1200, got %d", decoded.Bounds().Dx())
		}
	})

	t.Run("never upscales", func(t *testing.T) {
		img, err := Normalize(pngBytes(t, 300, 200), 1200, 80)
		if err != nil {
			t.Fatalf("Normalize failed: %v", err)
		}
		if img.Width != 300 || img.Height != 200 {
			t.Errorf("expected 300x200, got %dx%d", img.Width, img.Height)
		}
	})

	t.Run("data url", func(t *testing.T) {
		img, err := Normalize(pngBytes(t, 10, 10), 0, 0)
		if err != nil {
			t.Fatalf("Normalize failed: %v", err)
		}
		if !strings.HasPrefix(img.DataURL(), "data:image/jpeg;base64,") {
			t.Errorf("unexpected data url prefix %q", img.DataURL()[:30])
		}
	})

	t.Run("not an image", func(t *testing.T) {
		if _, err := Normalize([]byte("definitely not a picture"), 1200, 80); err == nil {
			t.Error("expected error for non-image input")
		}
	})
}

func TestPipeline_Ingest(t *testing.T) {
	ctx := context.Background()
	raw := pngBytes(t, 64, 48)

	t.Run("primary success", func(t *testing.T) {
		primary := &fakeAnalyzer{ext: sampleExtraction()}
		fallback := &fakeAnalyzer{}
		p := &Pipeline{Primary: primary, Fallback: fallback}

		res, err := p.Ingest(ctx, raw)
		if err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
		if fallback.calls != 0 {
			t.Errorf("fallback should not run, ran %d times", fallback.calls)
		}

		menu := res.Menu
		if menu.Restaurant.Name != "Pho 24" || menu.Restaurant.Address != "" {
			t.Errorf("unexpected restaurant %+v", menu.Restaurant)
		}
		if len(menu.Items) != 3 {
			t.Fatalf("expected 3 items, got %d", len(menu.Items))
		}
		for i, want := range []int64{65, 0, 33} {
			if menu.Items[i].Price != want {
				t.Errorf("item %d price = %d, want %d", i, menu.Items[i].Price, want)
			}
		}
		if !strings.HasPrefix(menu.ImageURL, "data:image/jpeg;base64,") {
			t.Error("expected image url to be a JPEG data url")
		}
		if len(res.JPEG) == 0 {
			t.Error("expected normalized JPEG bytes")
		}

		seen := map[string]bool{}
		for _, item := range menu.Items {
			if seen[item.ID] {
				t.Errorf("duplicate id %s", item.ID)
			}
			seen[item.ID] = true
		}
	})

	t.Run("fallback on unreachable endpoint", func(t *testing.T) {
		primary := &fakeAnalyzer{err: fmt.Errorf("%w: status 502", analysis.ErrUnreachable)}
		fallback := &fakeAnalyzer{ext: sampleExtraction()}
		p := &Pipeline{Primary: primary, Fallback: fallback}

		res, err := p.Ingest(ctx, raw)
		if err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
		if fallback.calls != 1 {
			t.Errorf("expected one fallback call, got %d", fallback.calls)
		}
		if len(res.Menu.Items) != 3 {
			t.Errorf("expected 3 items, got %d", len(res.Menu.Items))
		}
	})

	t.Run("no fallback on malformed response", func(t *testing.T) {
		primary := &fakeAnalyzer{err: fmt.Errorf("%w: not json", analysis.ErrMalformedResponse)}
		fallback := &fakeAnalyzer{ext: sampleExtraction()}
		p := &Pipeline{Primary: primary, Fallback: fallback}

		_, err := p.Ingest(ctx, raw)
		if err == nil {
			t.Fatal("expected error")
		}
		if fallback.calls != 0 {
			t.Errorf("fallback should not run, ran %d times", fallback.calls)
		}
		if !errors.Is(err, models.ErrIngestion) || !errors.Is(err, analysis.ErrMalformedResponse) {
			t.Errorf("expected ingestion error wrapping ErrMalformedResponse, got %v", err)
		}
		if !strings.HasPrefix(err.Error(), "ingestion failed: ") {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("unreachable without fallback", func(t *testing.T) {
		p := &Pipeline{Primary: &fakeAnalyzer{err: analysis.ErrUnreachable}}
		_, err := p.Ingest(ctx, raw)
		if !errors.Is(err, models.ErrIngestion) || !errors.Is(err, analysis.ErrUnreachable) {
			t.Errorf("expected ingestion error wrapping ErrUnreachable, got %v", err)
		}
	})

	t.Run("fallback also fails", func(t *testing.T) {
		p := &Pipeline{
			Primary:  &fakeAnalyzer{err: analysis.ErrUnreachable},
			Fallback: &fakeAnalyzer{err: analysis.ErrProvider},
		}
		_, err := p.Ingest(ctx, raw)
		if !errors.Is(err, analysis.ErrUnreachable) || !errors.Is(err, analysis.ErrProvider) {
			t.Errorf("expected both causes, got %v", err)
		}
	})

	t.Run("fallback only", func(t *testing.T) {
		p := &Pipeline{Fallback: &fakeAnalyzer{ext: &analysis.Extraction{}}}
		res, err := p.Ingest(ctx, raw)
		if err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
		if res.Menu.Items == nil || len(res.Menu.Items) != 0 {
			t.Errorf("expected empty non-nil items, got %#v", res.Menu.Items)
		}
	})

	t.Run("no analysis path", func(t *testing.T) {
		_, err := (&Pipeline{}).Ingest(ctx, raw)
		if !errors.Is(err, ErrNoAnalysisPath) {
			t.Errorf("expected ErrNoAnalysisPath, got %v", err)
		}
		if !errors.Is(err, models.ErrIngestion) {
			t.Errorf("expected ErrIngestion, got %v", err)
		}
		if errors.Is(err, models.ErrConfiguration) {
			t.Errorf("a missing analysis path is an ingestion failure, got %v", err)
		}
	})

	t.Run("empty upload", func(t *testing.T) {
		primary := &fakeAnalyzer{}
		_, err := (&Pipeline{Primary: primary}).Ingest(ctx, nil)
		if !errors.Is(err, models.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		if err.Error() != "ingestion failed: no image provided" {
			t.Errorf("unexpected message %q", err.Error())
		}
		if primary.calls != 0 {
			t.Errorf("analyzer should not run, ran %d times", primary.calls)
		}
	})

	t.Run("undecodable upload", func(t *testing.T) {
		primary := &fakeAnalyzer{}
		_, err := (&Pipeline{Primary: primary}).Ingest(ctx, []byte("GIF89a-broken"))
		if !errors.Is(err, models.ErrIngestion) {
			t.Errorf("expected ErrIngestion, got %v", err)
		}
		if primary.calls != 0 {
			t.Errorf("analyzer should not run, ran %d times", primary.calls)
		}
	})
}
