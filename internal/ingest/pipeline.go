// Package ingest turns an uploaded menu photo into a menu: normalize the
// image, run it through an analyzer (the trusted endpoint first, a direct
// provider call as fallback) and map the model output onto models.Menu.
//
// Ingest never writes to the store; the caller merges the result.
package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmynk/lunchtab/internal/analysis"
	"github.com/mmynk/lunchtab/internal/ident"
	"github.com/mmynk/lunchtab/internal/metrics"
	"github.com/mmynk/lunchtab/internal/models"
)

// ErrNoAnalysisPath means neither an endpoint nor a fallback key is configured.
var ErrNoAnalysisPath = errors.New("no analysis path")

// Error is an ingestion failure. Kind is models.ErrValidation or
// models.ErrIngestion, so errors.Is works on both the kind and the
// underlying cause.
type Error struct {
	Kind   error
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := "ingestion failed: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Result is an ingested menu plus the normalized image it came from.
type Result struct {
	Menu models.Menu
	JPEG []byte
}

// Pipeline runs ingestion. Primary and Fallback are both optional; with
// neither, every Ingest fails with ErrNoAnalysisPath.
type Pipeline struct {
	Primary  analysis.Analyzer
	Fallback analysis.Analyzer

	MaxWidth int
	Quality  int

	IDs     *ident.Monotonic
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Ingest normalizes raw, analyzes it and returns the extracted menu with
// ImageURL set. The fallback is tried only when the primary analyzer is
// unreachable; a primary that answers with garbage is final.
func (p *Pipeline) Ingest(ctx context.Context, raw []byte) (*Result, error) {
	if len(raw) == 0 {
		return nil, &Error{Kind: models.ErrValidation, Reason: "no image provided"}
	}
	if p.Primary == nil && p.Fallback == nil {
		return nil, &Error{Kind: models.ErrIngestion, Reason: "no analysis path", Err: ErrNoAnalysisPath}
	}

	img, err := Normalize(raw, p.MaxWidth, p.Quality)
	if err != nil {
		return nil, &Error{Kind: models.ErrIngestion, Reason: "unreadable image", Err: err}
	}

	ext, err := p.analyze(ctx, img.Base64())
	if err != nil {
		return nil, &Error{Kind: models.ErrIngestion, Reason: "analysis failed", Err: err}
	}

	ids := p.IDs
	if ids == nil {
		ids = ident.NewMonotonic()
	}
	menu := toMenu(ext, ids)
	menu.ImageURL = img.DataURL()

	p.logger().Info("Menu ingested", "restaurant", menu.Restaurant.Name, "items", len(menu.Items),
		"width", img.Width, "height", img.Height)
	return &Result{Menu: menu, JPEG: img.JPEG}, nil
}

func (p *Pipeline) analyze(ctx context.Context, imageBase64 string) (*analysis.Extraction, error) {
	if p.Primary == nil {
		return p.run(ctx, "fallback", p.Fallback, imageBase64)
	}

	ext, err := p.run(ctx, "primary", p.Primary, imageBase64)
	if err == nil {
		return ext, nil
	}
	if !errors.Is(err, analysis.ErrUnreachable) || p.Fallback == nil {
		return nil, err
	}

	p.logger().Warn("Analysis endpoint unreachable, using fallback", "error", err)
	ext, fbErr := p.run(ctx, "fallback", p.Fallback, imageBase64)
	if fbErr != nil {
		return nil, errors.Join(err, fbErr)
	}
	return ext, nil
}

func (p *Pipeline) run(ctx context.Context, path string, a analysis.Analyzer, imageBase64 string) (*analysis.Extraction, error) {
	ext, err := a.Analyze(ctx, imageBase64)
	if err != nil {
		p.Metrics.Ingested(path, "error")
		return nil, err
	}
	p.Metrics.Ingested(path, "ok")
	return ext, nil
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
