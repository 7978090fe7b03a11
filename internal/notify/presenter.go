package notify

import (
	"context"
	"errors"

	"github.com/oshokin/commute-alarm/internal/logger"
	"github.com/oshokin/commute-alarm/internal/metrics"
)

// Presenter shows notifications. Setup is called once before the first Present.
type Presenter interface {
	Setup(ctx context.Context) error
	Present(ctx context.Context, req Request) error
}

// LogPresenter writes notifications to the structured log.
type LogPresenter struct{}

// Setup implements Presenter.
func (LogPresenter) Setup(context.Context) error {
	return nil
}

// Present implements Presenter.
func (LogPresenter) Present(ctx context.Context, req Request) error {
	ctx = logger.WithName(ctx, "notify")

	rows := make([]string, 0, len(req.Lines))
	for _, row := range req.Lines {
		rows = append(rows, row.String())
	}

	logger.InfoKV(ctx, req.Title,
		"kind", req.Kind,
		"channel", req.Channel.String(),
		"lines", rows,
		"summary", req.Summary,
		"target", req.Target.Kind,
	)

	metrics.IncNotification("log", metrics.ResultSuccess)

	return nil
}

// Fanout presents every request through all of its presenters.
type Fanout []Presenter

// Setup initializes every presenter, joining failures.
func (f Fanout) Setup(ctx context.Context) error {
	var errs []error

	for _, p := range f {
		if err := p.Setup(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Present delivers req to every presenter; one failing does not stop the rest.
func (f Fanout) Present(ctx context.Context, req Request) error {
	var errs []error

	for _, p := range f {
		if err := p.Present(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
