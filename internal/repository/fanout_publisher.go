package repository

import (
	"context"
	"errors"

	"MandiPulse/internal/domain/models"
	drepo "MandiPulse/internal/domain/repository"
)

// FanoutPublisher delivers each batch to every sink. All sinks are attempted
// even when one fails; the errors come back joined.
type FanoutPublisher struct {
	sinks []drepo.Publisher
}

func NewFanoutPublisher(sinks ...drepo.Publisher) *FanoutPublisher {
	return &FanoutPublisher{sinks: sinks}
}

func (f *FanoutPublisher) PublishBatch(ctx context.Context, records []models.PriceObservation) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.PublishBatch(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *FanoutPublisher) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
