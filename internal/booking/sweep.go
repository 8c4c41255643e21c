package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// SweepStaleScheduled cancels appointments that are still scheduled after
// their date has passed: the patient never confirmed, so the booking is
// closed through the ordinary scheduled → cancelled transition. Intended to
// be called periodically by the sweep worker. Returns the number cancelled.
func (s *Service) SweepStaleScheduled(ctx context.Context) (int, error) {
	appts, err := s.appts.GetAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("load appointments for sweep: %w", err)
	}

	today := DateFromTime(nowFunc())
	cancelled := 0

	for i := range appts {
		a := &appts[i]
		if a.Status != StatusScheduled || !a.Date.Before(today) {
			continue
		}

		if err := a.Cancel(); err != nil {
			// Lost a race with a concurrent transition; skip it.
			continue
		}
		if err := s.appts.UpdateFromStatus(ctx, a.ID, StatusScheduled, a); err != nil {
			if errors.Is(err, ErrStatusChanged) {
				continue
			}
			log.Printf("failed to cancel stale appointment %s: %v", a.ID, err)
			continue
		}
		log.Printf("swept stale appointment appointment_id=%s slot=%s", a.ID, SlotKey(a.Date, a.Time))
		cancelled++
	}

	return cancelled, nil
}
