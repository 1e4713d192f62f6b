// Package calendar adapts external calendars into busy intervals for the
// availability engine. Sources are opaque: the engine only ever sees the
// interval bounds, never the events behind them.
package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"salonbook/internal/availability"
)

// BusySource yields the intervals an external calendar considers occupied
// inside [from, to).
type BusySource interface {
	Busy(ctx context.Context, from, to time.Time) ([]availability.BusyInterval, error)
}

// GoogleSource reads busy time from a Google calendar via the FreeBusy API.
// The access token is used as-is; refreshing it is the credential owner's
// problem, not ours.
type GoogleSource struct {
	CalendarID string
	svc        *gcal.Service
}

func NewGoogleSource(ctx context.Context, calendarID, accessToken string) (*GoogleSource, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create calendar client: %w", err)
	}
	return &GoogleSource{CalendarID: calendarID, svc: svc}, nil
}

func (g *GoogleSource) Busy(ctx context.Context, from, to time.Time) ([]availability.BusyInterval, error) {
	req := &gcal.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: g.CalendarID}},
	}

	resp, err := g.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query for %s: %w", g.CalendarID, err)
	}

	cal, ok := resp.Calendars[g.CalendarID]
	if !ok {
		return nil, fmt.Errorf("calendar %s missing from freebusy response", g.CalendarID)
	}

	var busy []availability.BusyInterval
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("parse busy start %q: %w", period.Start, err)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("parse busy end %q: %w", period.End, err)
		}
		busy = append(busy, availability.BusyInterval{
			Start:  start,
			End:    end,
			Source: availability.BusySourceCalendar,
		})
	}
	return busy, nil
}
