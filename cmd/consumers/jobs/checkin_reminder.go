package jobs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hotelbook/internal/logger"
	"hotelbook/internal/models"
	"hotelbook/internal/notify"

	"github.com/go-co-op/gocron/v2"
)

const CheckinReminderName = "checkin_reminder"

// DueStore lists bookings arriving on a day.
type DueStore interface {
	DueForCheckin(ctx context.Context, day time.Time) ([]models.Booking, error)
}

// Notifier delivers a change to every audience.
type Notifier interface {
	Publish(ctx context.Context, c notify.Change) []string
}

// CheckinReminderJob notifies guests whose stay starts today.
type CheckinReminderJob struct {
	bookings DueStore
	notifier Notifier
	location *time.Location
	now      func() time.Time
}

func NewCheckinReminderJob(bookings DueStore, notifier Notifier, location *time.Location) *CheckinReminderJob {
	if location == nil {
		location = time.Local
	}
	return &CheckinReminderJob{bookings: bookings, notifier: notifier, location: location, now: time.Now}
}

// Run sends one reminder per due booking and returns how many were sent.
func (j *CheckinReminderJob) Run(ctx context.Context) (int, error) {
	now := j.now().In(j.location)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	due, err := j.bookings.DueForCheckin(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("failed to list bookings due for check-in: %w", err)
	}

	for _, b := range due {
		j.notifier.Publish(ctx, notify.Change{
			Booking:      b,
			PropertyName: b.PropertyName,
			Previous:     b.Status,
			Current:      b.Status,
			Kind:         notify.KindReminder,
		})
	}

	logger.Get().Info("Check-in reminders sent", "day", day.Format("2006-01-02"), "count", len(due))
	return len(due), nil
}

// ParseAt reads a daily "HH:MM" run time.
func ParseAt(s string) (gocron.AtTime, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	h, errH := strconv.ParseUint(hh, 10, 8)
	m, errM := strconv.ParseUint(mm, 10, 8)
	if !ok || errH != nil || errM != nil || h > 23 || m > 59 {
		return nil, fmt.Errorf("invalid run time %q, want HH:MM", s)
	}
	return gocron.NewAtTime(uint(h), uint(m), 0), nil
}

// Schedule registers the job to run daily at the given time.
func (j *CheckinReminderJob) Schedule(ctx context.Context, s gocron.Scheduler, at string) (gocron.Job, error) {
	atTime, err := ParseAt(at)
	if err != nil {
		return nil, err
	}
	return s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(atTime)),
		gocron.NewTask(func() {
			if _, err := j.Run(ctx); err != nil {
				logger.Get().Error("Check-in reminder job failed", "error", err)
			}
		}),
		gocron.WithName(CheckinReminderName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}
