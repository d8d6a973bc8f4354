package calendar

import (
	"fmt"
	"time"

	"example.com/campus/services/events/internal/models"

	ical "github.com/arran4/golang-ical"
	"github.com/pkg/errors"
)

// BuildICSFeed serializes a user's attending events into an iCalendar feed
// that standard calendar apps can subscribe to. Event times are rendered in
// the service time zone.
func BuildICSFeed(events []*models.Event, timeZone string) (string, error) {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		return "", errors.Wrapf(err, "unknown time zone %q", timeZone)
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//campus//events//EN")

	now := time.Now()
	for _, event := range events {
		start, err := parseEventTime(event.Date, event.StartTime, loc)
		if err != nil {
			return "", errors.Wrapf(err, "event %s has unparseable start", event.ID)
		}
		end, err := parseEventTime(event.Date, event.EndTime, loc)
		if err != nil {
			return "", errors.Wrapf(err, "event %s has unparseable end", event.ID)
		}

		ve := cal.AddEvent(event.ID.String())
		ve.SetDtStampTime(now)
		ve.SetStartAt(start)
		ve.SetEndAt(end)
		ve.SetSummary(event.Title)
		ve.SetLocation(formatLocation(event))
		ve.SetDescription(event.Description)
	}

	return cal.Serialize(), nil
}

func parseEventTime(date, hhmm string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", fmt.Sprintf("%s %s", date, hhmm), loc)
}
