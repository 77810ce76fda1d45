package gcal

import (
	"context"
	"hash/fnv"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/Iron-Ham/taskwatch/internal/errors"
	"github.com/Iron-Ham/taskwatch/internal/logging"
	"github.com/Iron-Ham/taskwatch/internal/model"
	"github.com/Iron-Ham/taskwatch/internal/store"
)

// UnknownEmployeeID is used for an organizer whose email is not in the
// directory.
const UnknownEmployeeID int64 = -1

// Option configures a Store.
type Option func(*Store)

// WithDirectory sets the email to employee id mapping used to resolve
// organizers and attendees. Emails are matched case-insensitively.
func WithDirectory(directory map[string]int64) Option {
	return func(s *Store) {
		s.directory = make(map[string]int64, len(directory))
		for email, id := range directory {
			s.directory[strings.ToLower(email)] = id
		}
	}
}

// WithLogger sets the logger for skipped events.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Store implements store.MeetingStore over a Google Calendar.
type Store struct {
	srv        *calendar.Service
	calendarID string
	directory  map[string]int64
	logger     *logging.Logger
}

var _ store.MeetingStore = (*Store)(nil)

// New creates a Store reading calendarID through srv.
func New(srv *calendar.Service, calendarID string, opts ...Option) *Store {
	s := &Store{
		srv:        srv,
		calendarID: calendarID,
		directory:  map[string]int64{},
		logger:     logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DirectoryFromEmployees builds a directory from employees that have an email.
func DirectoryFromEmployees(employees []model.Employee) map[string]int64 {
	dir := make(map[string]int64, len(employees))
	for _, e := range employees {
		if e.Email != "" {
			dir[e.Email] = e.ID
		}
	}
	return dir
}

// Meetings lists single event instances whose start matches filter.
func (s *Store) Meetings(ctx context.Context, filter store.MeetingFilter) ([]model.Meeting, error) {
	call := s.srv.Events.List(s.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		ShowDeleted(false)
	if !filter.From.IsZero() {
		call = call.TimeMin(filter.From.Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		// TimeMax is exclusive; the filter bound is inclusive.
		call = call.TimeMax(filter.To.Add(time.Second).Format(time.RFC3339))
	}

	var meetings []model.Meeting
	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, ev := range page.Items {
			m, ok := s.toMeeting(ev)
			if !ok {
				continue
			}
			if filter.Match(m) {
				meetings = append(meetings, m)
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return meetings, nil
}

func (s *Store) toMeeting(ev *calendar.Event) (model.Meeting, bool) {
	if ev == nil || ev.Status == "cancelled" {
		return model.Meeting{}, false
	}
	if ev.Start == nil || ev.Start.DateTime == "" {
		// All-day events have no start instant to remind about.
		return model.Meeting{}, false
	}
	start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		s.logger.Warn("skipping event with unparseable start",
			"event_id", ev.Id, "start", ev.Start.DateTime, "error", err)
		return model.Meeting{}, false
	}
	var end time.Time
	if ev.End != nil && ev.End.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, ev.End.DateTime); err == nil {
			end = t
		}
	}

	m := model.Meeting{
		ID:          EventID(ev.Id),
		Title:       ev.Summary,
		Start:       start,
		End:         end,
		OrganizerID: UnknownEmployeeID,
	}
	if ev.Organizer != nil {
		if id, ok := s.lookup(ev.Organizer.Email); ok {
			m.OrganizerID = id
		}
	}
	for _, a := range ev.Attendees {
		if a == nil || a.ResponseStatus == "declined" {
			continue
		}
		if id, ok := s.lookup(a.Email); ok && id != m.OrganizerID {
			m.AttendeeIDs = append(m.AttendeeIDs, id)
		}
	}
	return m, true
}

func (s *Store) lookup(email string) (int64, bool) {
	if email == "" {
		return 0, false
	}
	id, ok := s.directory[strings.ToLower(email)]
	return id, ok
}

// EventID maps a calendar event id to a stable non-negative meeting id.
func EventID(eventID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(eventID))
	return int64(h.Sum64() & (1<<63 - 1))
}

// classify wraps API failures as store errors, retryable for throttling and
// server faults.
func classify(err error) error {
	storeErr := errors.NewStoreError("list calendar events", err).WithEntity("meeting")
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		retryable := apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
		return storeErr.WithRetryable(retryable)
	}
	return storeErr
}
