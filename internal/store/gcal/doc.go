// Package gcal reads meetings from a Google Calendar.
//
// Events become model.Meeting values: the event id is hashed to a stable
// numeric id, and organizer and attendee emails are resolved to employee
// ids through a directory supplied by the caller. All-day and cancelled
// events are skipped. Authorization uses an OAuth2 client secrets file and
// a previously authorized token file; refreshed tokens are written back to
// the token file.
package gcal
