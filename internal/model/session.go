package model

import (
	"fmt"
	"time"
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) minutes() int { return c.Hour*60 + c.Minute }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// Session describes the regular trading hours of an exchange.
type Session struct {
	Location *time.Location
	Open     Clock
	Close    Clock
}

func (s Session) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// Contains reports whether t falls inside [Open, Close] in the session's time zone.
func (s Session) Contains(t time.Time) bool {
	lt := t.In(s.loc())
	m := lt.Hour()*60 + lt.Minute()
	return m >= s.Open.minutes() && m <= s.Close.minutes()
}

// OpenOn returns the session open on the trading day of t.
func (s Session) OpenOn(t time.Time) time.Time {
	lt := t.In(s.loc())
	return time.Date(lt.Year(), lt.Month(), lt.Day(), s.Open.Hour, s.Open.Minute, 0, 0, s.loc())
}

// SameDay reports whether a and b share a calendar day in the session's time zone.
func (s Session) SameDay(a, b time.Time) bool {
	ay, am, ad := a.In(s.loc()).Date()
	by, bm, bd := b.In(s.loc()).Date()
	return ay == by && am == bm && ad == bd
}

// CloseOn returns the session close on the trading day of t.
func (s Session) CloseOn(t time.Time) time.Time {
	lt := t.In(s.loc())
	return time.Date(lt.Year(), lt.Month(), lt.Day(), s.Close.Hour, s.Close.Minute, 0, 0, s.loc())
}

// In converts t to the session's time zone.
func (s Session) In(t time.Time) time.Time { return t.In(s.loc()) }
