package sable

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock exposes time to guest code. Reads are synchronous and never fail
// under normal operation; Format can reject a malformed layout or zone.
// Sleep is the one suspending operation: it accepts cancellation through
// ctx and leaves no residual effect when cancelled.
type Clock interface {
	Module
	Now() time.Time
	NowUTC() time.Time
	UnixMilli() int64
	Since(unixMilli int64) time.Duration
	Format(unixMilli int64, layout, zone string) (string, error)
	Sleep(ctx context.Context, d time.Duration) error
}

// ClockConfig injects the time sources. Nil fields use the real clock.
type ClockConfig struct {
	Now   func() time.Time
	Timer func(d time.Duration) <-chan time.Time
}

// NewClockCapability constructs the time capability.
func NewClockCapability(cfg ClockConfig) (Clock, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Timer == nil {
		cfg.Timer = func(d time.Duration) <-chan time.Time { return time.After(d) }
	}
	return &clockModule{now: cfg.Now, timer: cfg.Timer}, nil
}

// MustNewClockCapability constructs the time capability or panics.
func MustNewClockCapability(cfg ClockConfig) Clock {
	clock, err := NewClockCapability(cfg)
	if err != nil {
		panic(err)
	}
	return clock
}

type clockModule struct {
	now   func() time.Time
	timer func(d time.Duration) <-chan time.Time
}

func (c *clockModule) ModuleName() string { return "time" }

func (c *clockModule) Now() time.Time    { return c.now() }
func (c *clockModule) NowUTC() time.Time { return c.now().UTC() }
func (c *clockModule) UnixMilli() int64  { return c.now().UnixMilli() }

func (c *clockModule) Since(unixMilli int64) time.Duration {
	return c.now().Sub(time.UnixMilli(unixMilli))
}

// Format renders a millisecond timestamp. An empty layout means RFC 3339;
// zone accepts "", "UTC"/"GMT"/"Z", "Local", fixed offsets like "+02:00",
// or an IANA zone name.
func (c *clockModule) Format(unixMilli int64, layout, zone string) (string, error) {
	if layout == "" {
		layout = time.RFC3339
	}
	loc, err := parseZone(zone)
	if err != nil {
		return "", err
	}
	ts := time.UnixMilli(unixMilli)
	if loc != nil {
		ts = ts.In(loc)
	}
	return ts.Format(layout), nil
}

func (c *clockModule) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	select {
	case <-c.timer(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func parseZone(zone string) (*time.Location, error) {
	if zone == "" {
		return nil, nil
	}
	switch strings.ToUpper(zone) {
	case "UTC", "GMT", "Z":
		return time.UTC, nil
	case "LOCAL":
		return time.Local, nil
	}
	if len(zone) == 6 && (zone[0] == '+' || zone[0] == '-') && zone[3] == ':' {
		sign := 1
		if zone[0] == '-' {
			sign = -1
		}
		hours, errH := strconv.Atoi(zone[1:3])
		mins, errM := strconv.Atoi(zone[4:])
		if errH != nil || errM != nil {
			return nil, fmt.Errorf("time.format: invalid zone offset %q", zone)
		}
		offset := sign * (hours*3600 + mins*60)
		return time.FixedZone(zone, offset), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("time.format: invalid zone %q", zone)
	}
	return loc, nil
}
