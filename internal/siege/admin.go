package siege

import (
	"fmt"
	"strings"
	"time"
)

// Admin maps textual commands onto orchestrator calls. It backs both
// the in-game command handler and the operator console.
type Admin struct {
	orc    *Orchestrator
	reload func() error
}

// NewAdmin creates the command dispatcher.
func NewAdmin(orc *Orchestrator) *Admin {
	return &Admin{orc: orc}
}

// SetReload registers the callback the reload command invokes,
// typically a config re-read followed by Orchestrator.Reconfigure.
func (a *Admin) SetReload(fn func() error) {
	a.reload = fn
}

// Execute runs one command and returns a human-readable result.
// Commands: start [city], stop [city], cleanup, status, waypoints
// <city>, reload.
func (a *Admin) Execute(now time.Time, line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return a.usage()
	}
	cmd := strings.ToLower(fields[0])
	arg := strings.Join(fields[1:], " ")

	switch cmd {
	case "start":
		event, err := a.orc.StartSiege(now, arg)
		if err != nil {
			return err.Error()
		}
		return fmt.Sprintf("siege started at %s", event.City().Name)

	case "stop":
		if err := a.orc.StopSiege(now, arg); err != nil {
			return err.Error()
		}
		return "siege stopped"

	case "cleanup":
		count := a.orc.Cleanup(now)
		return fmt.Sprintf("cleaned up %d siege(s)", count)

	case "status":
		return a.status(now)

	case "waypoints":
		return a.waypoints(arg)

	case "reload":
		if a.reload == nil {
			return "reload is not available"
		}
		if err := a.reload(); err != nil {
			return err.Error()
		}
		return "config reloaded"

	default:
		return a.usage()
	}
}

func (a *Admin) status(now time.Time) string {
	statuses := a.orc.Status(now)
	if len(statuses) == 0 {
		next := a.orc.NextSiegeAt()
		if next.IsZero() {
			return "no active siege"
		}
		return fmt.Sprintf("no active siege, next at %s", next.Format(time.RFC3339))
	}

	var b strings.Builder
	for i, s := range statuses {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: phase %s, %s remaining", s.City, s.Phase, s.Remaining.Round(time.Second))
		if s.Winner != OutcomeNone {
			fmt.Fprintf(&b, ", winner %s", s.Winner)
		}
	}
	return b.String()
}

func (a *Admin) waypoints(cityName string) string {
	if cityName == "" {
		return "usage: waypoints <city>"
	}
	city := a.orc.CityByName(cityName)
	if city == nil {
		return fmt.Sprintf("%s: %s", ErrCityNotFound.Error(), cityName)
	}
	if len(city.Waypoints) == 0 {
		return fmt.Sprintf("%s has no waypoints: attackers march straight from rally to objective", city.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d waypoint(s)", city.Name, len(city.Waypoints))
	for i, wp := range city.Waypoints {
		fmt.Fprintf(&b, "\n  %d: (%.1f, %.1f, %.1f)", i, wp.X, wp.Y, wp.Z)
	}
	return b.String()
}

func (a *Admin) usage() string {
	return "commands: start [city], stop [city], cleanup, status, waypoints <city>, reload"
}
