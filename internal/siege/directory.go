package siege

import (
	"errors"
	"fmt"

	"github.com/Wishmaster117/mod-city-siege/internal/model"
)

var (
	// ErrDuplicateActor is returned when an identity is registered twice.
	ErrDuplicateActor = errors.New("actor already registered")
	// ErrActorNotFound is returned for identities the directory does not track.
	ErrActorNotFound = errors.New("actor not registered")
)

// Entry is what the directory knows about one actor.
type Entry struct {
	Tier     model.Tier
	Progress Progress
}

// Role returns the side the entry fights for.
func (e Entry) Role() model.Role { return e.Progress.Role }

// Directory is the single source of truth for siege actor progression:
// identity → tier, role and path index. It is not safe for concurrent
// use; the event loop is the only writer.
type Directory struct {
	entries       map[int64]Entry
	waypointCount int
}

// NewDirectory creates a directory for a path of waypointCount waypoints.
func NewDirectory(waypointCount int) *Directory {
	return &Directory{
		entries:       make(map[int64]Entry),
		waypointCount: waypointCount,
	}
}

// Register adds a new identity at the start of its role's march.
func (d *Directory) Register(id int64, tier model.Tier, role model.Role) error {
	if _, exists := d.entries[id]; exists {
		return fmt.Errorf("%w: id %d", ErrDuplicateActor, id)
	}
	d.entries[id] = Entry{
		Tier:     tier,
		Progress: StartProgress(role, d.waypointCount),
	}
	return nil
}

// Get looks up an identity.
func (d *Directory) Get(id int64) (Entry, bool) {
	e, ok := d.entries[id]
	return e, ok
}

// Advance moves an identity one leg forward, clamping at the terminal.
// advanced is false for unknown identities and for actors already at
// the terminal.
func (d *Directory) Advance(id int64) (p Progress, advanced bool) {
	e, ok := d.entries[id]
	if !ok {
		return Progress{}, false
	}
	next, moved := e.Progress.Advance(d.waypointCount)
	if !moved {
		return e.Progress, false
	}
	e.Progress = next
	d.entries[id] = e
	return next, true
}

// Reassign transfers a dead actor's slot to its replacement: the new
// identity inherits tier and role and restarts from the role's first
// leg. The old identity is removed.
func (d *Directory) Reassign(oldID, newID int64) error {
	old, ok := d.entries[oldID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrActorNotFound, oldID)
	}
	if _, exists := d.entries[newID]; exists && newID != oldID {
		return fmt.Errorf("%w: id %d", ErrDuplicateActor, newID)
	}
	delete(d.entries, oldID)
	d.entries[newID] = Entry{
		Tier:     old.Tier,
		Progress: StartProgress(old.Role(), d.waypointCount),
	}
	return nil
}

// Reset restarts an identity from the first leg of its role, keeping
// the identity itself. Used for bots, which survive death.
func (d *Directory) Reset(id int64) error {
	e, ok := d.entries[id]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrActorNotFound, id)
	}
	e.Progress = StartProgress(e.Role(), d.waypointCount)
	d.entries[id] = e
	return nil
}

// Remove forgets an identity. Unknown identities are a no-op.
func (d *Directory) Remove(id int64) {
	delete(d.entries, id)
}

// Len returns the number of tracked identities.
func (d *Directory) Len() int { return len(d.entries) }

// WaypointCount returns the path length the directory was built for.
func (d *Directory) WaypointCount() int { return d.waypointCount }
