package plan

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/planner/internal/calendar"
)

// FormatVersion is written into new plans.
const FormatVersion = "1.0"

// Metadata tracks the plan's format version and edit timestamps.
type Metadata struct {
	Version    string    `yaml:"version"`
	CreatedAt  time.Time `yaml:"created_at"`
	ModifiedAt time.Time `yaml:"modified_at"`
}

// NewMetadata stamps both timestamps with now.
func NewMetadata(now time.Time) Metadata {
	return Metadata{Version: FormatVersion, CreatedAt: now, ModifiedAt: now}
}

// Plan is the planning data of a single quarter.
type Plan struct {
	QuarterName       string
	QuarterStart      calendar.Date
	WeekCount         int
	RoadmapProjects   []RoadmapProject
	TechnicalProjects []TechnicalProject
	Allocations       []Allocation
	Metadata          Metadata
}

// New returns an empty plan for the quarter.
func New(quarterName string, quarterStart calendar.Date, weekCount int) Plan {
	return Plan{
		QuarterName:  quarterName,
		QuarterStart: quarterStart,
		WeekCount:    weekCount,
		Metadata:     NewMetadata(time.Now().UTC()),
	}
}

// Snapshot pairs preferences with a plan. The engine treats it as
// immutable; callers must not mutate its slices while a read is in flight.
type Snapshot struct {
	Preferences Preferences
	Plan        Plan
}

// Calendar generates the quarter's week sequence from the snapshot.
func (s Snapshot) Calendar() (*calendar.Calendar, error) {
	return calendar.Generate(s.Plan.QuarterStart, s.Plan.WeekCount, s.Preferences.SprintAnchor, s.Preferences.SprintLength)
}

// Index is a read-only lookup structure over a snapshot.
type Index struct {
	members     map[uuid.UUID]TeamMember
	technical   map[uuid.UUID]TechnicalProject
	roadmap     map[uuid.UUID]RoadmapProject
	allocations map[Key]*Allocation
	unique      []Allocation
	byMember    map[uuid.UUID][]Allocation
	duplicates  []Key
	oncall      uuid.UUID
}

// NewIndex builds lookup tables. When two allocations share a key the first
// one wins and the key is reported by Duplicates.
func NewIndex(s Snapshot) *Index {
	idx := &Index{
		members:     make(map[uuid.UUID]TeamMember, len(s.Preferences.TeamMembers)),
		technical:   make(map[uuid.UUID]TechnicalProject, len(s.Plan.TechnicalProjects)),
		roadmap:     make(map[uuid.UUID]RoadmapProject, len(s.Plan.RoadmapProjects)),
		allocations: make(map[Key]*Allocation, len(s.Plan.Allocations)),
		byMember:    make(map[uuid.UUID][]Allocation),
		oncall:      s.Preferences.Oncall(),
	}
	for _, m := range s.Preferences.TeamMembers {
		idx.members[m.ID] = m
	}
	for _, p := range s.Plan.TechnicalProjects {
		idx.technical[p.ID] = p
	}
	for _, p := range s.Plan.RoadmapProjects {
		idx.roadmap[p.ID] = p
	}
	for i := range s.Plan.Allocations {
		alloc := &s.Plan.Allocations[i]
		key := alloc.Key()
		if _, exists := idx.allocations[key]; exists {
			idx.duplicates = append(idx.duplicates, key)
			continue
		}
		idx.allocations[key] = alloc
		idx.unique = append(idx.unique, *alloc)
		idx.byMember[alloc.TeamMemberID] = append(idx.byMember[alloc.TeamMemberID], *alloc)
	}
	return idx
}

// Member returns the team member with id.
func (i *Index) Member(id uuid.UUID) (TeamMember, bool) {
	m, ok := i.members[id]
	return m, ok
}

// TechnicalProject returns the technical project with id.
func (i *Index) TechnicalProject(id uuid.UUID) (TechnicalProject, bool) {
	p, ok := i.technical[id]
	return p, ok
}

// RoadmapProject returns the roadmap project with id.
func (i *Index) RoadmapProject(id uuid.UUID) (RoadmapProject, bool) {
	p, ok := i.roadmap[id]
	return p, ok
}

// Allocation returns the allocation for a member's week, if any.
func (i *Index) Allocation(memberID uuid.UUID, week calendar.Date) (*Allocation, bool) {
	a, ok := i.allocations[Key{TeamMemberID: memberID, WeekStart: week}]
	return a, ok
}

// MemberAllocations returns a member's allocations ordered by week.
func (i *Index) MemberAllocations(memberID uuid.UUID) []Allocation {
	allocs := append([]Allocation(nil), i.byMember[memberID]...)
	sort.Slice(allocs, func(a, b int) bool {
		return allocs[a].WeekStart.Before(allocs[b].WeekStart)
	})
	return allocs
}

// Allocations returns every allocation except shadowed duplicates, in input
// order. Capacity figures computed from it match the grid.
func (i *Index) Allocations() []Allocation { return append([]Allocation(nil), i.unique...) }

// Duplicates lists keys that appeared more than once.
func (i *Index) Duplicates() []Key { return append([]Key(nil), i.duplicates...) }

// Oncall returns the reserved oncall project id.
func (i *Index) Oncall() uuid.UUID { return i.oncall }

// ProjectColor returns the colour of the roadmap project a technical project
// rolls up to, or fallback when it has none.
func (i *Index) ProjectColor(p TechnicalProject, fallback ProjectColor) ProjectColor {
	if p.RoadmapProjectID == nil {
		return fallback
	}
	rp, ok := i.roadmap[*p.RoadmapProjectID]
	if !ok || rp.Color == "" {
		return fallback
	}
	return rp.Color
}

// String summarises the index for log lines.
func (i *Index) String() string {
	return fmt.Sprintf("members=%d technical=%d roadmap=%d allocations=%d",
		len(i.members), len(i.technical), len(i.roadmap), len(i.allocations))
}
