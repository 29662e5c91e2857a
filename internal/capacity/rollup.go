package capacity

import (
	"sort"

	"github.com/google/uuid"

	"github.com/kingrea/planner/internal/calendar"
	"github.com/kingrea/planner/internal/plan"
)

// RoleWeeks splits a total by discipline.
type RoleWeeks struct {
	Eng float64
	Sci float64
}

// Total is Eng + Sci.
func (r RoleWeeks) Total() float64 { return r.Eng + r.Sci }

func (r *RoleWeeks) add(role plan.Role, weeks float64) {
	switch role {
	case plan.RoleEngineering:
		r.Eng += weeks
	case plan.RoleScience:
		r.Sci += weeks
	}
}

// RoadmapAllocated sums the weeks given to every technical project linked to
// a roadmap project, split by the role of the member doing the work.
// Allocations of members missing from the roster are ignored.
func RoadmapAllocated(roadmapID uuid.UUID, s plan.Snapshot) RoleWeeks {
	linked := make(map[uuid.UUID]struct{})
	for _, tp := range s.Plan.TechnicalProjects {
		if tp.RoadmapProjectID != nil && *tp.RoadmapProjectID == roadmapID {
			linked[tp.ID] = struct{}{}
		}
	}
	var weeks RoleWeeks
	if len(linked) == 0 {
		return weeks
	}
	for _, alloc := range s.Plan.Allocations {
		member, ok := s.Preferences.Member(alloc.TeamMemberID)
		if !ok {
			continue
		}
		for _, as := range alloc.Assignments {
			if _, ok := linked[as.ProjectID]; ok {
				weeks.add(member.Role, as.Percentage/100)
			}
		}
	}
	return weeks
}

// RoadmapReport compares roadmap allocation with its estimates per role.
type RoadmapReport struct {
	Allocated RoleWeeks
	Eng       Report
	Sci       Report
	Total     Report
}

// ReportRoadmap builds the badges of a roadmap project.
func ReportRoadmap(project plan.RoadmapProject, s plan.Snapshot) RoadmapReport {
	allocated := RoadmapAllocated(project.ID, s)
	return RoadmapReport{
		Allocated: allocated,
		Eng:       newReport(allocated.Eng, project.EngEstimate),
		Sci:       newReport(allocated.Sci, project.SciEstimate),
		Total:     newReport(allocated.Total(), project.TotalEstimate()),
	}
}

// TeamCapacity sums roster capacity by role.
func TeamCapacity(members []plan.TeamMember) RoleWeeks {
	var weeks RoleWeeks
	for _, m := range members {
		weeks.add(m.Role, m.Capacity)
	}
	return weeks
}

// TeamAllocated sums allocated weeks by role across the roster.
func TeamAllocated(members []plan.TeamMember, allocs []plan.Allocation) RoleWeeks {
	var weeks RoleWeeks
	for _, m := range members {
		weeks.add(m.Role, AllocatedWeeks(m.ID, allocs))
	}
	return weeks
}

// ProjectWeekRange returns the first and last week a project is assigned.
func ProjectWeekRange(projectID uuid.UUID, allocs []plan.Allocation) (first, last calendar.Date, ok bool) {
	for _, alloc := range allocs {
		if !alloc.HasProject(projectID) {
			continue
		}
		if !ok || alloc.WeekStart.Before(first) {
			first = alloc.WeekStart
		}
		if !ok || alloc.WeekStart.After(last) {
			last = alloc.WeekStart
		}
		ok = true
	}
	return first, last, ok
}

// AssignedMembers lists the distinct members working on a project, in
// order of their first allocation.
func AssignedMembers(projectID uuid.UUID, allocs []plan.Allocation) []uuid.UUID {
	type seen struct {
		id    uuid.UUID
		first calendar.Date
	}
	byID := make(map[uuid.UUID]int)
	var members []seen
	for _, alloc := range allocs {
		if !alloc.HasProject(projectID) {
			continue
		}
		if i, ok := byID[alloc.TeamMemberID]; ok {
			if alloc.WeekStart.Before(members[i].first) {
				members[i].first = alloc.WeekStart
			}
			continue
		}
		byID[alloc.TeamMemberID] = len(members)
		members = append(members, seen{id: alloc.TeamMemberID, first: alloc.WeekStart})
	}
	sort.SliceStable(members, func(a, b int) bool {
		return members[a].first.Before(members[b].first)
	})
	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.id
	}
	return ids
}

// DateSuggestion is a sprint-aligned start and expected completion.
type DateSuggestion struct {
	Start              calendar.Date
	ExpectedCompletion calendar.Date
}

// SuggestProjectDates aligns a project's dates to sprint boundaries: the
// start of the sprint holding its first allocated week and the end of the
// sprint holding its last. ok is false when nothing is allocated.
func SuggestProjectDates(projectID uuid.UUID, allocs []plan.Allocation, anchor calendar.Date, sprintLength int) (DateSuggestion, bool, error) {
	first, last, ok := ProjectWeekRange(projectID, allocs)
	if !ok {
		return DateSuggestion{}, false, nil
	}
	start, _, err := calendar.SprintBounds(first, anchor, sprintLength)
	if err != nil {
		return DateSuggestion{}, false, err
	}
	_, end, err := calendar.SprintBounds(last, anchor, sprintLength)
	if err != nil {
		return DateSuggestion{}, false, err
	}
	return DateSuggestion{Start: start, ExpectedCompletion: end}, true, nil
}
