// Package capacity totals allocated weeks and classifies them against a
// capacity or an estimate. Every function is pure and safe for concurrent use.
package capacity

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/kingrea/planner/internal/plan"
)

const (
	// HealthyTolerance is the largest |allocated-target| still Healthy.
	HealthyTolerance = 0.5
	// WarningTolerance is the largest |allocated-target| still Warning.
	WarningTolerance = 1.0

	epsilon = 1e-9
)

// Health is the three-bucket classification shown on badges.
type Health int

const (
	Healthy Health = iota
	Warning
	Critical
)

func (h Health) String() string {
	switch h {
	case Healthy:
		return "healthy"
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	default:
		return fmt.Sprintf("health(%d)", int(h))
	}
}

// Classify buckets the distance between allocated and target weeks.
func Classify(allocated, target float64) Health {
	diff := math.Abs(allocated - target)
	switch {
	case diff <= HealthyTolerance+epsilon:
		return Healthy
	case diff <= WarningTolerance+epsilon:
		return Warning
	default:
		return Critical
	}
}

// AllocatedWeeks sums a member's assignment percentages as weeks.
func AllocatedWeeks(memberID uuid.UUID, allocs []plan.Allocation) float64 {
	var total float64
	for _, alloc := range allocs {
		if alloc.TeamMemberID != memberID {
			continue
		}
		total += alloc.TotalPercentage() / 100
	}
	return total
}

// ProjectAllocatedWeeks sums the share of every week given to a project.
func ProjectAllocatedWeeks(projectID uuid.UUID, allocs []plan.Allocation) float64 {
	var total float64
	for _, alloc := range allocs {
		for _, as := range alloc.Assignments {
			if as.ProjectID == projectID {
				total += as.Percentage / 100
			}
		}
	}
	return total
}

// Utilization is a ratio for display. Percent is the true ratio; Bar is
// clamped to 0..100 for progress bars.
type Utilization struct {
	Percent float64
	Bar     float64
}

// Utilize computes allocated/capacity. A non-positive capacity reports a
// full bar when anything is allocated and an empty one otherwise.
func Utilize(allocated, capacity float64) Utilization {
	if capacity <= 0 {
		if allocated > 0 {
			return Utilization{Percent: math.Inf(1), Bar: 100}
		}
		return Utilization{}
	}
	percent := allocated / capacity * 100
	return Utilization{Percent: percent, Bar: math.Max(0, math.Min(percent, 100))}
}

// Report is the badge data for one member or project.
type Report struct {
	Allocated   float64
	Target      float64
	Health      Health
	Utilization Utilization
}

// Badge renders "11.5/12.0".
func (r Report) Badge() string {
	return fmt.Sprintf("%.1f/%.1f", r.Allocated, r.Target)
}

// Neutral reports whether nothing is allocated and nothing is expected.
func (r Report) Neutral() bool {
	return r.Allocated == 0 && r.Target == 0
}

func newReport(allocated, target float64) Report {
	return Report{
		Allocated:   allocated,
		Target:      target,
		Health:      Classify(allocated, target),
		Utilization: Utilize(allocated, target),
	}
}

// MemberReport compares a member's allocated weeks with their capacity.
func MemberReport(member plan.TeamMember, allocs []plan.Allocation) Report {
	return newReport(AllocatedWeeks(member.ID, allocs), member.Capacity)
}

// ProjectReport compares a project's allocated weeks with its estimate.
func ProjectReport(project plan.TechnicalProject, allocs []plan.Allocation) Report {
	return newReport(ProjectAllocatedWeeks(project.ID, allocs), project.TotalEstimate())
}
