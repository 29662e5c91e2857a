package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFirstMonday(t *testing.T) {
	// Jan 1, 2025 is a Wednesday.
	got := FirstMonday(MustParseDate("2025-01-01"))
	assert.Equal(t, MustParseDate("2025-01-06"), got)
	assert.Equal(t, time.Monday, got.Weekday())
	assert.Equal(t, MustParseDate("2025-01-06"), FirstMonday(MustParseDate("2025-01-06")))
}

func TestWeekStart(t *testing.T) {
	assert.Equal(t, MustParseDate("2025-01-06"), WeekStart(MustParseDate("2025-01-08")))
	assert.Equal(t, MustParseDate("2025-01-06"), WeekStart(MustParseDate("2025-01-12")))
	assert.Equal(t, MustParseDate("2025-01-13"), WeekStart(MustParseDate("2025-01-13")))
}

func TestQuarterOf(t *testing.T) {
	for q, month := range map[int]time.Month{1: time.January, 2: time.April, 3: time.July, 4: time.October} {
		quarter, err := QuarterOf(2025, q)
		require.NoError(t, err)
		assert.Equal(t, month, quarter.FirstDay.Month())
		assert.Equal(t, 1, quarter.FirstDay.Day())
		assert.Equal(t, time.Monday, quarter.Start.Weekday())
	}
	_, err := QuarterOf(2025, 5)
	require.Error(t, err)
}

func TestNextQuarter(t *testing.T) {
	q := NextQuarter(MustParseDate("2025-02-10"))
	assert.Equal(t, "Q2 2025", q.Name())
	assert.Equal(t, MustParseDate("2025-04-07"), q.Start)

	q = NextQuarter(MustParseDate("2025-04-01"))
	assert.Equal(t, "Q2 2025", q.Name())

	q = NextQuarter(MustParseDate("2025-11-03"))
	assert.Equal(t, "Q1 2026", q.Name())
	assert.Equal(t, MustParseDate("2026-01-05"), q.Start)
}

func TestSprintBounds(t *testing.T) {
	anchor := MustParseDate("2025-01-06")

	start, end, err := SprintBounds(MustParseDate("2025-01-13"), anchor, 2)
	require.NoError(t, err)
	assert.Equal(t, MustParseDate("2025-01-06"), start)
	assert.Equal(t, MustParseDate("2025-01-19"), end)

	start, end, err = SprintBounds(MustParseDate("2025-01-20"), anchor, 2)
	require.NoError(t, err)
	assert.Equal(t, MustParseDate("2025-01-20"), start)
	assert.Equal(t, MustParseDate("2025-02-02"), end)

	start, end, err = SprintBounds(MustParseDate("2024-12-30"), anchor, 2)
	require.NoError(t, err)
	assert.Equal(t, MustParseDate("2024-12-23"), start)
	assert.Equal(t, MustParseDate("2025-01-05"), end)

	_, _, err = SprintBounds(anchor, anchor, 0)
	require.ErrorIs(t, err, ErrInvalidSprintLength)
}

func TestDateYAML(t *testing.T) {
	var doc struct {
		Bare   Date  `yaml:"bare"`
		Quoted Date  `yaml:"quoted"`
		Stamp  Date  `yaml:"stamp"`
		Empty  *Date `yaml:"empty,omitempty"`
	}
	src := "bare: 2025-01-06\nquoted: \"2025-02-03\"\nstamp: 2025-03-03T10:00:00Z\n"
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))
	assert.Equal(t, MustParseDate("2025-01-06"), doc.Bare)
	assert.Equal(t, MustParseDate("2025-02-03"), doc.Quoted)
	assert.Equal(t, MustParseDate("2025-03-03"), doc.Stamp)
	assert.Nil(t, doc.Empty)

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "2025-01-06")
	assert.NotContains(t, string(out), "empty")

	var bad struct {
		When Date `yaml:"when"`
	}
	require.Error(t, yaml.Unmarshal([]byte("when: not-a-date\n"), &bad))
}

func TestDateArithmetic(t *testing.T) {
	d := MustParseDate("2024-02-26")
	assert.Equal(t, MustParseDate("2024-03-04"), d.AddWeeks(1))
	assert.Equal(t, 7, d.AddWeeks(1).DaysSince(d))
	assert.Equal(t, -371, MustParseDate("2024-01-01").DaysSince(MustParseDate("2025-01-06")))
	assert.Equal(t, -1, d.Compare(d.AddDays(1)))
	assert.Equal(t, "", Date{}.String())
}
