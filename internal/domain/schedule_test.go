package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay_Valid(t *testing.T) {
	cases := map[string]string{
		"08:00":    "08:00",
		"8:05":     "08:05",
		"23:59:30": "23:59:30",
		" 07:30 ":  "07:30",
	}
	for in, want := range cases {
		tod, err := ParseTimeOfDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, tod.String())
	}
}

func TestParseTimeOfDay_Invalid(t *testing.T) {
	for _, in := range []string{"", "8", "24:00", "12:60", "aa:bb", "1:2:3:4"} {
		_, err := ParseTimeOfDay(in)
		assert.Error(t, err, in)
	}
}

func entry(status SupervisorStatus, reason string) *ScheduleEntry {
	start, _ := ParseTimeOfDay("08:00")
	end, _ := ParseTimeOfDay("10:00")
	e := &ScheduleEntry{ID: "s1", ServiceDay: 1, ServiceStart: start, ServiceEnd: end, SupervisorStatus: status}
	if reason != "" {
		e.SupervisorReason = &reason
	}
	return e
}

func TestScheduleEntryIssues_Clean(t *testing.T) {
	assert.Empty(t, entry(StatusPending, "").Issues())
	assert.Empty(t, entry(StatusComplete, "").Issues())
	assert.Empty(t, entry(StatusNotComplete, "truck broke down").Issues())
}

func TestScheduleEntryIssues_MissingReason(t *testing.T) {
	issues := entry(StatusNotComplete, "").Issues()
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "without a reason")
}

func TestScheduleEntryIssues_ReasonOnComplete(t *testing.T) {
	issues := entry(StatusComplete, "leftover").Issues()
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "complete")
}

func TestScheduleEntryIssues_BadDayAndTimes(t *testing.T) {
	e := entry(StatusPending, "")
	e.ServiceDay = 9
	e.ServiceEnd = e.ServiceStart
	assert.Len(t, e.Issues(), 2)
}

func TestParseSupervisorStatus(t *testing.T) {
	s, ok := ParseSupervisorStatus("complete")
	assert.True(t, ok)
	assert.Equal(t, StatusComplete, s)

	s, ok = ParseSupervisorStatus("")
	assert.True(t, ok)
	assert.Equal(t, StatusPending, s)

	s, ok = ParseSupervisorStatus("done")
	assert.False(t, ok)
	assert.Equal(t, StatusPending, s)
}

func TestScheduleEntryIssues_UnknownStatus(t *testing.T) {
	e := entry(StatusPending, "")
	e.UnknownStatus = "weird"

	issues := e.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, `unknown supervisor_status "weird" shown as pending`, issues[0].Message)
}
