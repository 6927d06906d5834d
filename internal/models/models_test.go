package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAdminAllowList(t *testing.T) {
	list := AdminAllowList{"Owner@JW.studio", " dev@jw.studio "}

	require.True(t, list.Allows("owner@jw.studio"))
	require.True(t, list.Allows(" DEV@jw.studio"))
	require.False(t, list.Allows("someone@else.com"))
	require.False(t, list.Allows(""))
	require.False(t, AdminAllowList(nil).Allows("owner@jw.studio"))
}

func TestStatuses(t *testing.T) {
	for _, s := range ProjectStatuses {
		require.True(t, s.Valid(), s)
	}
	require.False(t, ProjectStatus("shipped").Valid())
	require.False(t, ProjectStatus("").Valid())

	require.True(t, ContactStatusRead.Valid())
	require.False(t, ContactStatus("spam").Valid())
}

func TestProjectClone(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	p := &Project{
		Token:      "JW-AAAA-BBBB-CCCC",
		Milestones: []Milestone{{Title: "Launch", DueDate: &due}},
		Updates:    []StatusUpdate{{Message: "Started"}},
	}

	c := p.Clone()
	c.Milestones[0].Title = "Changed"
	c.Updates = append(c.Updates, StatusUpdate{Message: "More"})

	require.Equal(t, "Launch", p.Milestones[0].Title)
	require.Len(t, p.Updates, 1)
}
