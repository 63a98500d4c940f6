package notification

import (
	"errors"
	"testing"
	"time"

	xerrors "funkard-admin-service/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFilters_Normalize(t *testing.T) {
	f, err := ListFilters{Type: "  ", Priority: "", Status: ""}.Normalize()
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())

	f, err = ListFilters{Type: "error", Priority: "HIGH", Status: "Resolved"}.Normalize()
	require.NoError(t, err)
	require.NotNil(t, f.Type)
	assert.Equal(t, "error", *f.Type)
	assert.Equal(t, PriorityHigh, *f.Priority)
	assert.Equal(t, StatusResolved, *f.Status)
}

func TestListFilters_RejectsUnknownValues(t *testing.T) {
	_, err := ListFilters{Status: "pending"}.Normalize()
	require.Error(t, err)
	assert.True(t, errors.Is(err, xerrors.ErrInvalidFilter))
	assert.True(t, errors.Is(err, xerrors.ErrInvalidInput))

	_, err = ListFilters{Priority: "urgent"}.Normalize()
	assert.True(t, errors.Is(err, xerrors.ErrInvalidFilter))
}

func TestFilter_Matches(t *testing.T) {
	now := time.Now()
	resolvedActive := &Notification{Type: "error", Priority: PriorityHigh, ResolvedAt: &now}
	resolvedArchived := &Notification{Type: "error", Priority: PriorityLow, ResolvedAt: &now, Archived: true}
	openActive := &Notification{Type: "market", Priority: PriorityHigh}
	archivedOnly := &Notification{Type: "market", Priority: PriorityMedium, Archived: true}

	status := func(s StatusFilter) Filter { return Filter{Status: &s} }
	typ := func(s string) Filter { return Filter{Type: &s} }
	prio := func(p Priority) Filter { return Filter{Priority: &p} }

	tests := []struct {
		name   string
		filter Filter
		want   []bool // resolvedActive, resolvedArchived, openActive, archivedOnly
	}{
		{"no filter matches all", Filter{}, []bool{true, true, true, true}},
		{"active ignores resolution", status(StatusActive), []bool{true, false, true, false}},
		{"archived ignores resolution", status(StatusArchived), []bool{false, true, false, true}},
		{"resolved ignores archival", status(StatusResolved), []bool{true, true, false, false}},
		{"type", typ("market"), []bool{false, false, true, true}},
		{"priority", prio(PriorityHigh), []bool{true, false, true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := []bool{
				tt.filter.Matches(resolvedActive),
				tt.filter.Matches(resolvedArchived),
				tt.filter.Matches(openActive),
				tt.filter.Matches(archivedOnly),
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_CombinesTypeAndStatus(t *testing.T) {
	typ := "market"
	st := StatusArchived
	f := Filter{Type: &typ, Status: &st}

	assert.True(t, f.Matches(&Notification{Type: "market", Archived: true}))
	assert.False(t, f.Matches(&Notification{Type: "market"}))
	assert.False(t, f.Matches(&Notification{Type: "error", Archived: true}))
}
