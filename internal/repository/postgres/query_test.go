package postgres

import (
	"testing"

	"funkard-admin-service/internal/domain/notification"

	"github.com/stretchr/testify/assert"
)

func TestBuildFilterWhere(t *testing.T) {
	typ := "error"
	prio := notification.PriorityHigh
	resolved := notification.StatusResolved
	active := notification.StatusActive
	archived := notification.StatusArchived

	tests := []struct {
		name      string
		filter    notification.Filter
		wantWhere string
		wantArgs  []interface{}
	}{
		{
			name:      "empty",
			filter:    notification.Filter{},
			wantWhere: "",
			wantArgs:  []interface{}{},
		},
		{
			name:      "type and priority",
			filter:    notification.Filter{Type: &typ, Priority: &prio},
			wantWhere: "WHERE type = $1 AND priority = $2",
			wantArgs:  []interface{}{"error", "high"},
		},
		{
			name:      "resolved does not look at archived",
			filter:    notification.Filter{Status: &resolved},
			wantWhere: "WHERE resolved_at IS NOT NULL",
			wantArgs:  []interface{}{},
		},
		{
			name:      "active",
			filter:    notification.Filter{Type: &typ, Status: &active},
			wantWhere: "WHERE type = $1 AND archived = false",
			wantArgs:  []interface{}{"error"},
		},
		{
			name:      "archived",
			filter:    notification.Filter{Status: &archived},
			wantWhere: "WHERE archived = true",
			wantArgs:  []interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildFilterWhere(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%a@b.com%", likePattern("a@b.com"))
	assert.Equal(t, `%50\% off\_now%`, likePattern("50% off_now"))
	assert.Equal(t, `%back\\slash%`, likePattern(`back\slash`))
}
