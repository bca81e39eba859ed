package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTimelineRepo struct {
	rows      []TimelineRow
	lastQuery Query
}

func (s *stubTimelineRepo) Timeline(_ context.Context, q Query) ([]TimelineRow, error) {
	s.lastQuery = q
	if q.Limit > 0 && len(s.rows) > q.Limit {
		return s.rows[:q.Limit], nil
	}
	return s.rows, nil
}

func row(id int64, at, action string) TimelineRow {
	ts, _ := time.Parse(time.RFC3339, at)
	return TimelineRow{ID: id, At: ts, ActorID: 7, ActorEmail: "admin@gearhub.test", Action: action, Entity: "quotation", EntityID: "1"}
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{
		row(3, "2024-10-03T10:00:00Z", "quotation.status"),
		row(2, "2024-10-03T09:00:00Z", "quotation.update"),
		row(1, "2024-10-03T08:00:00Z", "quotation.create"),
	}}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 2)
	assert.True(t, result.Paging.HasNext)
	assert.Equal(t, 2, result.Paging.NextPage)
	assert.Zero(t, result.Paging.PrevPage)
	assert.Equal(t, 3, repo.lastQuery.Limit)
	assert.Equal(t, 0, repo.lastQuery.Offset)
}

func TestServiceTimelineClampsPageSize(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 3, PageSize: 500, Entity: "order"})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, result.Paging.PageSize)
	assert.Equal(t, MaxPageSize+1, repo.lastQuery.Limit)
	assert.Equal(t, 2*MaxPageSize, repo.lastQuery.Offset)
	assert.Equal(t, "order", repo.lastQuery.Filters.Entity)
	assert.False(t, result.Paging.HasNext)
	assert.Equal(t, 2, result.Paging.PrevPage)
	assert.NotNil(t, result.Rows)
}

func TestServiceExportIsUnbounded(t *testing.T) {
	repo := &stubTimelineRepo{rows: []TimelineRow{row(1, "2024-10-03T08:00:00Z", "order.place")}}
	rows, err := NewService(repo).Export(context.Background(), TimelineFilters{Action: "order.place"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Zero(t, repo.lastQuery.Limit)
}

func TestServiceWithoutRepository(t *testing.T) {
	_, err := NewService(nil).Timeline(context.Background(), TimelineFilters{})
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	r := row(1, "2024-10-03T08:00:00Z", "quotation.create")
	r.Meta = map[string]any{"doc_number": "QT-2410-0001"}

	out, err := WriteCSV([]TimelineRow{r})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "at,actor_id,actor,action,entity,entity_id,meta", lines[0])
	assert.Equal(t, `2024-10-03T08:00:00Z,7,admin@gearhub.test,quotation.create,quotation,1,"{""doc_number"":""QT-2410-0001""}"`, lines[1])
}
