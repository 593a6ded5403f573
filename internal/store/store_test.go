package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Makepad-fr/tada/internal/model"
)

func day(s string) *model.Date {
	d, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestQueryMatch(t *testing.T) {
	today := model.NewDate(time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC))
	past := model.Item{ID: 1, DueDate: day("2024-05-01")}
	now := model.Item{ID: 2, DueDate: day("2024-05-10"), IsCompleted: true}
	later := model.Item{ID: 3, DueDate: day("2024-06-01")}
	never := model.Item{ID: 4}

	tests := []struct {
		name string
		f    model.ListFilter
		want []int64
	}{
		{"no filter", model.ListFilter{}, []int64{1, 2, 3, 4}},
		{"due", model.ListFilter{Due: model.Bool(true)}, []int64{1, 2}},
		{"not due", model.ListFilter{Due: model.Bool(false)}, []int64{3, 4}},
		{"complete", model.ListFilter{Complete: model.Bool(true)}, []int64{2}},
		{"due and incomplete", model.ListFilter{Due: model.Bool(true), Complete: model.Bool(false)}, []int64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Query{ListFilter: tt.f, Today: today}
			var got []int64
			for _, it := range []model.Item{past, now, later, never} {
				if q.Match(it) {
					got = append(got, it.ID)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply(t *testing.T) {
	it := model.Item{ID: 1}
	Apply(&it, model.UpdateRequest{IsCompleted: model.Bool(true)})
	assert.True(t, it.IsCompleted)
	assert.False(t, it.Starred)

	Apply(&it, model.UpdateRequest{Starred: model.Bool(true)})
	assert.True(t, it.IsCompleted)
	assert.True(t, it.Starred)
}
