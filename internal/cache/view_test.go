package cache_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"notionat/internal/cache"
	"notionat/internal/store"
	"notionat/internal/views"
)

func newFailingMemory(t *testing.T) *store.Memory {
	t.Helper()
	mem := store.NewMemory()
	mem.FailWrites(true)
	return mem
}

func TestMutateDatabaseViewRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	want := views.DatabaseView{
		Name:              "Board",
		Type:              views.TypeKanban,
		VisibleProperties: []string{"p1", "p2"},
		GroupBy:           "p1",
		Kanban: &views.KanbanConfig{StatusPropertyID: "s", Lanes: map[views.Lane][]string{
			views.LaneBacklog: {"_select_null_"},
			views.LaneStarted: {"o1", "o2"},
		}},
	}
	got, err := c.MutateDatabaseView(ctx, "db", func(views.DatabaseView) views.DatabaseView { return want })
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("returned view = %+v", got)
	}
	if loaded := c.LoadDatabaseView(ctx, "db"); !reflect.DeepEqual(loaded, want) {
		t.Errorf("loaded view = %+v, want %+v", loaded, want)
	}
}

func TestMutateDatabaseViewToggleTwice(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)
	_, _ = c.MutateDatabaseView(ctx, "db", views.ToggleProperty("a"))
	original := c.LoadDatabaseView(ctx, "db")

	_, _ = c.MutateDatabaseView(ctx, "db", views.ToggleProperty("P"))
	v, err := c.MutateDatabaseView(ctx, "db", views.ToggleProperty("P"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(v.VisibleProperties, original.VisibleProperties) {
		t.Errorf("visible = %v, want %v", v.VisibleProperties, original.VisibleProperties)
	}
}

func TestMutateDatabaseViewDefaultsToEmpty(t *testing.T) {
	c, _ := newCache(t)
	var seen views.DatabaseView
	_, err := c.MutateDatabaseView(context.Background(), "db", func(prev views.DatabaseView) views.DatabaseView {
		seen = prev
		return prev
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seen, views.DatabaseView{}) {
		t.Errorf("mutator received %+v, want empty view", seen)
	}
}

func TestMutateDatabaseViewNotifiesBeforePersistError(t *testing.T) {
	mem := newFailingMemory(t)
	c := cache.New(mem)

	var delivered views.DatabaseView
	c.DatabaseView("db").Subscribe(func(v views.DatabaseView) { delivered = v })

	v, err := c.MutateDatabaseView(context.Background(), "db", views.ToggleGroupBy("status"))
	if !errors.Is(err, store.ErrWriteFailed) {
		t.Errorf("err = %v, want ErrWriteFailed", err)
	}
	if v.GroupBy != "status" || delivered.GroupBy != "status" {
		t.Errorf("returned %+v, delivered %+v", v, delivered)
	}
}
