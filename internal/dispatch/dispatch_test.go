package dispatch

import (
	"errors"
	"testing"
)

type call struct {
	kind  string
	query string
	id    int
}

type recorder struct {
	calls     []call
	infoErr   error
	infoPanic bool
}

func (r *recorder) PartInfoRequested(id int) error {
	r.calls = append(r.calls, call{kind: "info", id: id})
	if r.infoPanic {
		panic("boom")
	}
	return r.infoErr
}

func (r *recorder) PartMediaRequested(query string, id int) error {
	r.calls = append(r.calls, call{kind: "media", query: query, id: id})
	return nil
}

func TestResolve(t *testing.T) {
	r := Resolve("Head", nil)
	if !r.HasID || r.PartID != 1 {
		t.Errorf("Head id = %d/%v, want 1", r.PartID, r.HasID)
	}
	if !r.HasQuery || r.Query != "편두통+후두하근" {
		t.Errorf("Head query = %q/%v", r.Query, r.HasQuery)
	}

	r = Resolve("mesh_7", nil)
	if r.HasID || r.HasQuery || r.PartName != "mesh_7" {
		t.Errorf("unmapped resolve = %+v", r)
	}
}

func TestDispatchHead(t *testing.T) {
	rec := &recorder{}
	d := New(rec)

	if got := d.Dispatch(Resolve("Head", nil)); got != 2 {
		t.Errorf("Dispatch() = %d, want 2", got)
	}
	want := []call{
		{kind: "info", id: 1},
		{kind: "media", query: "편두통+후두하근", id: 1},
	}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %+v, want %+v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("call %d = %+v, want %+v", i, rec.calls[i], want[i])
		}
	}
}

func TestDispatchUnmapped(t *testing.T) {
	rec := &recorder{}
	d := New(rec)

	if got := d.Dispatch(Resolve("Unknown_Part", nil)); got != 0 {
		t.Errorf("Dispatch() = %d, want 0", got)
	}
	if len(rec.calls) != 0 {
		t.Errorf("calls = %+v, want none", rec.calls)
	}
}

func TestDispatchIdWithoutQuery(t *testing.T) {
	rec := &recorder{}
	d := New(rec)

	d.Dispatch(PickResult{PartName: "x", PartID: 4, HasID: true})
	if len(rec.calls) != 1 || rec.calls[0].kind != "info" {
		t.Errorf("calls = %+v, want info only", rec.calls)
	}
}

func TestDispatchFailuresAreIsolated(t *testing.T) {
	tests := []struct {
		name string
		rec  *recorder
	}{
		{"error", &recorder{infoErr: errors.New("panel closed")}},
		{"panic", &recorder{infoPanic: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(tt.rec)
			if got := d.Dispatch(Resolve("Head", nil)); got != 1 {
				t.Errorf("Dispatch() = %d, want 1 (media only)", got)
			}
			if len(tt.rec.calls) != 2 || tt.rec.calls[1].kind != "media" {
				t.Errorf("media handler did not run after info failure: %+v", tt.rec.calls)
			}
		})
	}
}

func TestDispatchMissingHandlers(t *testing.T) {
	if got := New(nil).Dispatch(Resolve("Head", nil)); got != 0 {
		t.Errorf("nil handler Dispatch() = %d, want 0", got)
	}

	var media []string
	d := New(Funcs{Media: func(q string, _ int) error {
		media = append(media, q)
		return nil
	}})
	if got := d.Dispatch(Resolve("Calf", nil)); got != 2 {
		t.Errorf("Dispatch() = %d, want 2 (missing info is a no-op)", got)
	}
	if len(media) != 1 || media[0] != "발목통증+종아리신경병증+족저근막염" {
		t.Errorf("media = %v", media)
	}
}
