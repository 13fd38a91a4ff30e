package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func sampleMemory() Memory {
	return Memory{
		Key:       Key{GameID: 1, PlayerID: 3},
		Turn:      7,
		WasSaving: true,
		Doctrine:  "balanced",
		Threat:    map[int]float64{2: 12.5, 4: 0},
		Snapshot:  &Snapshot{Turn: 7, Level: 2, HP: 88, Armor: 4, Alive: []int{2, 4}},
	}
}

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "memory.sqlite"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return map[string]Store{
		"memory": NewInMemory(),
		"sqlite": db,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Load(ctx, Key{GameID: 1, PlayerID: 3}); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Load on empty store: err = %v, want ErrNotFound", err)
			}

			want := sampleMemory()
			if err := s.Save(ctx, want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := s.Load(ctx, want.Key)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Load = %+v, want %+v", got, want)
			}

			// Overwrite replaces the row.
			want.Turn = 8
			want.WasSaving = false
			want.Snapshot = nil
			if err := s.Save(ctx, want); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, _ = s.Load(ctx, want.Key)
			if got.Turn != 8 || got.WasSaving || got.Snapshot != nil {
				t.Errorf("after overwrite Load = %+v", got)
			}

			if err := s.Delete(ctx, want.Key); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, err := s.Load(ctx, want.Key); !errors.Is(err, ErrNotFound) {
				t.Errorf("Load after Delete: err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			a := sampleMemory()
			b := sampleMemory()
			b.PlayerID = 4
			b.Turn = 1
			for _, m := range []Memory{a, b} {
				if err := s.Save(ctx, m); err != nil {
					t.Fatalf("Save: %v", err)
				}
			}
			got, err := s.Load(ctx, a.Key)
			if err != nil || got.Turn != 7 {
				t.Errorf("Load(a) = %+v, %v", got, err)
			}
			if _, err := s.Load(ctx, Key{GameID: 2, PlayerID: 3}); !errors.Is(err, ErrNotFound) {
				t.Errorf("other game: err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestInMemoryIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory()
	m := sampleMemory()
	if err := s.Save(ctx, m); err != nil {
		t.Fatal(err)
	}
	m.Threat[2] = 999
	m.Snapshot.Alive[0] = 42

	got, _ := s.Load(ctx, m.Key)
	if got.Threat[2] != 12.5 || got.Snapshot.Alive[0] != 2 {
		t.Errorf("stored memory aliased caller's maps: %+v", got)
	}
}

func TestSQLitePrune(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "memory.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if err := db.Save(ctx, sampleMemory()); err != nil {
		t.Fatal(err)
	}
	n, err := db.Prune(ctx, time.Now().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("Prune(past) = %d, %v; want 0 rows", n, err)
	}
	n, err = db.Prune(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("Prune(future) = %d, %v; want 1 row", n, err)
	}
}

func TestSQLiteReopenKeepsMemory(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memory.sqlite")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Save(ctx, sampleMemory()); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	got, err := db.Load(ctx, sampleMemory().Key)
	if err != nil || !got.WasSaving {
		t.Errorf("after reopen Load = %+v, %v", got, err)
	}
}

func TestSQLitePragmas(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "memory.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var mode string
	if err := db.conn.Get(&mode, "PRAGMA journal_mode"); err != nil || mode != "wal" {
		t.Errorf("journal_mode = %q, %v; want wal", mode, err)
	}
	var timeout int
	if err := db.conn.Get(&timeout, "PRAGMA busy_timeout"); err != nil || timeout != 5000 {
		t.Errorf("busy_timeout = %d, %v; want 5000", timeout, err)
	}
}
