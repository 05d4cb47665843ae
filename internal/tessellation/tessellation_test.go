package tessellation

import (
	"context"
	"math"
	"testing"
)

func TestNearbyIDsRanking(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(GlobalTable)

	// Anchor at (0, 0); entries at increasing separations.
	svc.Insert(GlobalTable, "near", 0.01, 0)
	svc.Insert(GlobalTable, "mid", 0.5, 0.2)
	svc.Insert(GlobalTable, "far", math.Pi, 0)

	ids, err := svc.NearbyIDs(ctx, GlobalTable, 0, 0, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"near", "mid", "far"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], ids[i])
		}
	}

	// Limit truncates.
	ids, err = svc.NearbyIDs(ctx, GlobalTable, 0, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "near" {
		t.Errorf("expected just the nearest, got %v", ids)
	}
}

func TestNearbyIDsWrapAround(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(GlobalTable)

	// RA wraps: 2pi-0.01 is closer to 0 than 0.5 is.
	svc.Insert(GlobalTable, "wrapped", 2*math.Pi-0.01, 0)
	svc.Insert(GlobalTable, "plain", 0.5, 0)

	ids, err := svc.NearbyIDs(ctx, GlobalTable, 0, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if ids[0] != "wrapped" {
		t.Errorf("expected wrap-around neighbor first, got %v", ids)
	}
}

func TestNearbyIDsUnknownTable(t *testing.T) {
	svc := NewInMemoryService(GlobalTable)
	if _, err := svc.NearbyIDs(context.Background(), "ghost", 0, 0, 5); err != ErrTableNotFound {
		t.Errorf("expected ErrTableNotFound, got %v", err)
	}
}

func TestInsertReplacesExisting(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(GlobalTable)

	svc.Insert(GlobalTable, "s1", 0.1, 0)
	svc.Insert(GlobalTable, "s1", math.Pi, 0) // moved

	ids, err := svc.NearbyIDs(ctx, GlobalTable, 0.1, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 {
		t.Fatalf("re-inserting an id must not duplicate it, got %v", ids)
	}
}

func TestAngularSeparation(t *testing.T) {
	tests := []struct {
		name                 string
		ra1, dec1, ra2, dec2 float64
		want                 float64
	}{
		{name: "identical", ra1: 1, dec1: 0.5, ra2: 1, dec2: 0.5, want: 0},
		{name: "quarter turn on equator", ra1: 0, dec1: 0, ra2: math.Pi / 2, dec2: 0, want: math.Pi / 2},
		{name: "pole to pole", ra1: 0, dec1: math.Pi / 2, ra2: 0, dec2: -math.Pi / 2, want: math.Pi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := angularSeparation(tt.ra1, tt.dec1, tt.ra2, tt.dec2)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
