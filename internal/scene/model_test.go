package scene

import (
	"math"
	"testing"
)

func validPlace() Place {
	return Place{
		RARad:          1.5,
		DecRad:         0.2,
		RollRad:        -0.5,
		RoiHeightDeg:   2.0,
		RoiAspectRatio: 1.0,
	}
}

func TestPlaceValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Place)
		wantErr bool
	}{
		{name: "valid mid-range", mutate: func(p *Place) {}, wantErr: false},
		{name: "ra at zero", mutate: func(p *Place) { p.RARad = 0 }, wantErr: false},
		{name: "ra at two pi", mutate: func(p *Place) { p.RARad = 2 * math.Pi }, wantErr: false},
		{name: "ra negative", mutate: func(p *Place) { p.RARad = -0.001 }, wantErr: true},
		{name: "ra beyond two pi", mutate: func(p *Place) { p.RARad = 2*math.Pi + 0.001 }, wantErr: true},
		{name: "dec at south pole", mutate: func(p *Place) { p.DecRad = -math.Pi / 2 }, wantErr: false},
		{name: "dec at north pole", mutate: func(p *Place) { p.DecRad = math.Pi / 2 }, wantErr: false},
		{name: "dec below range", mutate: func(p *Place) { p.DecRad = -math.Pi/2 - 0.001 }, wantErr: true},
		{name: "dec above range", mutate: func(p *Place) { p.DecRad = math.Pi/2 + 0.001 }, wantErr: true},
		{name: "roll at negative pi", mutate: func(p *Place) { p.RollRad = -math.Pi }, wantErr: false},
		{name: "roll at pi", mutate: func(p *Place) { p.RollRad = math.Pi }, wantErr: false},
		{name: "roll below range", mutate: func(p *Place) { p.RollRad = -math.Pi - 0.001 }, wantErr: true},
		{name: "roll above range", mutate: func(p *Place) { p.RollRad = math.Pi + 0.001 }, wantErr: true},
		{name: "roi height zero", mutate: func(p *Place) { p.RoiHeightDeg = 0 }, wantErr: false},
		{name: "roi height 360", mutate: func(p *Place) { p.RoiHeightDeg = 360 }, wantErr: false},
		{name: "roi height negative", mutate: func(p *Place) { p.RoiHeightDeg = -1 }, wantErr: true},
		{name: "roi height beyond 360", mutate: func(p *Place) { p.RoiHeightDeg = 360.5 }, wantErr: true},
		{name: "aspect at lower bound", mutate: func(p *Place) { p.RoiAspectRatio = 0.1 }, wantErr: false},
		{name: "aspect at upper bound", mutate: func(p *Place) { p.RoiAspectRatio = 10 }, wantErr: false},
		{name: "aspect too small", mutate: func(p *Place) { p.RoiAspectRatio = 0.05 }, wantErr: true},
		{name: "aspect too large", mutate: func(p *Place) { p.RoiAspectRatio = 10.5 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlace()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr {
				if _, ok := err.(SchemaError); !ok {
					t.Errorf("expected SchemaError, got %T", err)
				}
			}
		})
	}
}
