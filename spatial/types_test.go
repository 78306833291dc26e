// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointScan(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    Point
		wantErr bool
	}{
		{"nil", nil, Point{}, false},
		{"struct", map[string]any{"x": 2.3522, "y": 48.8566}, Point{Lat: 48.8566, Lng: 2.3522}, false},
		{"wkt", []byte("POINT (2.5 48.5)"), Point{}, true},
		{"struct missing y", map[string]any{"x": 1.0}, Point{}, true},
		{"unsupported", 42, Point{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Point

			err := p.Scan(tt.value)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.want.Lat, p.Lat, 1e-9)
			assert.InDelta(t, tt.want.Lng, p.Lng, 1e-9)
		})
	}
}

func TestPointCell(t *testing.T) {
	paris := Point{Lat: 48.8566, Lng: 2.3522}

	coarse, err := paris.Cell(4)
	require.NoError(t, err)
	assert.True(t, coarse.IsValid())
	assert.Equal(t, 4, coarse.Resolution())

	fine, err := paris.Cell(8)
	require.NoError(t, err)

	parent, err := fine.Parent(4)
	require.NoError(t, err)
	assert.Equal(t, coarse, parent)

	_, err = paris.Cell(99)
	assert.Error(t, err)
}

func TestBoundsValidate(t *testing.T) {
	ok := Bounds{
		NorthEast: Point{Lat: 60, Lng: 40},
		SouthWest: Point{Lat: 50, Lng: 30},
	}
	require.NoError(t, ok.Validate())

	inverted := Bounds{NorthEast: ok.SouthWest, SouthWest: ok.NorthEast}
	assert.True(t, errors.Is(inverted.Validate(), ErrInvalidBounds))

	outOfRange := Bounds{NorthEast: Point{Lat: 91}, SouthWest: Point{Lat: 0}}
	assert.ErrorIs(t, outOfRange.Validate(), ErrInvalidBounds)
}

func TestPointValidate(t *testing.T) {
	tests := []struct {
		name    string
		point   Point
		wantErr string
	}{
		{"paris", Point{Lat: 48.8566, Lng: 2.3522}, ""},
		{"corner", Point{Lat: -90, Lng: 180}, ""},
		{"latitude", Point{Lat: 91, Lng: 0}, "latitude must be between -90 and 90"},
		{"longitude", Point{Lat: 0, Lng: -180.5}, "longitude must be between -180 and 180"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
