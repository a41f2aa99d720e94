// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package routing

import (
	"testing"

	"cloud.google.com/go/maps/routing/apiv2/routingpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/staranto/routesgo/internal/endpoint"
)

func TestParseWaypoint(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		place   string
		address string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{name: "latlng", in: "37.4220,-122.0841", lat: 37.422, lng: -122.0841},
		{name: "latlng spaced", in: " 37.4220 , -122.0841 ", lat: 37.422, lng: -122.0841},
		{name: "place", in: "place:ChIJj61dQgK6j4AR4GeTYWZsKWw", place: "ChIJj61dQgK6j4AR4GeTYWZsKWw"},
		{name: "address", in: "1600 Amphitheatre Pkwy, Mountain View", address: "1600 Amphitheatre Pkwy, Mountain View"},
		{name: "three parts", in: "1,2,3", address: "1,2,3"},
		{name: "out of range", in: "91,0", wantErr: true},
		{name: "nan latitude", in: "NaN,0", wantErr: true},
		{name: "nan longitude", in: "0,nan", wantErr: true},
		{name: "infinite", in: "0,Inf", wantErr: true},
		{name: "empty", in: "  ", wantErr: true},
		{name: "empty place", in: "place:", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wp, err := ParseWaypoint(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadWaypoint)
				return
			}
			require.NoError(t, err)

			switch {
			case tt.place != "":
				assert.Equal(t, tt.place, wp.GetPlaceId())
			case tt.address != "":
				assert.Equal(t, tt.address, wp.GetAddress())
			default:
				ll := wp.GetLocation().GetLatLng()
				require.NotNil(t, ll)
				assert.InDelta(t, tt.lat, ll.GetLatitude(), 1e-9)
				assert.InDelta(t, tt.lng, ll.GetLongitude(), 1e-9)
			}
		})
	}
}

func TestParseTravelMode(t *testing.T) {
	m, err := ParseTravelMode("drive")
	require.NoError(t, err)
	assert.Equal(t, routingpb.RouteTravelMode_DRIVE, m)

	m, err = ParseTravelMode("two-wheeler")
	require.NoError(t, err)
	assert.Equal(t, routingpb.RouteTravelMode_TWO_WHEELER, m)

	m, err = ParseTravelMode("")
	require.NoError(t, err)
	assert.Equal(t, routingpb.RouteTravelMode_TRAVEL_MODE_UNSPECIFIED, m)

	_, err = ParseTravelMode("teleport")
	assert.ErrorIs(t, err, ErrBadTravelMode)
}

func TestParseRoutingPreference(t *testing.T) {
	p, err := ParseRoutingPreference("traffic-aware-optimal")
	require.NoError(t, err)
	assert.Equal(t, routingpb.RoutingPreference_TRAFFIC_AWARE_OPTIMAL, p)

	_, err = ParseRoutingPreference("fastest")
	assert.ErrorIs(t, err, ErrBadPreference)
}

func TestNewMatrixRequest(t *testing.T) {
	a := &routingpb.Waypoint{LocationType: &routingpb.Waypoint_Address{Address: "a"}}
	b := &routingpb.Waypoint{LocationType: &routingpb.Waypoint_Address{Address: "b"}}
	c := &routingpb.Waypoint{LocationType: &routingpb.Waypoint_Address{Address: "c"}}

	req := NewMatrixRequest([]*routingpb.Waypoint{a}, []*routingpb.Waypoint{b, c}, RouteOptions{TravelMode: routingpb.RouteTravelMode_WALK})

	require.Len(t, req.GetOrigins(), 1)
	require.Len(t, req.GetDestinations(), 2)
	assert.Equal(t, "c", req.GetDestinations()[1].GetWaypoint().GetAddress())
	assert.Equal(t, routingpb.RouteTravelMode_WALK, req.GetTravelMode())
}

func TestParseAvoid(t *testing.T) {
	m, err := ParseAvoid(nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = ParseAvoid([]string{"Tolls", " ferries", ""})
	require.NoError(t, err)
	assert.True(t, m.GetAvoidTolls())
	assert.True(t, m.GetAvoidFerries())
	assert.False(t, m.GetAvoidHighways())

	_, err = ParseAvoid([]string{"potholes"})
	assert.ErrorIs(t, err, ErrBadAvoid)
}

func TestParsePolylineQuality(t *testing.T) {
	q, err := ParsePolylineQuality("high-quality")
	require.NoError(t, err)
	assert.Equal(t, routingpb.PolylineQuality_HIGH_QUALITY, q)

	q, err = ParsePolylineQuality("")
	require.NoError(t, err)
	assert.Equal(t, routingpb.PolylineQuality_POLYLINE_QUALITY_UNSPECIFIED, q)

	_, err = ParsePolylineQuality("crisp")
	assert.ErrorIs(t, err, ErrBadPolyline)
}

func TestNewRouteRequest_Options(t *testing.T) {
	a := &routingpb.Waypoint{LocationType: &routingpb.Waypoint_Address{Address: "a"}}
	b := &routingpb.Waypoint{LocationType: &routingpb.Waypoint_Address{Address: "b"}}
	mods := &routingpb.RouteModifiers{AvoidHighways: true}

	req := NewRouteRequest(a, b, RouteOptions{
		TravelMode:      routingpb.RouteTravelMode_BICYCLE,
		Alternatives:    true,
		Modifiers:       mods,
		PolylineQuality: routingpb.PolylineQuality_OVERVIEW,
	})
	assert.Equal(t, routingpb.RouteTravelMode_BICYCLE, req.GetTravelMode())
	assert.True(t, req.GetComputeAlternativeRoutes())
	assert.True(t, req.GetRouteModifiers().GetAvoidHighways())
	assert.Equal(t, routingpb.PolylineQuality_OVERVIEW, req.GetPolylineQuality())

	mreq := NewMatrixRequest([]*routingpb.Waypoint{a}, []*routingpb.Waypoint{b}, RouteOptions{Modifiers: mods})
	assert.True(t, mreq.GetOrigins()[0].GetRouteModifiers().GetAvoidHighways())
}

func TestHeaderWriter(t *testing.T) {
	w := HeaderWriter(Config{APIKey: "ABC", FieldMask: "routes.*"})

	md := metadata.MD{}
	w.WriteHeaders(md)
	assert.Equal(t, []string{"ABC"}, md.Get(APIKeyHeader))
	assert.Equal(t, []string{"routes.*"}, md.Get(FieldMaskHeader))

	md = metadata.Pairs(FieldMaskHeader, "routes.duration")
	w.WriteHeaders(md)
	assert.Equal(t, []string{"routes.duration"}, md.Get(FieldMaskHeader))

	md = metadata.MD{}
	HeaderWriter(Config{APIKey: "ABC"}).WriteHeaders(md)
	assert.Empty(t, md.Get(FieldMaskHeader))
}

func TestRemoteError_Hint(t *testing.T) {
	ep := endpoint.MustParse("routes.googleapis.com")

	tests := []struct {
		code codes.Code
		hint bool
	}{
		{codes.Unauthenticated, true},
		{codes.PermissionDenied, true},
		{codes.InvalidArgument, true},
		{codes.Unavailable, true},
		{codes.NotFound, false},
		{codes.Internal, false},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			e := newRemoteError("compute routes", ep, status.Error(tt.code, "boom"))
			assert.Equal(t, tt.code, e.Code())
			assert.Equal(t, tt.hint, e.Hint() != "")
			assert.Contains(t, e.Error(), "routes.googleapis.com")
		})
	}
}
