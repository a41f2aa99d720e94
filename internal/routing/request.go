// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package routing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/maps/routing/apiv2/routingpb"
	"google.golang.org/genproto/googleapis/type/latlng"
)

var (
	ErrBadWaypoint   = errors.New("invalid waypoint")
	ErrBadTravelMode = errors.New("invalid travel mode")
	ErrBadPreference = errors.New("invalid routing preference")
	ErrBadAvoid      = errors.New("invalid avoid feature")
	ErrBadPolyline   = errors.New("invalid polyline quality")
)

const placePrefix = "place:"

// RouteOptions are the request knobs shared by route and matrix requests.
type RouteOptions struct {
	TravelMode   routingpb.RouteTravelMode
	Preference   routingpb.RoutingPreference
	Alternatives bool
	// Modifiers is nil when nothing is avoided.
	Modifiers       *routingpb.RouteModifiers
	PolylineQuality routingpb.PolylineQuality
}

// ParseWaypoint understands "lat,lng", "place:<place id>" and, failing
// those, treats the input as a free-form address.
func ParseWaypoint(s string) (*routingpb.Waypoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrBadWaypoint)
	}

	if id, ok := strings.CutPrefix(s, placePrefix); ok {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: empty place id", ErrBadWaypoint)
		}
		return &routingpb.Waypoint{
			LocationType: &routingpb.Waypoint_PlaceId{PlaceId: id},
		}, nil
	}

	if ll, ok, err := parseLatLng(s); ok {
		if err != nil {
			return nil, err
		}
		return &routingpb.Waypoint{
			LocationType: &routingpb.Waypoint_Location{
				Location: &routingpb.Location{LatLng: ll},
			},
		}, nil
	}

	return &routingpb.Waypoint{
		LocationType: &routingpb.Waypoint_Address{Address: s},
	}, nil
}

// parseLatLng reports ok when s looks like a coordinate pair at all, so that
// an out-of-range pair is an error rather than an address.
func parseLatLng(s string) (*latlng.LatLng, bool, error) {
	latStr, lngStr, found := strings.Cut(s, ",")
	if !found || strings.Contains(lngStr, ",") {
		return nil, false, nil
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return nil, false, nil
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return nil, false, nil
	}

	if math.IsNaN(lat) || math.IsNaN(lng) || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, true, fmt.Errorf("%w: coordinates out of range: %s", ErrBadWaypoint, s)
	}

	return &latlng.LatLng{Latitude: lat, Longitude: lng}, true, nil
}

// ParseTravelMode accepts the enum names case-insensitively, e.g. "drive" or
// "two_wheeler". An empty string leaves the mode unspecified.
func ParseTravelMode(s string) (routingpb.RouteTravelMode, error) {
	if s == "" {
		return routingpb.RouteTravelMode_TRAVEL_MODE_UNSPECIFIED, nil
	}
	v, ok := routingpb.RouteTravelMode_value[strings.ToUpper(strings.ReplaceAll(s, "-", "_"))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadTravelMode, s)
	}
	return routingpb.RouteTravelMode(v), nil
}

// ParseRoutingPreference accepts the enum names case-insensitively, e.g.
// "traffic_aware". An empty string leaves the preference unspecified.
func ParseRoutingPreference(s string) (routingpb.RoutingPreference, error) {
	if s == "" {
		return routingpb.RoutingPreference_ROUTING_PREFERENCE_UNSPECIFIED, nil
	}
	v, ok := routingpb.RoutingPreference_value[strings.ToUpper(strings.ReplaceAll(s, "-", "_"))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadPreference, s)
	}
	return routingpb.RoutingPreference(v), nil
}

// ParseAvoid turns feature names (tolls, highways, ferries, indoor) into
// route modifiers. No names yields nil.
func ParseAvoid(features []string) (*routingpb.RouteModifiers, error) {
	var m *routingpb.RouteModifiers
	for _, f := range features {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		if m == nil {
			m = &routingpb.RouteModifiers{}
		}
		switch f {
		case "tolls":
			m.AvoidTolls = true
		case "highways":
			m.AvoidHighways = true
		case "ferries":
			m.AvoidFerries = true
		case "indoor":
			m.AvoidIndoor = true
		default:
			return nil, fmt.Errorf("%w: %q", ErrBadAvoid, f)
		}
	}
	return m, nil
}

// ParsePolylineQuality accepts "high_quality" or "overview". An empty string
// leaves the quality unspecified.
func ParsePolylineQuality(s string) (routingpb.PolylineQuality, error) {
	if s == "" {
		return routingpb.PolylineQuality_POLYLINE_QUALITY_UNSPECIFIED, nil
	}
	v, ok := routingpb.PolylineQuality_value[strings.ToUpper(strings.ReplaceAll(s, "-", "_"))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrBadPolyline, s)
	}
	return routingpb.PolylineQuality(v), nil
}

func NewRouteRequest(origin, destination *routingpb.Waypoint, o RouteOptions) *routingpb.ComputeRoutesRequest {
	return &routingpb.ComputeRoutesRequest{
		Origin:                   origin,
		Destination:              destination,
		TravelMode:               o.TravelMode,
		RoutingPreference:        o.Preference,
		ComputeAlternativeRoutes: o.Alternatives,
		RouteModifiers:           o.Modifiers,
		PolylineQuality:          o.PolylineQuality,
	}
}

func NewMatrixRequest(origins, destinations []*routingpb.Waypoint, o RouteOptions) *routingpb.ComputeRouteMatrixRequest {
	req := &routingpb.ComputeRouteMatrixRequest{
		TravelMode:        o.TravelMode,
		RoutingPreference: o.Preference,
	}
	for _, wp := range origins {
		req.Origins = append(req.Origins, &routingpb.RouteMatrixOrigin{Waypoint: wp, RouteModifiers: o.Modifiers})
	}
	for _, wp := range destinations {
		req.Destinations = append(req.Destinations, &routingpb.RouteMatrixDestination{Waypoint: wp})
	}
	return req
}
