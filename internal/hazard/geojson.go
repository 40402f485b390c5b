// Package hazard serves hazard feeds (currently fire events) as GeoJSON,
// loaded from an upstream source and kept in a TTL cache.
package hazard

// GeoJSON object types.
const (
	TypeFeatureCollection = "FeatureCollection"
	TypeFeature           = "Feature"
	TypePoint             = "Point"
)

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON feature.
type Feature struct {
	Type       string         `json:"type"`
	ID         string         `json:"id,omitempty"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a GeoJSON point geometry. Coordinates are longitude then
// latitude.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// NewPoint returns a feature at the given position.
func NewPoint(id string, lon, lat float64, props map[string]any) Feature {
	return Feature{
		Type:       TypeFeature,
		ID:         id,
		Geometry:   Geometry{Type: TypePoint, Coordinates: []float64{lon, lat}},
		Properties: props,
	}
}
