package domain

// Immutable geographic coordinates (latitude, longitude).
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Return coordinates as [lat, lng] for map clients.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lat, c.Lng} }

// IsZero reports whether the coordinates were never set.
func (c Coordinates) IsZero() bool { return c.Lat == 0 && c.Lng == 0 }
