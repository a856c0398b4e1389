package domain

// PlaybackState is owned by the playback controller. Index stays within
// [0, len(track)-1]; once playback ends the index is not reset.
type PlaybackState struct {
	Session     string  `json:"session,omitempty"`
	Index       int     `json:"index"`
	SpeedFactor float64 `json:"speed_factor"`
	Running     bool    `json:"running"`
}

// PlaybackFrame is published once per playback tick.
type PlaybackFrame struct {
	Session  string   `json:"session"`
	Index    int      `json:"index"`
	Position GeoPoint `json:"position"`
	Heading  float64  `json:"heading"`
	Done     bool     `json:"done"`
}

// PlaybackSnapshot is a read-only copy of the controller state.
type PlaybackSnapshot struct {
	PlaybackState
	Position  *GeoPoint `json:"position,omitempty"`
	Heading   float64   `json:"heading"`
	Length    int       `json:"track_length"`
	Listeners int       `json:"listeners"`
}
