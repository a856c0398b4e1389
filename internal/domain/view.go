package domain

// ViewMode selects how the track view obtains data.
type ViewMode string

const (
	// ModeHistory loads a date range on demand.
	ModeHistory ViewMode = "history"
	// ModeLive polls the live endpoint on a fixed interval.
	ModeLive ViewMode = "live"
)

// LoadState describes the outcome of the most recent track load.
type LoadState string

const (
	LoadIdle    LoadState = "idle"
	LoadLoading LoadState = "loading"
	LoadReady   LoadState = "ready"
	LoadEmpty   LoadState = "empty"
	LoadFailed  LoadState = "failed"
)

// LoadStatus is surfaced to the view so a failed load is distinguishable
// from stale data.
type LoadStatus struct {
	State LoadState `json:"state"`
	Error string    `json:"error,omitempty"`
}

// MarkerKind identifies a marker on the map
type MarkerKind string

const (
	MarkerStart   MarkerKind = "start"
	MarkerEnd     MarkerKind = "end"
	MarkerVehicle MarkerKind = "vehicle"
)

// Icon describes a marker image for the map widget.
type Icon struct {
	URL      string  `json:"url"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Rotation float64 `json:"rotation"`
}

// Marker is a positioned icon.
type Marker struct {
	Kind     MarkerKind `json:"kind"`
	Position GeoPoint   `json:"position"`
	Icon     Icon       `json:"icon"`
}

// PathStyle holds polyline options.
type PathStyle struct {
	StrokeColor  string `json:"stroke_color"`
	StrokeWeight int    `json:"stroke_weight"`
}

// InfoWindow is the popup attached to the vehicle marker.
type InfoWindow struct {
	Position        GeoPoint `json:"position"`
	Title           string   `json:"title"`
	DistanceKm      float64  `json:"distance_km"`
	TotalDistanceKm float64  `json:"total_distance_km"`
}

// ControlOption is one entry of the date selector.
type ControlOption struct {
	Value DateRange `json:"value"`
	Label string    `json:"label"`
}

// Controls describes the control surface state.
type Controls struct {
	Mode         ViewMode        `json:"mode"`
	SelectedDate DateRange       `json:"selected_date"`
	DateOptions  []ControlOption `json:"date_options"`
	Speed        float64         `json:"speed"`
	SpeedMin     float64         `json:"speed_min"`
	SpeedStep    float64         `json:"speed_step"`
}

// MapView is the declarative payload consumed by the mapping widget.
type MapView struct {
	Center     GeoPoint         `json:"center"`
	Zoom       int              `json:"zoom"`
	APIKey     string           `json:"api_key,omitempty"`
	Path       []GeoPoint       `json:"path"`
	PathStyle  PathStyle        `json:"path_style"`
	Markers    []Marker         `json:"markers"`
	InfoWindow *InfoWindow      `json:"info_window,omitempty"`
	Controls   Controls         `json:"controls"`
	Status     LoadStatus       `json:"status"`
	Playback   PlaybackSnapshot `json:"playback"`
}

// Marker icons and path style used by the map widget.
const (
	StartIconURL   = "http://maps.google.com/mapfiles/kml/paddle/go.png"
	EndIconURL     = "http://maps.google.com/mapfiles/kml/paddle/stop.png"
	VehicleIconURL = "https://images.vexels.com/media/users/3/154573/isolated/preview/bd08e000a449288c914d851cb9dae110-hatchback-car-top-view-silhouette-by-vexels.png"
	MarkerIconSize = 50
	PathColor      = "#558052"
	PathWeight     = 5

	// MinSpeed is the smallest accepted playback speed factor.
	MinSpeed  = 0.1
	// MaxSpeed is the largest accepted playback speed factor.
	MaxSpeed  = 100.0
	SpeedStep = 0.1
)
