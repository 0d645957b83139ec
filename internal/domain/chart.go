package domain

// SeriesKind selects how a chart series is drawn.
type SeriesKind string

const (
	SeriesBar  SeriesKind = "bar"
	SeriesLine SeriesKind = "line"
)

// ChartSeries is one plotted series keyed by the shared X labels.
type ChartSeries struct {
	Name          string     `json:"name"`
	Kind          SeriesKind `json:"kind"`
	Y             []float64  `json:"y"`
	SecondaryAxis bool       `json:"secondary_axis,omitempty"`
}

// Chart is the structured chart payload derived from retrieval results:
// a bar series of normalized values and a line series of growth percentages
// on a secondary axis, keyed by date. Rendering is left to the client.
type Chart struct {
	Title  string        `json:"title"`
	X      []string      `json:"x"`
	XAxis  string        `json:"x_axis"`
	YAxis  string        `json:"y_axis"`
	Y2Axis string        `json:"y2_axis,omitempty"`
	Series []ChartSeries `json:"series"`
}
