package presenter

import "time"

// Direction is the price movement over the retained history.
type Direction string

const (
	DirectionUp        Direction = "up"
	DirectionDown      Direction = "down"
	DirectionUnchanged Direction = "unchanged"
)

// Point is one vertex of the chart polyline.
type Point struct {
	At    time.Time `json:"t"`
	Price float64   `json:"price"`
}

// Chart is the line chart model for one instrument.
type Chart struct {
	XMin   time.Time `json:"x_min"`
	XMax   time.Time `json:"x_max"`
	YMin   float64   `json:"y_min"`
	YMax   float64   `json:"y_max"`
	Points []Point   `json:"points"`
}

// View is the rendered state of one instrument.
type View struct {
	Instrument  string    `json:"instrument"`
	Placeholder bool      `json:"placeholder"`
	PriceLabel  string    `json:"price_label"`
	DeltaLabel  string    `json:"delta_label"`
	RangeLabel  string    `json:"range_label,omitempty"`
	Direction   Direction `json:"direction,omitempty"`
	DeltaAmount float64   `json:"delta_amount"`
	Current     float64   `json:"current"`
	Chart       Chart     `json:"chart"`
}
