// Package presenter renders instrument state into display-ready views.
//
// A View holds everything one dashboard panel shows for an instrument:
// a price label, a change label relative to the oldest retained sample,
// and a chart model (X/Y domains plus one polyline). Number formatting
// uses golang.org/x/text so labels carry locale grouping ("$42,000.50").
package presenter
