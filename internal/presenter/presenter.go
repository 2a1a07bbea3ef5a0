package presenter

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rickgao/pricedash/internal/model"
)

// ClockLayout is the long date-time layout used for the clock display.
const ClockLayout = "Monday, January 2, 2006 15:04:05"

const noDataLabel = "no data yet"

// Presenter formats instrument snapshots.
type Presenter struct {
	printer *message.Printer
	unit    currency.Unit
	symbol  string
	format  string // amount verb with the currency's standard scale
}

// New creates a presenter formatting in US English with USD amounts.
func New() *Presenter {
	return newPresenter(currency.USD, "$")
}

func newPresenter(unit currency.Unit, symbol string) *Presenter {
	scale, _ := currency.Standard.Rounding(unit)
	return &Presenter{
		printer: message.NewPrinter(language.AmericanEnglish),
		unit:    unit,
		symbol:  symbol,
		format:  fmt.Sprintf("%%.%df", scale),
	}
}

// Render builds the view of an instrument. An instrument without
// history yields a placeholder view.
func (p *Presenter) Render(inst model.Instrument) View {
	if !inst.HasData() {
		return Placeholder(inst.Name)
	}

	current := *inst.CurrentPrice
	initial := inst.History[0].Price
	delta := math.Abs(current - initial)

	v := View{
		Instrument:  inst.Name,
		PriceLabel:  inst.Name + ": " + p.FormatAmount(current) + " " + p.unit.String(),
		Current:     current,
		DeltaAmount: delta,
		Chart:       buildChart(inst.History),
	}

	switch {
	case current > initial:
		v.Direction = DirectionUp
		v.DeltaLabel = "up +" + p.FormatAmount(delta)
	case current < initial:
		v.Direction = DirectionDown
		v.DeltaLabel = "down -" + p.FormatAmount(delta)
	default:
		v.Direction = DirectionUnchanged
		v.DeltaAmount = 0
		v.DeltaLabel = "unchanged " + p.FormatAmount(0)
	}

	if inst.HighPrice != nil && inst.LowPrice != nil {
		v.RangeLabel = "high " + p.FormatAmount(*inst.HighPrice) + " / low " + p.FormatAmount(*inst.LowPrice)
	}
	return v
}

// Placeholder returns the view shown before an instrument has data.
func Placeholder(name string) View {
	return View{
		Instrument:  name,
		Placeholder: true,
		PriceLabel:  name + ": " + noDataLabel,
		DeltaLabel:  noDataLabel,
		Chart:       Chart{Points: []Point{}},
	}
}

// FormatAmount formats v with grouping and the currency's standard number
// of decimals, e.g. "$42,000.50".
func (p *Presenter) FormatAmount(v float64) string {
	if v < 0 {
		return "-" + p.symbol + p.printer.Sprintf(p.format, -v)
	}
	return p.symbol + p.printer.Sprintf(p.format, v)
}

// FormatCounter formats a per-feed message counter.
func (p *Presenter) FormatCounter(n int64) string {
	return p.printer.Sprintf("messages received: %d", n)
}

// FormatClock formats the clock display.
func (p *Presenter) FormatClock(t time.Time) string {
	return t.Format(ClockLayout)
}

func buildChart(history []model.Sample) Chart {
	c := Chart{
		XMin:   history[0].At,
		XMax:   history[0].At,
		YMin:   history[0].Price,
		YMax:   history[0].Price,
		Points: make([]Point, len(history)),
	}
	for i, s := range history {
		c.Points[i] = Point{At: s.At, Price: s.Price}
		if s.At.Before(c.XMin) {
			c.XMin = s.At
		}
		if s.At.After(c.XMax) {
			c.XMax = s.At
		}
		if s.Price < c.YMin {
			c.YMin = s.Price
		}
		if s.Price > c.YMax {
			c.YMax = s.Price
		}
	}
	return c
}
