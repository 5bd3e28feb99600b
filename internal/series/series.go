package series

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/greenshift/greenshift/internal/quality"
)

// Units reported on a Series.
const (
	UnitPercent = "percent"
	UnitKm2     = "km2"
)

// DateLayout is the calendar-date form used in CSV output and aggregation.
const DateLayout = "2006-01-02"

// Kilometres per degree of latitude, and per degree of longitude at the
// equator (scaled by cos(lat) elsewhere).
const (
	kmPerDegLat = 110.574
	kmPerDegLon = 111.320
)

// Point is one dated observation.
type Point struct {
	Date  time.Time
	Value float64
}

// Series is an ordered vegetation time series.
type Series struct {
	Points []Point
	Unit   string
}

// Options controls how observations are derived from scenes.
type Options struct {
	// Area reports vegetation surface area in km² instead of the raw
	// vegetation percentage.
	Area bool

	// AggregateDaily averages scenes that share a calendar date.
	AggregateDaily bool
}

// FromScenes builds the series from quality-filtered scenes.
// The result is sorted by date.
func FromScenes(scenes []quality.Scene, opts Options) Series {
	unit := UnitPercent
	if opts.Area {
		unit = UnitKm2
	}

	points := make([]Point, 0, len(scenes))
	for _, sc := range scenes {
		v := sc.Vegetation
		if opts.Area {
			v = sc.Vegetation / 100 * bboxAreaKm2(sc.BBox)
		}
		points = append(points, Point{Date: sc.Date, Value: v})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	if opts.AggregateDaily {
		points = aggregateDaily(points)
	}
	return Series{Points: points, Unit: unit}
}

// Values returns the observation values in date order, ready for the
// change-point scorer.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// aggregateDaily averages consecutive points sharing a calendar date.
// Input must already be sorted by date.
func aggregateDaily(points []Point) []Point {
	if len(points) == 0 {
		return points
	}

	out := make([]Point, 0, len(points))
	day := points[0].Date.Format(DateLayout)
	sum, count := 0.0, 0

	flush := func() {
		d, _ := time.Parse(DateLayout, day)
		out = append(out, Point{Date: d, Value: sum / float64(count)})
	}

	for _, p := range points {
		pd := p.Date.Format(DateLayout)
		if pd != day {
			flush()
			day, sum, count = pd, 0, 0
		}
		sum += p.Value
		count++
	}
	flush()
	return out
}

// bboxAreaKm2 approximates the surface area of a lon/lat bounding box using
// an equirectangular projection around the box's mid latitude. Good enough
// at Sentinel-2 scene scale; this is workshop arithmetic, not geodesy.
func bboxAreaKm2(bbox []float64) float64 {
	if len(bbox) != 4 {
		return 0
	}
	midLat := (bbox[1] + bbox[3]) / 2 * math.Pi / 180
	width := (bbox[2] - bbox[0]) * kmPerDegLon * math.Cos(midLat)
	height := (bbox[3] - bbox[1]) * kmPerDegLat
	if width < 0 || height < 0 {
		return 0
	}
	return width * height
}

func (s Series) String() string {
	if len(s.Points) == 0 {
		return "series: empty"
	}
	return fmt.Sprintf("series: %d points (%s), %s … %s",
		len(s.Points), s.Unit,
		s.Points[0].Date.Format(DateLayout),
		s.Points[len(s.Points)-1].Date.Format(DateLayout))
}
