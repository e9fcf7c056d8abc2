package grib2

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/nimbusgrib/grib2/internal/bitio"
)

const gridTemplate0Number = 0

// parseSection3 decodes the GridDefinition section. Only grid definition
// template 0 (regular latitude/longitude) is materialised; any other
// template is preserved as raw bytes per spec — it is not a fatal error.
func parseSection3(body []byte) (Section3, error) {
	br := bitio.New(body)
	var s Section3
	var err error
	get := func(f func() error) {
		if err == nil {
			err = f()
		}
	}
	get(func() (e error) { s.Source, e = br.ReadU8(5); return })
	get(func() (e error) { s.NumberOfDataPoints, e = br.ReadU32(6); return })
	get(func() (e error) { s.PointCountOctets, e = br.ReadU8(10); return })
	get(func() (e error) { s.PointCountInterpretation, e = br.ReadU8(11); return })
	get(func() (e error) { s.TemplateNumber, e = br.ReadU16(12); return })
	if err != nil {
		return s, err
	}
	if s.TemplateNumber != gridTemplate0Number {
		s.RawTemplate = append([]byte(nil), body[14:]...)
		return s, nil
	}

	g := &GridTemplate0{}
	get(func() (e error) { g.ShapeOfEarth, e = br.ReadU8(14); return })
	var ni, nj uint32
	get(func() (e error) { ni, e = br.ReadU32(30); return })
	get(func() (e error) { nj, e = br.ReadU32(34); return })
	var latFirst, lonFirst int32
	get(func() (e error) { latFirst, e = br.ReadI32(46); return })
	get(func() (e error) { lonFirst, e = br.ReadI32(50); return })
	get(func() (e error) { g.ResolutionComponentFlag, e = br.ReadU8(54); return })
	var latLast, lonLast int32
	get(func() (e error) { latLast, e = br.ReadI32(55); return })
	get(func() (e error) { lonLast, e = br.ReadI32(59); return })
	var iInc, jInc uint32
	get(func() (e error) { iInc, e = br.ReadU32(63); return })
	get(func() (e error) { jInc, e = br.ReadU32(67); return })
	get(func() (e error) { g.ScanningMode, e = br.ReadU8(71); return })
	if err != nil {
		return s, err
	}

	g.Ni, g.Nj = ni, nj
	g.LatFirst = float64(latFirst) * 1e-6
	g.LonFirst = float64(lonFirst) * 1e-6
	g.LatLastRecorded = float64(latLast) * 1e-6
	g.LonLastRecorded = float64(lonLast) * 1e-6
	g.IIncrement = float64(iInc) * 1e-6
	g.JIncrement = float64(jInc) * 1e-6
	s.Grid = g
	return s, nil
}

// LongitudeFormat selects how CoordinateBuilder normalises longitude values.
type LongitudeFormat int

const (
	// LongitudePreserve leaves longitudes exactly as computed from the grid
	// template, even if they exceed 360° or are negative by design of the
	// source grid.
	LongitudePreserve LongitudeFormat = iota
	// Longitude0To360 folds values into [0, 360).
	Longitude0To360
	// LongitudeMinus180To180 folds values into (-180, +180].
	LongitudeMinus180To180
)

// GridInfo is the materialised coordinate grid for one message, returned
// by Reader.GetGrid.
type GridInfo struct {
	Ni, Nj int
	Points orb.MultiPoint // (lng, lat) pairs, row-major with j the outer axis
	Bound  orb.Bound
}

// Lats returns the per-point latitudes in row-major order.
func (g *GridInfo) Lats() []float32 {
	out := make([]float32, len(g.Points))
	for i, p := range g.Points {
		out[i] = float32(p[1])
	}
	return out
}

// Lngs returns the per-point longitudes in row-major order.
func (g *GridInfo) Lngs() []float32 {
	out := make([]float32, len(g.Points))
	for i, p := range g.Points {
		out[i] = float32(p[0])
	}
	return out
}

// buildCoordinates materialises lat/lng arrays from a grid template 0 and
// applies longitude normalisation, per spec §4.5.
func buildCoordinates(g *GridTemplate0, format LongitudeFormat) (*GridInfo, error) {
	if g == nil {
		return nil, ErrUnsupportedTemplate
	}
	ni, nj := int(g.Ni), int(g.Nj)
	jSign := -1.0
	if g.JScansPositive() {
		jSign = 1.0
	}
	iSign := 1.0
	if g.IScansNegative() {
		iSign = -1.0
	}

	points := make(orb.MultiPoint, ni*nj)
	bound := orb.Bound{Min: orb.Point{math.Inf(1), math.Inf(1)}, Max: orb.Point{math.Inf(-1), math.Inf(-1)}}
	for j := 0; j < nj; j++ {
		lat := g.LatFirst + float64(j)*g.JIncrement*jSign
		for i := 0; i < ni; i++ {
			lng := g.LonFirst + float64(i)*g.IIncrement*iSign
			lng = normalizeLongitude(lng, format)
			p := orb.Point{lng, lat}
			points[j*ni+i] = p
			bound = bound.Extend(p)
		}
	}
	return &GridInfo{Ni: ni, Nj: nj, Points: points, Bound: bound}, nil
}

// normalizeLongitude applies the caller-selected longitude convention.
// Grids crossing the antimeridian keep non-topological numeric bounds
// post-normalisation; see spec §9's Open Question on this.
func normalizeLongitude(lng float64, format LongitudeFormat) float64 {
	switch format {
	case Longitude0To360:
		for lng < 0 {
			lng += 360
		}
		for lng >= 360 {
			lng -= 360
		}
		return lng
	case LongitudeMinus180To180:
		for lng <= -180 {
			lng += 360
		}
		for lng > 180 {
			lng -= 360
		}
		return lng
	default:
		return lng
	}
}

// GetGrid returns the materialised coordinate grid for the message at
// messageIndex (0 by default), per spec §6.
func (r *Reader) GetGrid(messageIndex int) (*GridInfo, error) {
	messages, err := r.Parse()
	if err != nil {
		return nil, err
	}
	if messageIndex < 0 || messageIndex >= len(messages) {
		return nil, ErrOutOfRange
	}
	msg := messages[messageIndex]
	if msg.Section3.Grid == nil {
		return nil, ErrUnsupportedTemplate
	}
	return buildCoordinates(msg.Section3.Grid, LongitudePreserve)
}
