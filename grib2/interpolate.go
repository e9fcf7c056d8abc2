package grib2

import (
	"math"

	"github.com/paulmach/orb"
)

// RegridSpec describes a new regular lat/lng grid for RegridBilinear.
type RegridSpec struct {
	LatMin, LatMax, LatStep float64
	LngMin, LngMax, LngStep float64
}

// axisMap locates the fractional index of a coordinate along one grid
// axis, given the grid's start value and per-step increment (which may
// be negative, depending on scanning mode).
type axisMap struct {
	start, step float64
	n           int
}

func newAxisMap(start, next float64, n int) axisMap {
	step := 0.0
	if n > 1 {
		step = next - start
	}
	return axisMap{start: start, step: step, n: n}
}

// fractionalIndex returns the fractional index and whether v lies within
// the axis's covered range.
func (a axisMap) fractionalIndex(v float64) (float64, bool) {
	if a.n <= 1 {
		if v != a.start {
			return 0, false
		}
		return 0, true
	}
	lo, hi := a.start, a.start+float64(a.n-1)*a.step
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo || v > hi {
		return 0, false
	}
	return (v - a.start) / a.step, true
}

func (a axisMap) clampUpper(i int) int {
	if i >= a.n-1 {
		return a.n - 1
	}
	return i
}

// gridAxes derives the row-major i/j axis maps for a CoordinateBuilder
// grid, per spec §4.8's regular-lat/lng-grid requirement.
func gridAxes(g *GridInfo) (lng, lat axisMap, ok bool) {
	if g == nil || g.Ni == 0 || g.Nj == 0 || len(g.Points) != g.Ni*g.Nj {
		return axisMap{}, axisMap{}, false
	}
	lngStart := g.Points[0][0]
	lngNext := lngStart
	if g.Ni > 1 {
		lngNext = g.Points[1][0]
	}
	latStart := g.Points[0][1]
	latNext := latStart
	if g.Nj > 1 {
		latNext = g.Points[g.Ni][1]
	}
	return newAxisMap(lngStart, lngNext, g.Ni), newAxisMap(latStart, latNext, g.Nj), true
}

// BilinearPoint implements spec §4.8's bilinear_point: interpolates each
// requested parameter of d at (lat, lng). Returns ErrOutOfRange if the
// target lies outside the grid's covered lat/lng box, and
// ErrUnsupportedTemplate if d's grid is not a regular lat/lng grid.
func (r *Reader) BilinearPoint(d *DataView, lat, lng float64, params []string) (*PointRecord, error) {
	if d == nil || d.Grid == nil {
		return nil, ErrUnsupportedTemplate
	}
	lngAxis, latAxis, ok := gridAxes(d.Grid)
	if !ok {
		return nil, ErrUnsupportedTemplate
	}

	iF, iOK := lngAxis.fractionalIndex(lng)
	jF, jOK := latAxis.fractionalIndex(lat)
	if !iOK || !jOK {
		return nil, ErrOutOfRange
	}

	i0 := int(math.Floor(iF))
	j0 := int(math.Floor(jF))
	i1 := lngAxis.clampUpper(i0 + 1)
	j1 := latAxis.clampUpper(j0 + 1)
	i0 = lngAxis.clampUpper(i0)
	j0 = latAxis.clampUpper(j0)
	wx := iF - math.Floor(iF)
	wy := jF - math.Floor(jF)

	ni := d.Grid.Ni
	rec := &PointRecord{Lat: lat, Lng: lng, Values: make(map[string]float64, len(params))}
	for _, p := range params {
		field, ok := d.Fields[p]
		if !ok {
			continue
		}
		v00 := float64(field[j0*ni+i0])
		v10 := float64(field[j0*ni+i1])
		v01 := float64(field[j1*ni+i0])
		v11 := float64(field[j1*ni+i1])
		rec.Values[p] = v00*(1-wx)*(1-wy) + v10*wx*(1-wy) + v01*(1-wx)*wy + v11*wx*wy
	}
	return rec, nil
}

// RegridBilinear implements spec §4.8's regrid_bilinear: resamples d onto
// a new regular grid described by spec, populating each point with
// BilinearPoint and NaN for points outside the source grid.
func (r *Reader) RegridBilinear(d *DataView, spec RegridSpec, params []string) (*DataView, error) {
	if d == nil || d.Grid == nil {
		return nil, ErrUnsupportedTemplate
	}
	ni := int(math.Round((spec.LngMax-spec.LngMin)/spec.LngStep)) + 1
	nj := int(math.Round((spec.LatMax-spec.LatMin)/spec.LatStep)) + 1
	if ni < 1 || nj < 1 {
		return nil, ErrOutOfRange
	}

	points := make(orb.MultiPoint, ni*nj)
	bound := orb.Bound{Min: orb.Point{math.Inf(1), math.Inf(1)}, Max: orb.Point{math.Inf(-1), math.Inf(-1)}}
	fields := make(map[string][]float32, len(params))
	for _, p := range params {
		fields[p] = make([]float32, ni*nj)
	}

	for j := 0; j < nj; j++ {
		lat := spec.LatMin + float64(j)*spec.LatStep
		for i := 0; i < ni; i++ {
			lng := spec.LngMin + float64(i)*spec.LngStep
			idx := j*ni + i
			points[idx] = orb.Point{lng, lat}
			bound = bound.Extend(points[idx])

			rec, err := r.BilinearPoint(d, lat, lng, params)
			for _, p := range params {
				if err != nil {
					fields[p][idx] = float32(math.NaN())
					continue
				}
				if v, ok := rec.Values[p]; ok {
					fields[p][idx] = float32(v)
				} else {
					fields[p][idx] = float32(math.NaN())
				}
			}
		}
	}

	grid := &GridInfo{Ni: ni, Nj: nj, Points: points, Bound: bound}
	return &DataView{Grid: grid, Fields: fields}, nil
}
