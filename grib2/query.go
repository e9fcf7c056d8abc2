package grib2

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// DataOptions configures Reader.GetData, mirroring spec §4.7's named
// options table.
type DataOptions struct {
	MessageIndex           int
	Match                  string
	Parameters             []string
	LevelType              *uint8
	LevelValue             *int32
	FirstParameterOnly     *bool // nil defaults to true: merging keeps only the first message seen per parameter
	MultiLevel             bool
	LongitudeFormat        LongitudeFormat
	CalculateWindSpeed     bool
	CalculateWindDirection bool
	EarthRelativeWinds     bool
	AsObjects              bool
}

func (o DataOptions) firstParamWins() bool {
	if o.FirstParameterOnly == nil {
		return true
	}
	return *o.FirstParameterOnly
}

// PointRecord is one grid point's coordinates plus its requested
// parameter values, used when DataOptions.AsObjects is set.
type PointRecord struct {
	Lat, Lng float64
	Values   map[string]float64
}

// DataView is the result of Reader.GetData. Fields/Objects hold the
// merged view; PerMessage is populated instead when DataOptions.MultiLevel
// is set, one entry per selected message rather than a single merge.
type DataView struct {
	Grid    *GridInfo
	Fields  map[string][]float32
	Objects []PointRecord

	PerMessage []*DataView
}

// GetData implements spec §4.7's getData: match → explicit filters →
// per-message collection → derived fields → output-shape conversion.
func (r *Reader) GetData(opts DataOptions) (*DataView, error) {
	messages, err := r.Parse()
	if err != nil {
		return nil, err
	}
	entries := make([]InventoryEntry, len(messages))
	var offset uint64
	for i, msg := range messages {
		entries[i] = r.buildInventoryEntry(i, offset, msg)
		offset += msg.TotalLength
	}

	candidates := entries
	if opts.Match != "" {
		re, err := regexp.Compile(opts.Match)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		var filtered []InventoryEntry
		for _, e := range entries {
			if re.MatchString(e.Line) {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) == 0 {
			return nil, ErrNoMatch
		}
		candidates = filtered
	}

	if len(opts.Parameters) > 0 {
		want := make(map[string]bool, len(opts.Parameters))
		for _, p := range opts.Parameters {
			want[strings.ToUpper(p)] = true
		}
		candidates = filterEntries(candidates, func(e InventoryEntry) bool { return want[e.ShortName] })
	}
	if opts.LevelType != nil {
		lt := *opts.LevelType
		candidates = filterEntries(candidates, func(e InventoryEntry) bool { return e.LevelType == lt })
	}
	if opts.LevelValue != nil {
		lv := *opts.LevelValue
		candidates = filterEntries(candidates, func(e InventoryEntry) bool { return e.LevelValue == lv })
	}

	if opts.MessageIndex < 0 || opts.MessageIndex >= len(messages) {
		return nil, ErrOutOfRange
	}
	baseGrid := messages[opts.MessageIndex].Section3.Grid
	if baseGrid == nil {
		return nil, ErrUnsupportedTemplate
	}
	grid, err := buildCoordinates(baseGrid, opts.LongitudeFormat)
	if err != nil {
		return nil, err
	}

	if opts.MultiLevel {
		perMessage := make([]*DataView, 0, len(candidates))
		for _, e := range candidates {
			if !e.Message.Section7.Decoded {
				continue
			}
			fields := map[string][]float32{e.ShortName: e.Message.Section7.Data}
			applyDerivedFields(fields, opts)
			dv := &DataView{Grid: grid, Fields: fields}
			if opts.AsObjects {
				dv.Objects = toObjects(grid, fields)
				dv.Fields = nil
			}
			perMessage = append(perMessage, dv)
		}
		return &DataView{PerMessage: perMessage}, nil
	}

	fields := make(map[string][]float32)
	firstWins := opts.firstParamWins()
	for _, e := range candidates {
		if !e.Message.Section7.Decoded {
			continue
		}
		if _, exists := fields[e.ShortName]; exists && firstWins {
			continue
		}
		fields[e.ShortName] = e.Message.Section7.Data
	}

	applyDerivedFields(fields, opts)

	if opts.EarthRelativeWinds && baseGrid.GridRelativeVectors() {
		rotateToEarthRelativeTemplate0(fields)
	}

	dv := &DataView{Grid: grid, Fields: fields}
	if opts.AsObjects {
		dv.Objects = toObjects(grid, fields)
		dv.Fields = nil
	}
	return dv, nil
}

func filterEntries(entries []InventoryEntry, keep func(InventoryEntry) bool) []InventoryEntry {
	var out []InventoryEntry
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// applyDerivedFields adds wind_speed/wind_dir when both ugrd and vgrd
// fields are present, per spec §4.7.
func applyDerivedFields(fields map[string][]float32, opts DataOptions) {
	u, uok := fields["UGRD"]
	v, vok := fields["VGRD"]
	if !uok || !vok || len(u) != len(v) {
		return
	}
	if opts.CalculateWindSpeed {
		speed := make([]float32, len(u))
		for i := range u {
			speed[i] = float32(math.Hypot(float64(u[i]), float64(v[i])))
		}
		fields["wind_speed"] = speed
	}
	if opts.CalculateWindDirection {
		dir := make([]float32, len(u))
		for i := range u {
			d := math.Atan2(-float64(u[i]), -float64(v[i])) * 180 / math.Pi
			for d < 0 {
				d += 360
			}
			for d >= 360 {
				d -= 360
			}
			if u[i] == 0 && v[i] == 0 {
				d = 0
			}
			dir[i] = float32(d)
		}
		fields["wind_dir"] = dir
	}
}

// rotateToEarthRelativeTemplate0 rotates grid-relative (u,v) vectors to
// earth-relative. For grid template 0, grid lines already align with
// meridians/parallels, so the rotation is the identity — see spec §9.
func rotateToEarthRelativeTemplate0(fields map[string][]float32) {
	_ = fields // no-op for template 0; retained as the seam for projected grids
}

// toObjects converts parallel field arrays into per-point records, per
// DataOptions.AsObjects.
func toObjects(grid *GridInfo, fields map[string][]float32) []PointRecord {
	n := len(grid.Points)
	out := make([]PointRecord, n)
	for i, p := range grid.Points {
		vals := make(map[string]float64, len(fields))
		for name, arr := range fields {
			if i < len(arr) {
				vals[name] = float64(arr[i])
			}
		}
		out[i] = PointRecord{Lat: p[1], Lng: p[0], Values: vals}
	}
	return out
}
