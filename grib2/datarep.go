package grib2

import (
	"math"

	"github.com/nimbusgrib/grib2/internal/bitio"
)

const (
	drsSimplePacking  = 0
	drsComplexPacking = 2
	drsSpatialDiff    = 3
)

// parseSection5 decodes the DataRepresentation section. Templates 0, 2,
// and 3 are decoded into their typed structs; any other template number
// is not an error: no typed struct is set, nil is returned, and the raw
// bytes remain on Section5.RawTemplate.
func parseSection5(body []byte) (Section5, error) {
	br := bitio.New(body)
	var s Section5
	var err error
	get := func(f func() error) {
		if err == nil {
			err = f()
		}
	}
	get(func() (e error) { s.NumberOfDataPoints, e = br.ReadU32(5); return })
	get(func() (e error) { s.TemplateNumber, e = br.ReadU16(9); return })
	if err != nil {
		return s, err
	}
	s.RawTemplate = append([]byte(nil), body[11:]...)

	switch s.TemplateNumber {
	case drsSimplePacking:
		d, err := parseDRS0(s.RawTemplate)
		if err != nil {
			return s, err
		}
		s.Simple = &d
	case drsComplexPacking:
		d, err := parseDRS2(s.RawTemplate)
		if err != nil {
			return s, err
		}
		s.Complex = &d
	case drsSpatialDiff:
		d, err := parseDRS3(s.RawTemplate)
		if err != nil {
			return s, err
		}
		s.Spatial = &d
	default:
		return s, nil
	}
	return s, nil
}

// parseDRS0 decodes data representation template 5.0's fixed fields.
func parseDRS0(t []byte) (DRS0Template, error) {
	br := bitio.New(t)
	var d DRS0Template
	var err error
	get := func(f func() error) {
		if err == nil {
			err = f()
		}
	}
	var rawRef uint32
	get(func() (e error) { rawRef, e = br.ReadU32(0); return })
	get(func() (e error) { d.BinaryScaleFactor, e = br.ReadSignMagnitudeI16(4); return })
	get(func() (e error) { d.DecimalScaleFactor, e = br.ReadSignMagnitudeI16(6); return })
	get(func() (e error) { d.Bits, e = br.ReadU8(8); return })
	get(func() (e error) { d.OriginalFieldType, e = br.ReadU8(9); return })
	if err != nil {
		return d, err
	}
	d.Reference = u32ToFloat32(rawRef)
	return d, nil
}

// parseDRS2 decodes data representation template 5.2's fixed fields,
// including the simple-packing prefix it shares with 5.0.
func parseDRS2(t []byte) (DRS2Template, error) {
	simple, err := parseDRS0(t)
	if err != nil {
		return DRS2Template{}, err
	}
	br := bitio.New(t)
	var d DRS2Template
	d.DRS0Template = simple
	get := func(f func() error) {
		if err == nil {
			err = f()
		}
	}
	get(func() (e error) { d.SplittingMethod, e = br.ReadU8(10); return })
	get(func() (e error) { d.MissingValueMgmt, e = br.ReadU8(11); return })
	var primRaw, secRaw uint32
	get(func() (e error) { primRaw, e = br.ReadU32(12); return })
	get(func() (e error) { secRaw, e = br.ReadU32(16); return })
	get(func() (e error) { d.NumberOfGroups, e = br.ReadU32(20); return })
	get(func() (e error) { d.RefGroupWidth, e = br.ReadU8(24); return })
	get(func() (e error) { d.BitsGroupWidth, e = br.ReadU8(25); return })
	get(func() (e error) { d.RefGroupLength, e = br.ReadU32(26); return })
	get(func() (e error) { d.LengthIncrement, e = br.ReadU8(30); return })
	get(func() (e error) { d.LastGroupTrueLength, e = br.ReadU32(31); return })
	get(func() (e error) { d.BitsGroupLength, e = br.ReadU8(35); return })
	if err != nil {
		return d, err
	}
	d.PrimaryMissing = u32ToFloat32(primRaw)
	d.SecondaryMissing = u32ToFloat32(secRaw)
	return d, nil
}

// parseDRS3 decodes data representation template 5.3's fixed fields,
// including the complex-packing prefix it shares with 5.2.
func parseDRS3(t []byte) (DRS3Template, error) {
	complex2, err := parseDRS2(t)
	if err != nil {
		return DRS3Template{}, err
	}
	br := bitio.New(t)
	var d DRS3Template
	d.DRS2Template = complex2
	get := func(f func() error) {
		if err == nil {
			err = f()
		}
	}
	get(func() (e error) { d.SpatialDifferencingOrder, e = br.ReadU8(36); return })
	get(func() (e error) { d.ExtraDescriptorOctets, e = br.ReadU8(37); return })
	if err != nil {
		return d, err
	}
	return d, nil
}

func parseSection6(body []byte) (Section6, error) {
	br := bitio.New(body)
	ind, err := br.ReadU8(5)
	if err != nil {
		return Section6{}, err
	}
	s := Section6{Present: true, Indicator: ind}
	if ind == 0 {
		s.Bitmap = append([]byte(nil), body[6:]...)
	}
	return s, nil
}

// u32ToFloat32 reinterprets raw as an IEEE 754 single-precision float, the
// wire representation of §5's reference-value field.
func u32ToFloat32(raw uint32) float32 {
	return math.Float32frombits(raw)
}
