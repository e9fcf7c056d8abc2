package grib2

import "github.com/nimbusgrib/grib2/internal/bitio"

const productTemplate0Number = 0

// parseSection4 decodes the ProductDefinition section. The template bytes
// are always preserved (so ParameterCategory/ParameterNumber are always
// available, per spec §3), and product definition template 4.0's
// level/forecast-time fields are additionally decoded into Product0 when
// that is the template in use.
func parseSection4(body []byte) (Section4, error) {
	br := bitio.New(body)
	var s Section4
	var err error
	get := func(f func() error) {
		if err == nil {
			err = f()
		}
	}
	get(func() (e error) { s.NumberOfCoordinateValues, e = br.ReadU16(5); return })
	get(func() (e error) { s.TemplateNumber, e = br.ReadU16(7); return })
	if err != nil {
		return s, err
	}

	templateStart := 9
	coordStart := len(body)
	if int(s.NumberOfCoordinateValues)*4 <= len(body)-templateStart {
		coordStart = len(body) - int(s.NumberOfCoordinateValues)*4
	}
	if coordStart < templateStart {
		coordStart = templateStart
	}
	s.TemplateBytes = append([]byte(nil), body[templateStart:coordStart]...)
	s.Coordinates = append([]byte(nil), body[coordStart:]...)

	if s.TemplateNumber == productTemplate0Number && len(s.TemplateBytes) >= 19 {
		tb := bitio.New(s.TemplateBytes)
		p := &Product0{}
		get(func() (e error) { p.ParameterCategory, e = tb.ReadU8(0); return })
		get(func() (e error) { p.ParameterNumber, e = tb.ReadU8(1); return })
		get(func() (e error) { p.GeneratingProcess, e = tb.ReadU8(2); return })
		get(func() (e error) { p.ForecastUnit, e = tb.ReadU8(8); return })
		var fcst uint32
		get(func() (e error) { fcst, e = tb.ReadU32(9); return })
		get(func() (e error) { p.FirstSurfaceType, e = tb.ReadU8(13); return })
		var rawScale int8
		get(func() (e error) {
			v, e := tb.ReadU8(14)
			rawScale = int8(v)
			return e
		})
		var rawValue int32
		get(func() (e error) { rawValue, e = tb.ReadI32(15); return })
		if err != nil {
			return s, err
		}
		p.ForecastTime = fcst
		p.FirstSurfaceScale = rawScale
		p.FirstSurfaceValue = rawValue
		s.Product0 = p
	}

	return s, nil
}
