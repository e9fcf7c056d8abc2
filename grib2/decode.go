package grib2

import (
	"math"

	"github.com/nimbusgrib/grib2/internal/bitio"
)

// decodeSection7 dispatches to the decoder matching §5's template number.
// Templates other than 0/2/3 are not fatal: the raw bytes are kept and
// Section7.Decoded is false.
func decodeSection7(body []byte, sec5 Section5, _ Section6) (Section7, error) {
	if len(body) < 5 {
		return Section7{}, ErrOutOfBounds
	}
	payload := body[5:]
	n := int(sec5.NumberOfDataPoints)

	switch {
	case sec5.Simple != nil:
		data := decodeSimplePacking(payload, sec5.Simple, n)
		return Section7{Data: data, Decoded: true}, nil
	case sec5.Complex != nil:
		data := decodeComplexPacking(payload, sec5.Complex, n)
		return Section7{Data: data, Decoded: true}, nil
	case sec5.Spatial != nil:
		data := decodeSpatialDifferencing(payload, sec5.Spatial, n)
		return Section7{Data: data, Decoded: true}, nil
	default:
		return Section7{Data: nil, Decoded: false, Raw: append([]byte(nil), payload...)}, nil
	}
}

// decodeSimplePacking implements data representation template 5.0 (spec §4.3).
func decodeSimplePacking(payload []byte, t *DRS0Template, n int) []float32 {
	scale := math.Pow(2, float64(t.BinaryScaleFactor))
	dscale := math.Pow(10, -float64(t.DecimalScaleFactor))
	out := make([]float32, n)

	if t.Bits == 0 {
		v := float32(float64(t.Reference) * dscale)
		for i := range out {
			out[i] = v
		}
		return out
	}

	cur := bitio.NewCursor(payload)
	for i := 0; i < n; i++ {
		x, err := cur.Read(int(t.Bits))
		if err != nil {
			// Truncated payload: remaining values stay zeroed.
			break
		}
		out[i] = float32((float64(t.Reference) + float64(x)*scale) * dscale)
	}
	return out
}

// groupMetadata is shared by templates 5.2 and 5.3: group reference
// values, widths, and lengths, each byte-realigned after its array.
type groupMetadata struct {
	refs    []int64
	widths  []int
	lengths []int
}

// readGroupMetadata reads the three group-metadata arrays that precede
// the packed values in complex packing, per spec §4.3.
func readGroupMetadata(cur *bitio.BitCursor, t *DRS2Template) (groupMetadata, error) {
	ng := int(t.NumberOfGroups)
	gm := groupMetadata{
		refs:    make([]int64, ng),
		widths:  make([]int, ng),
		lengths: make([]int, ng),
	}

	for i := 0; i < ng; i++ {
		v, err := cur.Read(int(t.Bits))
		if err != nil {
			return gm, err
		}
		gm.refs[i] = int64(v)
	}
	cur.Align()

	for i := 0; i < ng; i++ {
		v, err := cur.Read(int(t.BitsGroupWidth))
		if err != nil {
			return gm, err
		}
		gm.widths[i] = int(t.RefGroupWidth) + int(v)
	}
	cur.Align()

	for i := 0; i < ng; i++ {
		v, err := cur.Read(int(t.BitsGroupLength))
		if err != nil {
			return gm, err
		}
		gm.lengths[i] = int(v)*int(t.LengthIncrement) + int(t.RefGroupLength)
	}
	if ng > 0 {
		gm.lengths[ng-1] = int(t.LastGroupTrueLength)
	}
	cur.Align()

	return gm, nil
}

// unpackGroups expands the group-encoded integer field to n values,
// zeroing anything past a truncated payload.
func unpackGroups(cur *bitio.BitCursor, gm groupMetadata, n int) []int64 {
	out := make([]int64, n)
	idx := 0
outer:
	for g := range gm.refs {
		ref := gm.refs[g]
		w := gm.widths[g]
		l := gm.lengths[g]
		for k := 0; k < l && idx < n; k++ {
			var val int64
			if w > 0 {
				v, err := cur.Read(w)
				if err != nil {
					break outer
				}
				val = ref + int64(v)
			} else {
				val = ref
			}
			out[idx] = val
			idx++
		}
	}
	return out
}

// decodeComplexPacking implements data representation template 5.2.
func decodeComplexPacking(payload []byte, t *DRS2Template, n int) []float32 {
	cur := bitio.NewCursor(payload)
	gm, err := readGroupMetadata(cur, t)
	if err != nil {
		return make([]float32, n)
	}
	ints := unpackGroups(cur, gm, n)
	return scaleIntField(ints, t.Reference, t.BinaryScaleFactor, t.DecimalScaleFactor)
}

// decodeSpatialDifferencing implements data representation template 5.3:
// complex packing whose integer field is a first- or second-order spatial
// difference, reversed after group unpacking (spec §4.3).
func decodeSpatialDifferencing(payload []byte, t *DRS3Template, n int) []float32 {
	cur := bitio.NewCursor(payload)

	ne := int(t.ExtraDescriptorOctets)
	nbitsd := ne * 8
	order := int(t.SpatialDifferencingOrder)

	var h1, h2, gMin int64
	if nbitsd > 0 {
		v1, err := cur.Read64(nbitsd)
		if err != nil {
			return make([]float32, n)
		}
		h1 = int64(v1)
		if order == 2 {
			v2, err := cur.Read64(nbitsd)
			if err != nil {
				return make([]float32, n)
			}
			h2 = int64(v2)
		}
		sign, err := cur.Read(1)
		if err != nil {
			return make([]float32, n)
		}
		mag, err := cur.Read64(nbitsd - 1)
		if err != nil {
			return make([]float32, n)
		}
		if sign == 1 {
			gMin = -int64(mag)
		} else {
			gMin = int64(mag)
		}
	}
	// Note: the header is NOT byte-realigned before the group arrays.

	gm, err := readGroupMetadata(cur, &t.DRS2Template)
	if err != nil {
		return make([]float32, n)
	}
	packed := unpackGroups(cur, gm, n)

	z := make([]int64, n)
	for i, v := range packed {
		z[i] = v + gMin
	}

	undiff := make([]int64, n)
	switch order {
	case 1:
		if n > 0 {
			undiff[0] = h1
		}
		for i := 1; i < n; i++ {
			undiff[i] = z[i] + undiff[i-1]
		}
	case 2:
		if n > 0 {
			undiff[0] = h1
		}
		if n > 1 {
			undiff[1] = h2
		}
		for i := 2; i < n; i++ {
			undiff[i] = z[i] + 2*undiff[i-1] - undiff[i-2]
		}
	default:
		copy(undiff, z)
	}

	return scaleIntField(undiff, t.Reference, t.BinaryScaleFactor, t.DecimalScaleFactor)
}

// scaleIntField applies GRIB2's affine scaling f_i = (R + I_i * 2^E) * 10^-D
// to a decoded integer field.
func scaleIntField(ints []int64, ref float32, e, d int16) []float32 {
	scale := math.Pow(2, float64(e))
	dscale := math.Pow(10, -float64(d))
	out := make([]float32, len(ints))
	for i, v := range ints {
		out[i] = float32((float64(ref) + float64(v)*scale) * dscale)
	}
	return out
}
