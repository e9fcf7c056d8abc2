package grib2

import (
	"math"
	"testing"

	"github.com/nimbusgrib/grib2/internal/bitio"
)

func TestDecodeSimplePackingZeroBits(t *testing.T) {
	tpl := &DRS0Template{Reference: 5, BinaryScaleFactor: 0, DecimalScaleFactor: 0, Bits: 0}
	out := decodeSimplePacking(nil, tpl, 3)
	for i, v := range out {
		if v != 5 {
			t.Errorf("out[%d]: got %v, want 5 (constant field)", i, v)
		}
	}
}

func TestDecodeSimplePackingScaling(t *testing.T) {
	// reference=10, binary scale=1 (x2), decimal scale=1 (/10), bits=8
	tpl := &DRS0Template{Reference: 10, BinaryScaleFactor: 1, DecimalScaleFactor: 1, Bits: 8}
	payload := []byte{5} // raw integer 5
	out := decodeSimplePacking(payload, tpl, 1)
	// f = (10 + 5*2) * 10^-1 = 20 * 0.1 = 2.0
	want := float32(2.0)
	if out[0] != want {
		t.Errorf("decodeSimplePacking scaling: got %v, want %v", out[0], want)
	}
}

func TestDecodeSimplePackingTruncatedPayload(t *testing.T) {
	tpl := &DRS0Template{Reference: 0, Bits: 8}
	out := decodeSimplePacking([]byte{1}, tpl, 3)
	if len(out) != 3 {
		t.Fatalf("out length: got %d, want 3", len(out))
	}
	if out[0] != 1 {
		t.Errorf("out[0]: got %v, want 1", out[0])
	}
	if out[1] != 0 || out[2] != 0 {
		t.Errorf("out[1:]: got %v, want zeroed after truncation", out[1:])
	}
}

func TestScaleIntField(t *testing.T) {
	out := scaleIntField([]int64{0, 1, 2}, 100, 0, 0)
	want := []float32{100, 101, 102}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("scaleIntField[%d]: got %v, want %v", i, out[i], want[i])
		}
	}
}

func TestScaleIntFieldWithDecimalScale(t *testing.T) {
	out := scaleIntField([]int64{5}, 0, 0, 1)
	want := float32(0.5)
	if out[0] != want {
		t.Errorf("scaleIntField with decimal scale: got %v, want %v", out[0], want)
	}
}

func TestReadGroupMetadata(t *testing.T) {
	// 2 groups: refs(bits=4)=[1,2], groupWidthBits=2, refGroupWidth=3,
	// lengths encoded with bitsGroupLength=3, refGroupLength=0, lengthIncrement=1.
	tpl := &DRS2Template{
		DRS0Template:        DRS0Template{Bits: 4},
		BitsGroupWidth:      2,
		RefGroupWidth:       3,
		BitsGroupLength:     3,
		RefGroupLength:      0,
		LengthIncrement:     1,
		NumberOfGroups:      2,
		LastGroupTrueLength: 5,
	}
	// refs: 4 bits each -> 0b0001=1, 0b0010=2 => byte 0x12
	// widths (after byte align): 2 bits each -> 0b01=1, 0b10=2 => 0b0110_0000 = 0x60
	// lengths (after byte align): 3 bits each -> 0b010=2, 0b011=3 => 0b010011_00 = 0x4C
	buf := []byte{0x12, 0x60, 0x4C}
	cur := bitio.NewCursor(buf)
	gm, err := readGroupMetadata(cur, tpl)
	if err != nil {
		t.Fatalf("readGroupMetadata error: %v", err)
	}
	if gm.refs[0] != 1 || gm.refs[1] != 2 {
		t.Errorf("refs: got %v, want [1 2]", gm.refs)
	}
	if gm.widths[0] != 4 || gm.widths[1] != 5 {
		t.Errorf("widths: got %v, want [4 5] (refGroupWidth=3 + decoded)", gm.widths)
	}
	// last group length overridden by LastGroupTrueLength regardless of decoded bits
	if gm.lengths[1] != 5 {
		t.Errorf("lengths[1]: got %d, want 5 (LastGroupTrueLength)", gm.lengths[1])
	}
}

func TestUnpackGroupsTruncated(t *testing.T) {
	gm := groupMetadata{refs: []int64{10}, widths: []int{8}, lengths: []int{3}}
	cur := bitio.NewCursor([]byte{0x01}) // only one byte, not enough for 3 8-bit reads
	out := unpackGroups(cur, gm, 3)
	if out[0] != 11 {
		t.Errorf("out[0]: got %d, want 11", out[0])
	}
	if out[1] != 0 || out[2] != 0 {
		t.Errorf("out[1:]: got %v, want zeroed after truncation", out[1:])
	}
}

func TestU32ToFloat32(t *testing.T) {
	bits := math.Float32bits(3.5)
	if got := u32ToFloat32(bits); got != 3.5 {
		t.Errorf("u32ToFloat32: got %v, want 3.5", got)
	}
}

// buildDRS2Section5 assembles a full §5 body (length+number+fixed fields
// through the end of template 5.2) around a DRS2Template, the way
// buildSyntheticMessage assembles whole messages elsewhere in this package.
func buildDRS2Section5(n uint32, d DRS2Template) []byte {
	body := make([]byte, 11+36)
	putU32(body, 0, uint32(len(body)))
	putU8(body, 4, 5)
	putU32(body, 5, n)
	putU16(body, 9, 2)
	t := body[11:]
	putU32(t, 0, math.Float32bits(d.Reference))
	putU16(t, 4, signMag16(d.BinaryScaleFactor))
	putU16(t, 6, signMag16(d.DecimalScaleFactor))
	putU8(t, 8, d.Bits)
	putU8(t, 9, d.OriginalFieldType)
	putU8(t, 10, d.SplittingMethod)
	putU8(t, 11, d.MissingValueMgmt)
	putU32(t, 12, math.Float32bits(d.PrimaryMissing))
	putU32(t, 16, math.Float32bits(d.SecondaryMissing))
	putU32(t, 20, d.NumberOfGroups)
	putU8(t, 24, d.RefGroupWidth)
	putU8(t, 25, d.BitsGroupWidth)
	putU32(t, 26, d.RefGroupLength)
	putU8(t, 30, d.LengthIncrement)
	putU32(t, 31, d.LastGroupTrueLength)
	putU8(t, 35, d.BitsGroupLength)
	return body
}

// buildDRS3Section5 extends buildDRS2Section5 with template 5.3's two extra
// fixed fields (spatial differencing order and the count of extra octets).
func buildDRS3Section5(n uint32, d DRS3Template) []byte {
	drs2Body := buildDRS2Section5(n, d.DRS2Template)
	body := make([]byte, len(drs2Body)+2)
	copy(body, drs2Body)
	putU32(body, 0, uint32(len(body)))
	putU16(body, 9, 3)
	t := body[11:]
	putU8(t, 36, d.SpatialDifferencingOrder)
	putU8(t, 37, d.ExtraDescriptorOctets)
	return body
}

func signMag16(v int16) uint16 {
	if v < 0 {
		return uint16(-v) | 0x8000
	}
	return uint16(v)
}

func buildSection7(payload []byte) []byte {
	body := make([]byte, 5+len(payload))
	putU32(body, 0, uint32(len(body)))
	putU8(body, 4, 7)
	copy(body[5:], payload)
	return body
}

// TestDecodeComplexPackingTwoGroups exercises template 5.2 end to end:
// parseSection5 -> parseDRS2 -> decodeSection7 -> decodeComplexPacking over
// two groups, one with a non-zero width and one constant.
//
// Group 0: ref=10, width=3 bits, length=2, values 0 and 1 -> decoded 10, 11.
// Group 1: ref=20, width=0 bits (constant), length=2 (LastGroupTrueLength
// override) -> decoded 20, 20.
func TestDecodeComplexPackingTwoGroups(t *testing.T) {
	drs := DRS2Template{
		DRS0Template:        DRS0Template{Bits: 8},
		NumberOfGroups:      2,
		RefGroupWidth:       0,
		BitsGroupWidth:      4,
		RefGroupLength:      0,
		LengthIncrement:     1,
		LastGroupTrueLength: 2,
		BitsGroupLength:     4,
	}
	sec5Body := buildDRS2Section5(4, drs)
	sec5, err := parseSection5(sec5Body)
	if err != nil {
		t.Fatalf("parseSection5: %v", err)
	}
	if sec5.Complex == nil {
		t.Fatal("parseSection5: Complex template is nil")
	}

	payload := []byte{
		0x0A, 0x14, // refs: 10, 20 (8 bits each)
		0x30, // widths: delta 3, delta 0 (4 bits each) -> widths 3, 0
		0x20, // lengths: delta 2, delta 0 (4 bits each) -> length[0]=2, length[1] overridden to 2
		0x04, // group values: 000 001 + 2 padding bits -> vals 0, 1
	}
	sec7Body := buildSection7(payload)
	sec7, err := decodeSection7(sec7Body, sec5, Section6{})
	if err != nil {
		t.Fatalf("decodeSection7: %v", err)
	}
	if !sec7.Decoded {
		t.Fatal("decodeSection7: Decoded is false")
	}
	want := []float32{10, 11, 20, 20}
	if len(sec7.Data) != len(want) {
		t.Fatalf("Data length: got %d, want %d", len(sec7.Data), len(want))
	}
	for i, v := range want {
		if sec7.Data[i] != v {
			t.Errorf("Data[%d]: got %v, want %v", i, sec7.Data[i], v)
		}
	}
}

// TestDecodeSpatialDifferencingOrder1 reproduces the canonical template 5.3
// scenario: first-order spatial differencing with h1=100 and a group
// minimum of -2, which should unwind to 100, 198, 296, 394, 492.
//
// Header: h1=100 (8 bits), sign=1/mag=2 for g_min=-2 (1+7 bits) -> exactly
// 2 bytes, already byte-aligned, so group metadata starts with no padding.
// One group covers all 5 values: ref=100, width=0 (constant), length=5 via
// LastGroupTrueLength, so every unpacked value is 100 and z_i = 100-2 = 98.
// undiff[0]=100, undiff[i]=98+undiff[i-1] for i>=1.
func TestDecodeSpatialDifferencingOrder1(t *testing.T) {
	drs := DRS3Template{
		DRS2Template: DRS2Template{
			DRS0Template:        DRS0Template{Bits: 8},
			NumberOfGroups:      1,
			RefGroupWidth:       0,
			BitsGroupWidth:      0,
			RefGroupLength:      0,
			LengthIncrement:     0,
			LastGroupTrueLength: 5,
			BitsGroupLength:     0,
		},
		SpatialDifferencingOrder: 1,
		ExtraDescriptorOctets:    1,
	}
	sec5Body := buildDRS3Section5(5, drs)
	sec5, err := parseSection5(sec5Body)
	if err != nil {
		t.Fatalf("parseSection5: %v", err)
	}
	if sec5.Spatial == nil {
		t.Fatal("parseSection5: Spatial template is nil")
	}

	payload := []byte{
		0x64, // h1 = 100
		0x82, // sign=1, magnitude=2 (7 bits) -> g_min = -2
		0x64, // group ref = 100
	}
	sec7Body := buildSection7(payload)
	sec7, err := decodeSection7(sec7Body, sec5, Section6{})
	if err != nil {
		t.Fatalf("decodeSection7: %v", err)
	}
	if !sec7.Decoded {
		t.Fatal("decodeSection7: Decoded is false")
	}
	want := []float32{100, 198, 296, 394, 492}
	if len(sec7.Data) != len(want) {
		t.Fatalf("Data length: got %d, want %d", len(sec7.Data), len(want))
	}
	for i, v := range want {
		if sec7.Data[i] != v {
			t.Errorf("Data[%d]: got %v, want %v", i, sec7.Data[i], v)
		}
	}
}
