package grib2

import (
	"fmt"

	"github.com/google/uuid"
)

// Message is one decoded GRIB2 message: an indicator section, an
// identification section, grid/product/data-representation metadata, and
// (when the templates are supported) a materialised float32 field.
type Message struct {
	ID uuid.UUID

	Discipline  uint8
	Edition     uint8
	TotalLength uint64

	Section1 Section1
	Section2 Section2 // local use, optional
	Section3 Section3
	Section4 Section4
	Section5 Section5
	Section6 Section6 // bitmap, optional
	Section7 Section7
}

// Section1 is the Identification section.
type Section1 struct {
	OriginatingCenter         uint16
	OriginatingSubCenter      uint16
	MasterTablesVersion       uint8
	LocalTablesVersion        uint8
	ReferenceTimeSignificance uint8
	ReferenceTime             Time
	ProductionStatus          uint8
	Type                      uint8
}

// Time is the six-field reference time carried in §1.
type Time struct {
	Year   uint16
	Month  uint8
	Day    uint8
	Hour   uint8
	Minute uint8
	Second uint8
}

// Section2 is the opaque local-use section. It is a zero-copy view into
// the message buffer.
type Section2 struct {
	Present  bool
	LocalUse []byte
}

// Section3 is the GridDefinition section.
type Section3 struct {
	Source                   uint8
	NumberOfDataPoints       uint32
	PointCountOctets         uint8
	PointCountInterpretation uint8
	TemplateNumber           uint16

	// Grid is populated when TemplateNumber == 0; nil otherwise, in which
	// case RawTemplate holds the opaque template bytes.
	Grid        *GridTemplate0
	RawTemplate []byte
}

// GridTemplate0 is grid definition template 3.0 (regular latitude/longitude).
type GridTemplate0 struct {
	ShapeOfEarth            uint8
	Ni, Nj                  uint32
	LatFirst, LonFirst      float64 // degrees
	ResolutionComponentFlag uint8
	LatLastRecorded         float64 // as encoded; see LatLast/LonLast for the recomputed canonical values
	LonLastRecorded         float64
	IIncrement, JIncrement  float64 // degrees
	ScanningMode            uint8
}

// IScansNegative reports whether i increases from East to West.
func (g *GridTemplate0) IScansNegative() bool { return g.ScanningMode&0x80 != 0 }

// JScansPositive reports whether j increases from South to North.
func (g *GridTemplate0) JScansPositive() bool { return g.ScanningMode&0x40 != 0 }

// GridRelativeVectors reports whether §3's resolution/component flags mark
// vector components (e.g. wind u/v) as grid-relative rather than earth-relative.
func (g *GridTemplate0) GridRelativeVectors() bool { return g.ResolutionComponentFlag&0x08 != 0 }

// LatLast and LonLast recompute the canonical last grid point from
// LatFirst/LonFirst plus increment × (n-1), signed by scanning mode, per
// spec §3/§4.2 rather than trusting the recorded values in the stream.
func (g *GridTemplate0) LatLast() float64 {
	jSign := -1.0
	if g.JScansPositive() {
		jSign = 1.0
	}
	return g.LatFirst + float64(g.Nj-1)*g.JIncrement*jSign
}

func (g *GridTemplate0) LonLast() float64 {
	iSign := 1.0
	if g.IScansNegative() {
		iSign = -1.0
	}
	return g.LonFirst + float64(g.Ni-1)*g.IIncrement*iSign
}

// Section4 is the ProductDefinition section.
type Section4 struct {
	NumberOfCoordinateValues uint16
	TemplateNumber           uint16

	// TemplateBytes is the raw product definition template, preserved for
	// any template number; offsets 0/1 are ParameterCategory/ParameterNumber
	// for every template GRIB2 defines. Template 4.0's level/forecast
	// fields are decoded into Product0 when present.
	TemplateBytes []byte
	Product0      *Product0 // non-nil when TemplateNumber == 0

	Coordinates []byte
}

// ParameterCategory is TemplateBytes[0] — common to every product template.
func (s *Section4) ParameterCategory() uint8 {
	if len(s.TemplateBytes) < 1 {
		return 0
	}
	return s.TemplateBytes[0]
}

// ParameterNumber is TemplateBytes[1] — common to every product template.
func (s *Section4) ParameterNumber() uint8 {
	if len(s.TemplateBytes) < 2 {
		return 0
	}
	return s.TemplateBytes[1]
}

// Product0 decodes the fixed-offset fields of product definition template
// 4.0 that Inventory and Query need: level type/scale/value and forecast
// time. Per spec §9's open question, these are read at the WMO manual
// offsets (type +13, scale +14, value +15..18 relative to the template
// base) uniformly for both inventory formatting and level filtering.
type Product0 struct {
	ParameterCategory uint8
	ParameterNumber   uint8
	GeneratingProcess uint8
	ForecastUnit      uint8
	ForecastTime      uint32
	FirstSurfaceType  uint8
	FirstSurfaceScale int8
	FirstSurfaceValue int32
}

// Section5 is the DataRepresentation section.
type Section5 struct {
	NumberOfDataPoints uint32
	TemplateNumber     uint16

	Simple  *DRS0Template // template 5.0
	Complex *DRS2Template // template 5.2 (embedded in DRS3Template for 5.3)
	Spatial *DRS3Template // template 5.3

	// RawTemplate holds the template bytes regardless of which of the
	// above is populated, so an unsupported template number can still
	// surface its bytes.
	RawTemplate []byte
}

// DRS0Template is data representation template 5.0 (grid point, simple packing).
type DRS0Template struct {
	Reference          float32
	BinaryScaleFactor  int16
	DecimalScaleFactor int16
	Bits               uint8
	OriginalFieldType  uint8
}

// DRS2Template is data representation template 5.2 (complex packing).
type DRS2Template struct {
	DRS0Template
	SplittingMethod      uint8
	MissingValueMgmt     uint8
	PrimaryMissing       float32
	SecondaryMissing     float32
	NumberOfGroups       uint32
	RefGroupWidth        uint8
	BitsGroupWidth       uint8
	RefGroupLength       uint32
	LengthIncrement      uint8
	LastGroupTrueLength  uint32
	BitsGroupLength      uint8
}

// DRS3Template is data representation template 5.3 (complex packing with
// spatial differencing).
type DRS3Template struct {
	DRS2Template
	SpatialDifferencingOrder uint8
	ExtraDescriptorOctets    uint8
}

// Section6 is the Bitmap section.
type Section6 struct {
	Present   bool
	Indicator uint8
	Bitmap    []byte // nil when Indicator != 0
}

// Section7 is the Data section: either a decoded float32 field of length
// NumberOfDataPoints, or raw bytes when the §5 template is unsupported.
type Section7 struct {
	Data    []float32
	Decoded bool
	Raw     []byte
}

func (m *Message) String() string {
	return fmt.Sprintf("Message{discipline=%d cat=%d num=%d points=%d}",
		m.Discipline, m.Section4.ParameterCategory(), m.Section4.ParameterNumber(), m.Section3.NumberOfDataPoints)
}
