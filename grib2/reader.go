package grib2

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/nimbusgrib/grib2/internal/bitio"
)

const (
	supportedEdition = 2
	section0Length   = 16
)

// Reader parses GRIB2 messages out of an immutable byte buffer. A Reader
// does not mutate or retain ownership beyond its own cursor state; two
// Readers over distinct buffers may run on separate goroutines without
// synchronisation.
type Reader struct {
	buf    []byte
	tables Tables
}

// ReaderOption configures a Reader at construction time.
type ReaderOption func(*Reader)

// WithTables injects the code-to-string lookup tables Inventory and Query
// use. If omitted, DefaultTables() is used.
func WithTables(t Tables) ReaderOption {
	return func(r *Reader) { r.tables = t }
}

// NewReader wraps buf, a concatenation of one or more GRIB2 messages.
func NewReader(buf []byte, opts ...ReaderOption) *Reader {
	r := &Reader{buf: buf, tables: DefaultTables()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Parse walks the buffer and decodes every message it contains. A
// malformed message causes the walker to resume scanning for the next
// "GRIB" signature rather than aborting the whole buffer, so a file with
// one corrupt message still yields its well-formed neighbours.
func (r *Reader) Parse() ([]*Message, error) {
	var messages []*Message
	off := 0
	for off < len(r.buf) {
		start := indexGRIB(r.buf, off)
		if start < 0 {
			break
		}
		msg, consumed, err := r.parseMessage(start)
		if err != nil {
			off = start + 4
			continue
		}
		messages = append(messages, msg)
		off = start + consumed
	}
	return messages, nil
}

// indexGRIB returns the byte offset of the next "GRIB" signature at or
// after off, or -1 if none remains.
func indexGRIB(buf []byte, off int) int {
	for i := off; i+4 <= len(buf); i++ {
		if buf[i] == 'G' && buf[i+1] == 'R' && buf[i+2] == 'I' && buf[i+3] == 'B' {
			return i
		}
	}
	return -1
}

// parseMessage decodes one message starting at byte offset start, which
// must point at "GRIB". It returns the message and the number of bytes
// consumed (== TotalLength, validated against the trailing "7777").
func (r *Reader) parseMessage(start int) (*Message, int, error) {
	br := bitio.New(r.buf)

	sig, err := br.Bytes(start, 4)
	if err != nil || string(sig) != "GRIB" {
		return nil, 0, fmt.Errorf("%w: at offset %d", ErrInvalidSignature, start)
	}
	discipline, err := br.ReadU8(start + 6)
	if err != nil {
		return nil, 0, err
	}
	edition, err := br.ReadU8(start + 7)
	if err != nil {
		return nil, 0, err
	}
	if edition != supportedEdition {
		return nil, 0, fmt.Errorf("%w: edition %d", ErrUnsupportedEdition, edition)
	}
	totalLength, err := br.ReadU64(start + 8)
	if err != nil {
		return nil, 0, err
	}
	end := start + int(totalLength)
	if end > len(r.buf) || totalLength < section0Length+4 {
		return nil, 0, fmt.Errorf("%w: total length %d exceeds buffer", ErrOutOfBounds, totalLength)
	}
	term, err := br.Bytes(end-4, 4)
	if err != nil || string(term) != "7777" {
		return nil, 0, fmt.Errorf("%w: missing 7777 terminator", ErrInvalidSignature)
	}

	msg := &Message{
		ID:          uuid.New(),
		Discipline:  discipline,
		Edition:     edition,
		TotalLength: totalLength,
	}

	pos := start + section0Length
	lastSectionNum := 0
	sawSection1, sawSection3, sawSection4, sawSection5, sawSection7 := false, false, false, false, false

	for pos < end-4 {
		if pos+5 > end {
			return nil, 0, fmt.Errorf("%w: truncated section header", ErrOutOfBounds)
		}
		secLen, err := br.ReadU32(pos)
		if err != nil {
			return nil, 0, err
		}
		secNum, err := br.ReadU8(pos + 4)
		if err != nil {
			return nil, 0, err
		}
		if int(secNum) <= lastSectionNum {
			return nil, 0, fmt.Errorf("%w: section %d after section %d", ErrUnexpectedSection, secNum, lastSectionNum)
		}
		body, err := br.Bytes(pos, int(secLen))
		if err != nil {
			return nil, 0, fmt.Errorf("%w: section %d length %d", ErrOutOfBounds, secNum, secLen)
		}

		switch secNum {
		case 1:
			msg.Section1, err = parseSection1(body)
			sawSection1 = true
		case 2:
			msg.Section2 = Section2{Present: true, LocalUse: body[5:]}
		case 3:
			msg.Section3, err = parseSection3(body)
			sawSection3 = true
		case 4:
			msg.Section4, err = parseSection4(body)
			sawSection4 = true
		case 5:
			msg.Section5, err = parseSection5(body)
			sawSection5 = true
		case 6:
			msg.Section6, err = parseSection6(body)
		case 7:
			msg.Section7, err = decodeSection7(body, msg.Section5, msg.Section6)
			sawSection7 = true
		default:
			return nil, 0, fmt.Errorf("%w: section number %d", ErrUnexpectedSection, secNum)
		}
		if err != nil {
			return nil, 0, err
		}
		lastSectionNum = int(secNum)
		pos += int(secLen)
	}

	if !(sawSection1 && sawSection3 && sawSection4 && sawSection5 && sawSection7) {
		return nil, 0, fmt.Errorf("%w: missing mandatory section", ErrUnexpectedSection)
	}
	if pos != end-4 {
		return nil, 0, fmt.Errorf("%w: sections consumed %d bytes, expected %d", ErrOutOfBounds, pos-start-section0Length, end-4-start-section0Length)
	}

	return msg, end - start, nil
}

func parseSection1(body []byte) (Section1, error) {
	br := bitio.New(body)
	var s Section1
	var err error
	get := func(f func() error) {
		if err == nil {
			err = f()
		}
	}
	var oc, osc uint16
	get(func() (e error) { oc, e = br.ReadU16(5); return })
	get(func() (e error) { osc, e = br.ReadU16(7); return })
	var mtv, ltv, rts uint8
	get(func() (e error) { mtv, e = br.ReadU8(9); return })
	get(func() (e error) { ltv, e = br.ReadU8(10); return })
	get(func() (e error) { rts, e = br.ReadU8(11); return })
	var year uint16
	var month, day, hour, minute, second, status, typ uint8
	get(func() (e error) { year, e = br.ReadU16(12); return })
	get(func() (e error) { month, e = br.ReadU8(14); return })
	get(func() (e error) { day, e = br.ReadU8(15); return })
	get(func() (e error) { hour, e = br.ReadU8(16); return })
	get(func() (e error) { minute, e = br.ReadU8(17); return })
	get(func() (e error) { second, e = br.ReadU8(18); return })
	get(func() (e error) { status, e = br.ReadU8(19); return })
	get(func() (e error) { typ, e = br.ReadU8(20); return })
	if err != nil {
		return s, err
	}
	s = Section1{
		OriginatingCenter:         oc,
		OriginatingSubCenter:      osc,
		MasterTablesVersion:       mtv,
		LocalTablesVersion:        ltv,
		ReferenceTimeSignificance: rts,
		ReferenceTime:             Time{year, month, day, hour, minute, second},
		ProductionStatus:          status,
		Type:                      typ,
	}
	return s, nil
}
