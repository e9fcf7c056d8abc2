package grib2

import "fmt"

// InventoryEntry is one synthetic inventory line plus the structured
// fields Query filters against, per spec §4.6/§4.7.
type InventoryEntry struct {
	MessageNumber int
	ByteOffset    uint64
	Line          string

	ShortName           string
	LevelType           uint8
	LevelValue          int32
	LevelDescription    string
	ForecastTime        uint32
	ForecastDescription string

	Message *Message
}

// GetInventory produces one synthetic inventory line per message, in the
// exact shape spec §4.6 specifies:
//
//	{message_number}:{byte_offset}:d={YYYYMMDDHH}:{PARAM}:{level}:{forecast_time}:
func (r *Reader) GetInventory() ([]InventoryEntry, error) {
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
	return entries, nil
}

func (r *Reader) buildInventoryEntry(index int, offset uint64, msg *Message) InventoryEntry {
	t := msg.Section1.ReferenceTime
	dateStamp := fmt.Sprintf("%04d%02d%02d%02d", t.Year, t.Month, t.Day, t.Hour)

	shortName := shortNameOrFallback(r.tables.Parameters, msg.Discipline, msg.Section4.ParameterCategory(), msg.Section4.ParameterNumber())

	var levelDesc string
	var levelType uint8
	var levelValue int32
	var forecastTime uint32
	var forecastDesc string

	if p := msg.Section4.Product0; p != nil {
		levelType = p.FirstSurfaceType
		levelValue = p.FirstSurfaceValue
		levelDesc = levelOrFallback(r.tables.Levels, p.FirstSurfaceType, p.FirstSurfaceScale, p.FirstSurfaceValue)
		forecastTime = p.ForecastTime
		if r.tables.ForecastUnits != nil {
			forecastDesc = r.tables.ForecastUnits.Describe(p.ForecastUnit, p.ForecastTime)
		}
	} else {
		levelDesc = "unknown level"
	}

	line := fmt.Sprintf("%d:%d:d=%s:%s:%s:%s:",
		index+1, offset, dateStamp, shortName, levelDesc, forecastDesc)

	return InventoryEntry{
		MessageNumber:       index + 1,
		ByteOffset:          offset,
		Line:                line,
		ShortName:           shortName,
		LevelType:           levelType,
		LevelValue:          levelValue,
		LevelDescription:    levelDesc,
		ForecastTime:        forecastTime,
		ForecastDescription: forecastDesc,
		Message:             msg,
	}
}
