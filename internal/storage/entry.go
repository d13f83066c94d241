package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"asterix_decoder/internal/asterix"
)

// Entry is one data block and the outcome of decoding it, as handed to the
// stores.
type Entry struct {
	ID         uuid.UUID
	ReceivedAt time.Time
	Category   int
	Length     int
	Hex        string
	Records    []*asterix.Record
	Error      string // Decode error, empty on success.
}

// NewEntry builds an entry for msg. decodeErr is recorded as text so failed
// blocks can be archived next to the good ones.
func NewEntry(msg *asterix.Message, recs []*asterix.Record, decodeErr error, receivedAt time.Time) Entry {
	e := Entry{
		ID:         uuid.New(),
		ReceivedAt: receivedAt.UTC(),
		Category:   msg.Category,
		Length:     msg.Length,
		Hex:        msg.Hex(),
		Records:    recs,
	}
	if decodeErr != nil {
		e.Error = decodeErr.Error()
	}
	return e
}

// Target is the latest known state of one tracked target.
type Target struct {
	Category    int
	SAC         int
	SIC         int
	Key         string // "TN<number>" for tracks, "TA<address>" otherwise.
	Address     string
	Callsign    string
	Mode3A      string
	Latitude    *float64
	Longitude   *float64
	FlightLevel *float64
	LastSeen    time.Time
	Updates     int
}

// targetLabels names the record labels a target is built from.
type targetLabels struct {
	sac, sic    string
	track       string
	address     string
	callsign    []string
	mode3A      string
	lat, lon    []string
	flightLevel string
}

var targetLabelsByCategory = map[int]targetLabels{
	21: {
		sac:         "021_010_SAC",
		sic:         "021_010_SIC",
		track:       "021_161_TN",
		address:     "021_080_TA",
		callsign:    []string{"021_170_TI"},
		mode3A:      "021_070_M3A",
		lat:         []string{"021_131_LAT", "021_130_LAT"},
		lon:         []string{"021_131_LON", "021_130_LON"},
		flightLevel: "021_145_FL",
	},
	62: {
		sac:         "062_010_SAC",
		sic:         "062_010_SIC",
		track:       "062_040_TN",
		address:     "062_380_ADR",
		callsign:    []string{"062_245_TI", "062_380_ID", "062_390_CS"},
		mode3A:      "062_060_M3A",
		lat:         []string{"062_105_LAT"},
		lon:         []string{"062_105_LON"},
		flightLevel: "062_136_MFL",
	},
}

// TargetFromRecord extracts the target a record reports on. It returns false
// for categories without target semantics and for records that carry neither
// a data source nor a track number or address.
func TargetFromRecord(rec *asterix.Record, seen time.Time) (Target, bool) {
	labels, ok := targetLabelsByCategory[rec.Category]
	if !ok {
		return Target{}, false
	}

	sac, okSAC := intValue(rec, labels.sac)
	sic, okSIC := intValue(rec, labels.sic)
	if !okSAC || !okSIC {
		return Target{}, false
	}

	t := Target{
		Category: rec.Category,
		SAC:      sac,
		SIC:      sic,
		Address:  stringValue(rec, labels.address),
		Callsign: firstString(rec, labels.callsign),
		Mode3A:   stringValue(rec, labels.mode3A),
		LastSeen: seen.UTC(),
		Updates:  1,
	}

	switch tn, ok := intValue(rec, labels.track); {
	case ok:
		t.Key = fmt.Sprintf("TN%d", tn)
	case t.Address != "":
		t.Key = "TA" + t.Address
	default:
		return Target{}, false
	}

	t.Latitude = firstFloat(rec, labels.lat)
	t.Longitude = firstFloat(rec, labels.lon)
	if t.Latitude == nil || t.Longitude == nil {
		t.Latitude, t.Longitude = nil, nil
	}
	t.FlightLevel = firstFloat(rec, []string{labels.flightLevel})
	return t, true
}

// TargetsFromEntry returns the targets of every record in e.
func TargetsFromEntry(e Entry) []Target {
	var targets []Target
	for _, rec := range e.Records {
		if t, ok := TargetFromRecord(rec, e.ReceivedAt); ok {
			targets = append(targets, t)
		}
	}
	return targets
}

func intValue(rec *asterix.Record, label string) (int, bool) {
	v, ok := rec.Get(label)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	}
	return 0, false
}

func stringValue(rec *asterix.Record, label string) string {
	v, ok := rec.Get(label)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func firstString(rec *asterix.Record, labels []string) string {
	for _, l := range labels {
		if s := stringValue(rec, l); s != "" {
			return s
		}
	}
	return ""
}

func firstFloat(rec *asterix.Record, labels []string) *float64 {
	for _, l := range labels {
		v, ok := rec.Get(l)
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return &n
		case int:
			f := float64(n)
			return &f
		}
	}
	return nil
}
