package asterix

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		cat       int
		item, sub string
		n         int
		want      string
	}{
		{21, "010", "SAC", 0, "021_010_SAC"},
		{62, "380", "MHG", 0, "062_380_MHG"},
		{21, "SP", "", 0, "021_SP"},
		{21, "250", "BDS1", 2, "021_250_BDS1_2"},
		{62, "510", "STN", 1, "062_510_STN_1"},
	}

	for _, tt := range tests {
		var got string
		if tt.n == 0 {
			got = Label(tt.cat, tt.item, tt.sub)
		} else {
			got = IndexedLabel(tt.cat, tt.item, tt.sub, tt.n)
		}
		if got != tt.want {
			t.Errorf("label(%d, %q, %q, %d) = %q, want %q", tt.cat, tt.item, tt.sub, tt.n, got, tt.want)
		}
	}
}

func TestRecordOrderAndJSON(t *testing.T) {
	rec := NewRecord(21)
	f := NewFields(rec, 21, "010")
	f.Set("SIC", 2)
	f.Set("SAC", 1)
	NewFields(rec, 21, "SP").Set("", "0102")
	NewFields(rec, 21, "140").Set("GH", 1250.5)

	wantKeys := []string{"021_010_SIC", "021_010_SAC", "021_SP", "021_140_GH"}
	if !reflect.DeepEqual(rec.Keys(), wantKeys) {
		t.Errorf("Keys() = %v, want %v", rec.Keys(), wantKeys)
	}

	b, err := json.Marshal(rec)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"021_010_SIC":2,"021_010_SAC":1,"021_SP":"0102","021_140_GH":1250.5}`
	if string(b) != want {
		t.Errorf("MarshalJSON() = %s, want %s", b, want)
	}

	empty, _ := json.Marshal(NewRecord(62))
	if string(empty) != "{}" {
		t.Errorf("empty record = %s", empty)
	}
}

func TestRecordCopy(t *testing.T) {
	rec := NewRecord(62)
	rec.Set("062_040_TN", 7)
	c := rec.Copy()
	rec.Set("062_040_TN", 8)
	rec.Set("062_010_SAC", 1)

	if v, _ := c.Get("062_040_TN"); v != 7 {
		t.Errorf("copy changed with original: %v", v)
	}
	if c.Len() != 1 || c.Category != 62 {
		t.Errorf("copy Len %d Category %d", c.Len(), c.Category)
	}
	if m := rec.Map(); len(m) != 2 || m["062_040_TN"] != 8 {
		t.Errorf("Map() = %v", m)
	}
}
