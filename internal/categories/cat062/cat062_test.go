package cat062

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"asterix_decoder/internal/asterix"
	"asterix_decoder/internal/registry"
)

func block(t *testing.T, body string) *asterix.Message {
	t.Helper()
	msg, err := asterix.ParseHex(fmt.Sprintf("3e%04x%s", len(body)/2+asterix.HeaderLen, body))
	if err != nil {
		t.Fatalf("ParseHex(%q): %v", body, err)
	}
	return msg
}

func equal(got, want any) bool {
	if w, ok := want.(float64); ok {
		g, ok := got.(float64)
		return ok && math.Abs(g-w) < 1e-9
	}
	return got == want
}

func TestRegistered(t *testing.T) {
	if _, err := registry.Default().Lookup(ID); err != nil {
		t.Fatal(err)
	}
}

func TestEveryItemHasDecoder(t *testing.T) {
	cat := Category()
	for _, name := range cat.Items() {
		if _, ok := cat.Decoders[name]; !ok {
			t.Errorf("item %s has no decoder", name)
		}
	}
}

func TestDecodeDataSourceOnly(t *testing.T) {
	msg, err := asterix.ParseHex("3e0006800102")
	if err != nil {
		t.Fatal(err)
	}
	recs, tr, err := asterix.DecodeTrace(Category(), msg)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Len() != 2 {
		t.Fatalf("records = %v", recs)
	}
	if v, _ := recs[0].Get("062_010_SIC"); v != 2 {
		t.Errorf("SIC = %v, want 2", v)
	}
	last := tr.Records[0].Items[0]
	if last.Offset+last.Length != msg.Length {
		t.Errorf("decoding stopped at %d, want %d", last.Offset+last.Length, msg.Length)
	}
}

func TestDecodeMultipleRecords(t *testing.T) {
	recs, err := asterix.Decode(Category(), block(t, "800102"+"800304"))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if v, _ := recs[1].Get("062_010_SAC"); v != 3 {
		t.Errorf("second SAC = %v, want 3", v)
	}
}

func TestDecodeItems(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string]any
	}{
		{
			name: "WGS-84 position",
			body: "88" + "0102" + "00800000ff800000",
			want: map[string]any{"062_105_LAT": 45.0, "062_105_LON": -45.0},
		},
		{
			name: "track mode 3/A",
			body: "8140" + "0102" + "ca3b",
			want: map[string]any{"062_060_V": 1, "062_060_G": 1, "062_060_CH": 0, "062_060_M3A": "5073"},
		},
		{
			name: "track status",
			body: "8104" + "0102" + "9110",
			want: map[string]any{
				"062_080_MON": 1, "062_080_SPI": 0, "062_080_MRH": 0, "062_080_SRC": 4, "062_080_CNF": 0,
				"062_080_SIM": 0, "062_080_TSE": 0, "062_080_TSB": 0, "062_080_FPC": 1, "062_080_AFF": 0,
				"062_080_STP": 0, "062_080_KOS": 0,
			},
		},
		{
			name: "target identification",
			body: "8120" + "0102" + "40" + "0464b1cb3820",
			want: map[string]any{"062_245_STI": 1, "062_245_TI": "AFR123"},
		},
		{
			name: "aircraft derived data",
			body: "8110" + "0102" + "c1010110" + "abcdef" + "5054d4c72cf4" + "01" + "11223344556677" + "50",
			want: map[string]any{
				"062_380_ADR": "ABCDEF", "062_380_ID": "TEST1234",
				"062_380_MB_1": "11223344556677", "062_380_BDS1_1": 5, "062_380_BDS2_1": 0,
			},
		},
		{
			name: "system track update ages",
			body: "8102" + "0102" + "88" + "04" + "0008",
			want: map[string]any{"062_290_TRK": 1.0, "062_290_ADS": 2.0},
		},
		{
			name: "flight plan data",
			body: "818102" + "0102" + "42" + "41465231323320" + "4c465047",
			want: map[string]any{"062_390_CS": "AFR123", "062_390_ADEP": "LFPG"},
		},
		{
			name: "target size and orientation",
			body: "81010180" + "0102" + "5140",
			want: map[string]any{"062_270_LENGTH": 40, "062_270_ORIENTATION": 90.0},
		},
		{
			name: "mode 5 data",
			body: "81010120" + "0102" + "90" + "80" + "0028",
			want: map[string]any{
				"062_110_M5": 1, "062_110_ID": 0, "062_110_DA": 0, "062_110_M1": 0, "062_110_M2": 0,
				"062_110_M3": 0, "062_110_MC": 0, "062_110_RES": 0, "062_110_GA": 1000,
			},
		},
		{
			name: "measured information",
			body: "81010102" + "0102" + "14" + "c064" + "48",
			want: map[string]any{
				"062_340_MDCV": 1, "062_340_MDCG": 1, "062_340_MDC": 25.0,
				"062_340_TYP": 2, "062_340_SIM": 0, "062_340_RAB": 1, "062_340_TST": 0,
			},
		},
		{
			name: "composed track number",
			body: "81010108" + "0102" + "050003" + "060004",
			want: map[string]any{"062_510_SUI_1": 5, "062_510_STN_1": 1, "062_510_SUI_2": 6, "062_510_STN_2": 2},
		},
		{
			name: "special purpose field",
			body: "8101010102" + "0102" + "03abcd",
			want: map[string]any{"062_SP": "03abcd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := asterix.Decode(Category(), block(t, tt.body))
			if err != nil {
				t.Fatal(err)
			}
			if len(recs) != 1 {
				t.Fatalf("got %d records, want 1", len(recs))
			}
			rec := recs[0]
			if rec.Len() != len(tt.want)+2 {
				t.Errorf("record has %d values %v, want %d", rec.Len(), rec.Keys(), len(tt.want)+2)
			}
			for k, want := range tt.want {
				got, ok := rec.Get(k)
				if !ok || !equal(got, want) {
					t.Errorf("%s = %v, want %v", k, got, want)
				}
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		item    string
	}{
		{
			name:    "spare FRN set",
			body:    "c0" + "0102",
			wantErr: asterix.ErrMalformedFieldSpec,
		},
		{
			name:    "unterminated composed track number",
			body:    "81010108" + "0102" + "050003",
			wantErr: asterix.ErrTruncatedMessage,
			item:    "510",
		},
		{
			name:    "undefined aircraft derived subfield",
			body:    "8110" + "0102" + "0101010180",
			wantErr: asterix.ErrMalformedItem,
			item:    "380",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := asterix.Decode(Category(), block(t, tt.body))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.wantErr)
			}
			var de *asterix.DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("error %v is not a *DecodeError", err)
			}
			if de.Category != ID || de.Item != tt.item {
				t.Errorf("DecodeError = %+v, want item %q", de, tt.item)
			}
		})
	}
}
