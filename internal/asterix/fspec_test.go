package asterix

import (
	"errors"
	"reflect"
	"testing"
)

var fspecUAP = UAP{
	{{"010", 2}, {"020", 1}, {Spare, 0}, {"040", Variable}, {"050", 3}, {"060", 1}, {"070", 2}},
	{{"080", 1}, {"090", 1}, {Spare, 0}, {Spare, 0}, {Spare, 0}, {ReservedExpansion, Variable}, {SpecialPurpose, Variable}},
}

func TestResolveFieldSpec(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    []string
		end     int
		wantErr error
	}{
		{"first item only", []byte{0x80}, []string{"010"}, 1, nil},
		{"bit order within octet", []byte{0xCE}, []string{"010", "020", "050", "060", "070"}, 1, nil},
		{"second block", []byte{0x81, 0xC2}, []string{"010", "080", "090", "SP"}, 2, nil},
		{"empty extension octet", []byte{0x01, 0x00}, nil, 2, nil},
		{"spare bit set", []byte{0x20}, nil, 0, ErrMalformedFieldSpec},
		{"spare bit in second block", []byte{0x01, 0x20}, nil, 0, ErrMalformedFieldSpec},
		{"longer than UAP", []byte{0x81, 0x01, 0x80}, nil, 0, ErrMalformedFieldSpec},
		{"runs off the end", []byte{0x81}, nil, 0, ErrTruncatedMessage},
		{"no data", nil, nil, 0, ErrTruncatedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, err := ResolveFieldSpec(tt.data, 0, fspecUAP)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ResolveFieldSpec() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			var names []string
			for _, it := range fs.Items {
				names = append(names, it.Name)
			}
			if !reflect.DeepEqual(names, tt.want) {
				t.Errorf("items = %v, want %v", names, tt.want)
			}
			if fs.End != tt.end || fs.Octets() != tt.end {
				t.Errorf("End = %d, Octets = %d, want %d", fs.End, fs.Octets(), tt.end)
			}
		})
	}
}

func TestResolveFieldSpecTerminatesOnClearFX(t *testing.T) {
	// Octets after the first clear FX are payload, whatever their value.
	fs, err := ResolveFieldSpec([]byte{0x0A, 0x81, 0xFF, 0xFF, 0x01}, 0, fspecUAP)
	if err != nil {
		t.Fatal(err)
	}
	if fs.End != 1 || len(fs.Items) != 2 || fs.Items[0].Name != "050" || fs.Items[1].Name != "070" {
		t.Errorf("got End %d items %+v, want End 1 items 050 070", fs.End, fs.Items)
	}
}

func TestResolveFieldSpecItemLengths(t *testing.T) {
	fs, err := ResolveFieldSpec([]byte{0x11, 0x02}, 0, fspecUAP)
	if err != nil {
		t.Fatal(err)
	}
	want := []Item{{"040", Variable}, {"SP", Variable}}
	if !reflect.DeepEqual(fs.Items, want) {
		t.Errorf("Items = %+v, want %+v", fs.Items, want)
	}
}

func TestUAPLookup(t *testing.T) {
	if it, err := fspecUAP.Lookup(1, 4); err != nil || it.Name != "040" || !it.IsVariable() {
		t.Errorf("Lookup(1, 4) = %+v, %v", it, err)
	}
	for _, c := range [][2]int{{0, 1}, {3, 1}, {1, 0}, {1, 8}} {
		if _, err := fspecUAP.Lookup(c[0], c[1]); !errors.Is(err, ErrMalformedUAP) {
			t.Errorf("Lookup(%d, %d) error = %v, want ErrMalformedUAP", c[0], c[1], err)
		}
	}
	holey := UAP{{{"010", 2}}}
	if _, err := holey.Lookup(1, 2); !errors.Is(err, ErrMalformedUAP) {
		t.Errorf("empty slot: error = %v, want ErrMalformedUAP", err)
	}
}

func TestUAPValidate(t *testing.T) {
	if err := fspecUAP.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	tests := []struct {
		name string
		uap  UAP
	}{
		{"no blocks", UAP{}},
		{"empty slot", UAP{{{"010", 2}}}},
		{"zero length", UAP{{{"010", 0}, {"020", 1}, {"030", 1}, {"040", 1}, {"050", 1}, {"060", 1}, {"070", 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.uap.Validate(); !errors.Is(err, ErrMalformedUAP) {
				t.Errorf("Validate() = %v, want ErrMalformedUAP", err)
			}
		})
	}
}
