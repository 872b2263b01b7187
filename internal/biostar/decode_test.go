package biostar

import (
	"encoding/json"
	"testing"
)

func TestDecodeRowsShapes(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"vendor collection", `{"DeviceCollection":{"rows":[{"id":1},{"id":2}]}}`, 2, false},
		{"snake case collection", `{"device_collection":{"rows":[{"id":1}]}}`, 1, false},
		{"plain devices key", `{"devices":{"rows":[{"id":1}]}}`, 1, false},
		{"top level rows", `{"rows":[{"id":1},{"id":2},{"id":3}]}`, 3, false},
		{"bare array", `[{"id":1}]`, 1, false},
		{"empty rows", `{"DeviceCollection":{"rows":[]}}`, 0, false},
		{"unknown object shape", `{"Response":{"code":"0"}}`, 0, true},
		{"scalar", `42`, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := decodeRows([]byte(tc.body), "DeviceCollection", "device_collection", "devices")
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected decode failure, got %d rows", len(rows))
				}
				return
			}
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(rows) != tc.want {
				t.Fatalf("rows = %d, want %d", len(rows), tc.want)
			}
		})
	}
}

func TestFlexIDAcceptsNumbersAndStrings(t *testing.T) {
	var v struct {
		ID flexID `json:"id"`
	}
	if err := json.Unmarshal([]byte(`{"id":42}`), &v); err != nil || v.ID != 42 {
		t.Fatalf("numeric id: %v, %d", err, v.ID)
	}
	if err := json.Unmarshal([]byte(`{"id":"17"}`), &v); err != nil || v.ID != 17 {
		t.Fatalf("string id: %v, %d", err, v.ID)
	}
	if err := json.Unmarshal([]byte(`{"id":null}`), &v); err != nil {
		t.Fatalf("null id: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"id":"main-gate"}`), &v); err == nil {
		t.Fatal("non-numeric id must fail")
	}
}

func TestFlexGroupShapes(t *testing.T) {
	var g flexGroup
	if err := json.Unmarshal([]byte(`{"id":"3","name":"Planta Baja"}`), &g); err != nil {
		t.Fatalf("object group: %v", err)
	}
	if g.ID != 3 || g.Name != "Planta Baja" {
		t.Fatalf("object group = %+v", g)
	}

	g = flexGroup{}
	if err := json.Unmarshal([]byte(`5`), &g); err != nil {
		t.Fatalf("bare id group: %v", err)
	}
	if g.ID != 5 || g.Name != "" {
		t.Fatalf("bare id group = %+v", g)
	}
}
