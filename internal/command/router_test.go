package command

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hearthlabs/hearth-core/internal/peripheral"
)

type fakeRegistry struct {
	list       []peripheral.Info
	all        []peripheral.Reading
	sensors    []peripheral.Reading
	dispatched []string
	dispatchTo string
	result     string
}

func (f *fakeRegistry) List() []peripheral.Info { return f.list }

func (f *fakeRegistry) AllData(context.Context) []peripheral.Reading { return f.all }

func (f *fakeRegistry) AllSensorData(context.Context) []peripheral.Reading { return f.sensors }

func (f *fakeRegistry) Dispatch(_ context.Context, id, payload string) string {
	f.dispatchTo = id
	f.dispatched = append(f.dispatched, payload)
	return f.result
}

func TestRouterListDevices(t *testing.T) {
	reg := &fakeRegistry{list: []peripheral.Info{
		{ID: "led-1", Kind: peripheral.KindLEDControl},
		{ID: "gas-1", Kind: peripheral.KindGasSensor},
	}}
	r := NewRouter(reg, nil)

	out := r.Handle(context.Background(), `{"commandType": "LIST_DEVICES"}`)
	var got []peripheral.Info
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("Handle() = %q, not valid JSON: %v", out, err)
	}
	if len(got) != 2 || got[0].ID != "led-1" || got[1].Kind != peripheral.KindGasSensor {
		t.Errorf("Handle() decoded = %v", got)
	}
}

func TestRouterListDevicesEmpty(t *testing.T) {
	r := NewRouter(&fakeRegistry{list: []peripheral.Info{}}, nil)
	if out := r.Handle(context.Background(), `{"commandType": "list_devices"}`); out != "[]" {
		t.Errorf("Handle() = %q, want []", out)
	}
}

func TestRouterDataSweeps(t *testing.T) {
	reg := &fakeRegistry{
		all:     []peripheral.Reading{{ID: "led-1", Data: `{"brightness": 10}`}},
		sensors: []peripheral.Reading{{ID: "gas-1", Data: `{"gasValue": 2}`}},
	}
	r := NewRouter(reg, nil)
	ctx := context.Background()

	var all []peripheral.Reading
	if err := json.Unmarshal([]byte(r.Handle(ctx, `{"commandType": "GET_ALL_DATA"}`)), &all); err != nil {
		t.Fatalf("GET_ALL_DATA decode error = %v", err)
	}
	if len(all) != 1 || all[0].ID != "led-1" {
		t.Errorf("GET_ALL_DATA = %v", all)
	}

	var sensors []peripheral.Reading
	if err := json.Unmarshal([]byte(r.Handle(ctx, `{"commandType": "GET_ALL_SENSOR_DATA"}`)), &sensors); err != nil {
		t.Fatalf("GET_ALL_SENSOR_DATA decode error = %v", err)
	}
	if len(sensors) != 1 || sensors[0].ID != "gas-1" {
		t.Errorf("GET_ALL_SENSOR_DATA = %v", sensors)
	}
}

func TestRouterControl(t *testing.T) {
	reg := &fakeRegistry{result: `{"brightness": 80}`}
	r := NewRouter(reg, nil)

	out := r.Handle(context.Background(), `{"commandType": "CONTROL", "deviceId": "led-1", "data": "{\"type\": \"SET_BRIGHTNESS\", \"value\": \"80\"}"}`)
	if out != `{"brightness": 80}` {
		t.Errorf("Handle() = %q", out)
	}
	if reg.dispatchTo != "led-1" {
		t.Errorf("dispatched to %q, want led-1", reg.dispatchTo)
	}
	if len(reg.dispatched) != 1 || reg.dispatched[0] != `{"type": "SET_BRIGHTNESS", "value": "80"}` {
		t.Errorf("dispatched payloads = %v", reg.dispatched)
	}
}

func TestRouterFailureSentinel(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `LIST_DEVICES`},
		{"unknown type", `{"commandType": "MAKE_COFFEE"}`},
		{"empty object", `{}`},
	}
	r := NewRouter(&fakeRegistry{}, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if out := r.Handle(context.Background(), tt.raw); out != "" {
				t.Errorf("Handle(%q) = %q, want empty sentinel", tt.raw, out)
			}
		})
	}
}

func TestRouterControlFailurePropagates(t *testing.T) {
	r := NewRouter(&fakeRegistry{result: ""}, nil)
	if out := r.Handle(context.Background(), `{"commandType": "CONTROL", "deviceId": "ghost", "data": "{}"}`); out != "" {
		t.Errorf("Handle() = %q, want empty sentinel", out)
	}
}
