package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"carpricewatch/internal/models"
)

const mgLineupJSON = `[
	{"modelLine":"Hector","variants":[
		{"model_text1":"MG Hector Sharp Pro CVT 7S","fuel_type":"02","vehicle_type":"CVT","pricing":[
			{"State":"Goa","cities":[{"City":"Delhi","price":"1"}]},
			{"State":"Delhi","cities":[{"City":"Noida","price":"2"},{"City":"Delhi","price":"2199000"}]}
		]}
	]},
	{"model_line":"Comet EV","variants":[
		{"model_text1":"Comet EV EXCLUSIVE FC","fuel_type":"05","vehicle_type":"AT","pricing":[
			{"State":"Delhi","cities":[{"City":"Delhi","price":899000}]}
		]},
		{"model_text1":"Comet EV Executive","fuel_type":"05","vehicle_type":"AT","pricing":[
			{"State":"Maharashtra","cities":[{"City":"Mumbai","price":700000}]}
		]}
	]}
]`

func TestMGFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(mgLineupJSON))
	}))
	defer srv.Close()

	cfg := DefaultMGConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "secret"

	res := NewMGFetcher(NewClient(ClientOptions{MaxAttempts: 1}), cfg).Fetch(context.Background())
	if res.Status() != StatusOK || res.Requests != 1 {
		t.Fatalf("status=%s requests=%d err=%v", res.Status(), res.Requests, res.Err)
	}

	want := []models.PriceRecord{
		{Brand: "MG", Model: "Hector", Fuel: "Petrol", Transmission: "Automatic", Variant: "Sharp Pro", Price: 2199000},
		{Brand: "MG", Model: "Comet EV", Fuel: "EV", Transmission: "Automatic", Variant: "Exclusive Fc", Price: 899000},
	}
	if len(res.Records) != len(want) {
		t.Fatalf("got %+v", res.Records)
	}
	for i := range want {
		if res.Records[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, res.Records[i], want[i])
		}
	}
}

func TestMGFetcherWithoutKey(t *testing.T) {
	res := NewMGFetcher(NewClient(ClientOptions{}), DefaultMGConfig()).Fetch(context.Background())
	if res.Status() != StatusFailed || !errors.Is(res.Err, ErrMissingAPIKey) {
		t.Fatalf("expected missing key failure, got %s %v", res.Status(), res.Err)
	}
}

func TestCleanMGVariant(t *testing.T) {
	tests := []struct{ model, raw, want string }{
		{"Hector", "MG Hector Sharp Pro CVT 7S", "Sharp Pro"},
		{"Astor", "ASTOR SAVVY PRO CVT", "Savvy Pro"},
		{"Windsor", "Windsor EV Essence", "Essence"},
		{"Gloster", "", ""},
	}
	for _, tt := range tests {
		if got := CleanMGVariant(tt.model, tt.raw); got != tt.want {
			t.Errorf("CleanMGVariant(%q, %q) = %q, want %q", tt.model, tt.raw, got, tt.want)
		}
	}
}
