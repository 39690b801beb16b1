package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"carpricewatch/internal/models"
)

const kiaSeltosJSON = `{"data":{
	"engines":[{"dmsEngineCode":"G15","engineName":"Smartstream G1.5","fuelType":"Petrol"},{"dmsEngineCode":"D15","engineName":"CRDi VGT","fuelType":"Diesel"}],
	"transmissions":[{"dmsTmdtCode":"M","tmName":"6MT"},{"dmsTmdtCode":"A","tmName":"6AT"}],
	"variants":[
		{"variantName":"Kia Seltos HTK Plus G1.5 6MT","dmsMcOcn":"IN SP2IG15M 01","price":{"M":{"intraExsrPrice":1459000}}},
		{"variantName":"Kia Seltos GTX Plus - D1.5 AT | Dual Tone","dmsMcOcn":"IN SP2ID15A 01","price":{"M":{"intraExsrPrice":"₹20,00,000"}}},
		{"variantName":"Kia Seltos X-Line","dmsMcOcn":"IN SP2ID15A 01","price":{"M":{"intraExsrPrice":null}}}
	]}}`

func TestKiaFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/configure.getModelList.do":
			if r.Method != http.MethodPost || r.FormValue("stateCode") != "DL" || r.FormValue("cityCode") != "N10" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Write([]byte(`{"data":[{"modelName":"Seltos","modelCode":"SP2"},{"modelName":"Carens","modelCode":"KY"},{"modelName":"Soon","modelCode":""}]}`))
		case "/configure.getVrntList.do":
			if r.URL.Query().Get("modelCode") != "SP2" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Write([]byte(kiaSeltosJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := DefaultKiaConfig()
	cfg.BaseURL = srv.URL
	res := NewKiaFetcher(NewClient(ClientOptions{MaxAttempts: 1}), cfg).Fetch(context.Background())
	if res.Requests != 2 || res.Failed != 1 {
		t.Fatalf("requests=%d failed=%d", res.Requests, res.Failed)
	}

	want := map[string]models.PriceRecord{
		"HTK Plus": {Brand: "Kia", Model: "Seltos", Fuel: "Petrol", Transmission: "Manual", Variant: "HTK Plus", Price: 1459000},
		"GTX Plus": {Brand: "Kia", Model: "Seltos", Fuel: "Diesel", Transmission: "Automatic", Variant: "GTX Plus", Price: 2000000},
	}
	if len(res.Records) != len(want) {
		t.Fatalf("got %+v", res.Records)
	}
	for _, r := range res.Records {
		if want[r.Variant] != r {
			t.Errorf("unexpected record %+v", r)
		}
	}
}

func TestKiaModelListFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	cfg := DefaultKiaConfig()
	cfg.BaseURL = srv.URL
	res := NewKiaFetcher(NewClient(ClientOptions{MaxAttempts: 1}), cfg).Fetch(context.Background())
	if res.Status() != StatusFailed {
		t.Fatalf("expected failed brand, got %s", res.Status())
	}
}

func TestKiaOCNKeys(t *testing.T) {
	tests := []struct{ ocn, engine, trans string }{
		{"IN SP2IG15M 01", "G15", "M"},
		{"IN SP2ID15A 01", "D15", "A"},
		{"IN AB 01", "", "B"},
		{"SP2IG15M", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		e, tr := kiaOCNKeys(tt.ocn)
		if e != tt.engine || tr != tt.trans {
			t.Errorf("kiaOCNKeys(%q) = %q, %q; want %q, %q", tt.ocn, e, tr, tt.engine, tt.trans)
		}
	}
}
