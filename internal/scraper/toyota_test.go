package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"carpricewatch/internal/models"
)

const toyotaModelsXML = `<?xml version="1.0" encoding="utf-8"?>
<ArrayOfPriceModel>
  <PriceModel><Id>1</Id><Name>Fortuner</Name></PriceModel>
  <PriceModel><Id>2</Id><Name>Glanza</Name></PriceModel>
  <PriceModel><Id></Id><Name>Blank</Name></PriceModel>
</ArrayOfPriceModel>`

const toyotaFortunerXML = `<?xml version="1.0" encoding="utf-8"?>
<ArrayOfPrice>
  <Price>
    <Amount>3543000</Amount>
    <PriceGrade>
      <Name>2WD 4X2 AT [Legender]</Name>
      <FuelType>Diesel</FuelType>
      <Details>AT</Details>
      <Model><Name>Fortuner</Name></Model>
    </PriceGrade>
  </Price>
  <Price>
    <Amount>3343000</Amount>
    <PriceGrade><Name>4X2 MT</Name><FuelType>Petrol</FuelType><Details>MT</Details></PriceGrade>
  </Price>
  <Price>
    <Amount>0</Amount>
    <PriceGrade><Name>GR-S</Name><FuelType>Diesel</FuelType><Details>AT</Details></PriceGrade>
  </Price>
</ArrayOfPrice>`

func TestToyotaFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		switch r.URL.Path {
		case "/price/models":
			w.Write([]byte(toyotaModelsXML))
		case "/price/list/704/1":
			w.Write([]byte(toyotaFortunerXML))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	cfg := DefaultToyotaConfig()
	cfg.BaseURL = srv.URL + "/price"

	res := NewToyotaFetcher(NewClient(ClientOptions{MaxAttempts: 1}), cfg).Fetch(context.Background())
	if res.Requests != 2 || res.Failed != 1 {
		t.Fatalf("requests=%d failed=%d", res.Requests, res.Failed)
	}

	want := []models.PriceRecord{
		{Brand: "Toyota", Model: "Fortuner", Fuel: "Diesel", Transmission: "Automatic", Variant: "4X2", Price: 3543000},
		{Brand: "Toyota", Model: "Fortuner", Fuel: "Petrol", Transmission: "Manual", Variant: "4X2", Price: 3343000},
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

func TestToyotaModelListFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := DefaultToyotaConfig()
	cfg.BaseURL = srv.URL
	res := NewToyotaFetcher(NewClient(ClientOptions{MaxAttempts: 1}), cfg).Fetch(context.Background())
	if res.Status() != StatusFailed || res.Requests != 1 || len(res.Records) != 0 {
		t.Fatalf("expected failed brand, got %+v", res)
	}
}

func TestCleanToyotaVariant(t *testing.T) {
	tests := []struct{ model, raw, want string }{
		{"Fortuner", "2WD 4X2 AT [Legender]", "4X2"},
		{"Innova Hycross", "ZX(O) 7 STR Strong-Hybrid", "ZX(O) 7 STR"},
		{"Glanza", "Toyota Glanza V AMT", "V"},
	}
	for _, tt := range tests {
		if got := CleanToyotaVariant(tt.model, tt.raw); got != tt.want {
			t.Errorf("CleanToyotaVariant(%q, %q) = %q, want %q", tt.model, tt.raw, got, tt.want)
		}
	}
}
