package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"carpricewatch/internal/models"
)

const nissanPriceListHTML = `<html><body>
<h2 class="heading">New Nissan Magnite</h2>
<table>
  <tr><th>Variant</th><th>Ex-showroom</th></tr>
  <tr><td>Magnite VISIA MT</td><td>₹&nbsp;6,14,000</td></tr>
  <tr><td>Magnite Tekna+ CVT Turbo</td><td>₹ 11,76,000</td></tr>
  <tr><td>Magnite Kuro EZ-SHIFT</td><td>Coming soon</td></tr>
  <tr><td colspan="2">Prices are ex-showroom Delhi</td></tr>
</table>
<h3>Why buy a Nissan</h3>
<h2 class="heading">Nissan X-Trail</h2>
<table>
  <tr><td>Variant</td><td>Price</td></tr>
  <tr><td>X-Trail 1.5 VC-Turbo CVT</td><td>₹ 49.92 Lakh</td></tr>
</table>
</body></html>`

func TestParseNissanPriceList(t *testing.T) {
	records, err := ParseNissanPriceList(nissanPriceListHTML)
	if err != nil {
		t.Fatalf("ParseNissanPriceList failed: %v", err)
	}
	want := []models.PriceRecord{
		{Brand: "Nissan", Model: "Magnite", Fuel: "Petrol", Transmission: "Manual", Variant: "VISIA", Price: 614000},
		{Brand: "Nissan", Model: "Magnite", Fuel: "Petrol", Transmission: "Automatic", Variant: "Tekna+ Turbo", Price: 1176000},
		{Brand: "Nissan", Model: "X-Trail", Fuel: "Petrol", Transmission: "Automatic", Variant: "1.5 VC-Turbo", Price: 4992000},
	}
	if len(records) != len(want) {
		t.Fatalf("got %+v", records)
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestParseNissanPriceListFallbacks(t *testing.T) {
	mention := `<h3>Nissan Magnite</h3><table><tr><td>a</td><td>b</td></tr><tr><td>Acenta</td><td>700000</td></tr></table>`
	records, err := ParseNissanPriceList(mention)
	if err != nil || len(records) != 1 || records[0].Model != "Magnite" {
		t.Fatalf("mention fallback: %+v, %v", records, err)
	}

	bare := `<table><tr><td>a</td><td>b</td></tr><tr><td>Acenta</td><td>700000</td></tr></table>`
	records, err = ParseNissanPriceList(bare)
	if err != nil || len(records) != 1 || records[0].Model != unknownNissanModel {
		t.Fatalf("unknown model fallback: %+v, %v", records, err)
	}

	if _, err := ParseNissanPriceList(`<html><body><p>Under maintenance</p></body></html>`); err == nil {
		t.Fatal("a page without tables should be an error")
	}
}

type failingRenderer struct{}

func (failingRenderer) Render(ctx context.Context, url string) (string, error) {
	return "", errors.New("navigation timeout")
}

func TestNissanFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(nissanPriceListHTML))
	}))
	defer srv.Close()

	f := NewNissanFetcher(HTTPRenderer{Client: NewClient(ClientOptions{MaxAttempts: 1})}, NissanConfig{PageURL: srv.URL})
	res := f.Fetch(context.Background())
	if res.Status() != StatusOK || len(res.Records) != 3 {
		t.Fatalf("status=%s records=%d err=%v", res.Status(), len(res.Records), res.Err)
	}

	res = NewNissanFetcher(failingRenderer{}, DefaultNissanConfig()).Fetch(context.Background())
	if res.Status() != StatusFailed {
		t.Fatalf("expected failed status, got %s", res.Status())
	}
}
