package services

import (
	"errors"
	"strings"
	"testing"

	"estatenexus/models"
)

const listingPage = `<!DOCTYPE html>
<html>
<head>
	<title>Fallback Title</title>
	<meta property="og:title" content="Charming 3BR Craftsman" />
	<meta property="og:description" content="Restored craftsman near the park." />
	<meta property="og:image" content="https://photos.example.com/a.jpg" />
	<meta property="og:image" content="https://photos.example.com/b.jpg" />
	<meta property="product:price:amount" content="725000" />
</head>
<body>
	<div itemprop="streetAddress">418 Maple Avenue</div>
	<div itemprop="addressLocality">Portland</div>
	<div itemprop="addressRegion">OR</div>
	<div itemprop="postalCode">97202</div>
	<p>3 bd | 2 ba | 1,850 sqft</p>
</body>
</html>`

func TestParseHTMLExtractsDraft(t *testing.T) {
	svc := NewImporterService()

	p, err := svc.ParseHTML(strings.NewReader(listingPage))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Title != "Charming 3BR Craftsman" {
		t.Fatalf("title: %q", p.Title)
	}
	if p.Price != 725000 {
		t.Fatalf("price: %v", p.Price)
	}
	if len(p.Images) != 2 {
		t.Fatalf("images: %v", p.Images)
	}
	if p.Beds != 3 || p.Baths != 2 || p.Area != 1850 {
		t.Fatalf("facts: beds=%d baths=%v area=%d", p.Beds, p.Baths, p.Area)
	}
	if p.Location.Address != "418 Maple Avenue" || p.Location.City != "Portland" {
		t.Fatalf("location: %+v", p.Location)
	}
	if p.Location.State != "OR" || p.Location.Zip != "97202" {
		t.Fatalf("location: %+v", p.Location)
	}
}

func TestParseHTMLPriceFallback(t *testing.T) {
	svc := NewImporterService()

	page := `<html><head><title>Condo Downtown</title></head>
	<body><span class="price">$1,250,000</span><p>2 bed condo</p></body></html>`
	p, err := svc.ParseHTML(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Price != 1250000 {
		t.Fatalf("price: %v", p.Price)
	}
	if p.Type != models.TypeCondo {
		t.Fatalf("type: %s", p.Type)
	}
	if p.Title != "Condo Downtown" {
		t.Fatalf("title fallback: %q", p.Title)
	}
}

func TestParseHTMLRejectsEmptyPage(t *testing.T) {
	svc := NewImporterService()
	_, err := svc.ParseHTML(strings.NewReader(`<html><body><p>nothing here</p></body></html>`))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
