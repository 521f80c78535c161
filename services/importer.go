package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"estatenexus/auth"
	"estatenexus/httputil"
	"estatenexus/models"
)

// ImporterService drafts a listing from an external listing page. It reads
// Open Graph and common microdata tags, so it works against most portals
// without per-site selectors. The draft is returned for the agent to review,
// nothing is persisted here.
type ImporterService struct {
	client *http.Client
}

func NewImporterService() *ImporterService {
	return &ImporterService{client: httputil.FetchClient()}
}

var (
	priceRe = regexp.MustCompile(`\$\s*([\d,]+)`)
	bedsRe  = regexp.MustCompile(`(?i)(\d+)\s*(?:bd|bed)`)
	bathsRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:ba|bath)`)
	areaRe  = regexp.MustCompile(`(?i)([\d,]+)\s*(?:sq\.?\s*ft|sqft)`)
)

// Import fetches the page and extracts a draft listing. Agent capability
// required, imported drafts feed straight into Create.
func (s *ImporterService) Import(ctx context.Context, snap auth.Snapshot, pageURL string) (*models.Property, error) {
	if !snap.IsPlatformAgent() {
		return nil, ErrForbidden
	}
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		return nil, fmt.Errorf("%w: url must be absolute", ErrValidation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return s.ParseHTML(resp.Body)
}

// ParseHTML extracts a draft listing from a page body.
func (s *ImporterService) ParseHTML(r io.Reader) (*models.Property, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	p := &models.Property{Type: models.TypeHouse}

	p.Title = metaContent(doc, "og:title")
	if p.Title == "" {
		p.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	p.Description = metaContent(doc, "og:description")
	if p.Description == "" {
		p.Description = metaName(doc, "description")
	}

	doc.Find(`meta[property="og:image"]`).Each(func(_ int, sel *goquery.Selection) {
		if src, ok := sel.Attr("content"); ok && src != "" {
			p.Images = append(p.Images, src)
		}
	})

	if amount := metaContent(doc, "product:price:amount"); amount != "" {
		p.Price, _ = strconv.ParseFloat(amount, 64)
	}

	// Fall back to scanning visible text for the usual listing shorthand.
	text := doc.Find("body").Text()
	if p.Price == 0 {
		if m := priceRe.FindStringSubmatch(text); m != nil {
			p.Price, _ = strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		}
	}
	if m := bedsRe.FindStringSubmatch(text); m != nil {
		p.Beds, _ = strconv.Atoi(m[1])
	}
	if m := bathsRe.FindStringSubmatch(text); m != nil {
		p.Baths, _ = strconv.ParseFloat(m[1], 64)
	}
	if m := areaRe.FindStringSubmatch(text); m != nil {
		p.Area, _ = strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	}

	p.Location.Address = firstNonEmpty(
		metaContent(doc, "og:street-address"),
		itemprop(doc, "streetAddress"),
	)
	p.Location.City = firstNonEmpty(
		metaContent(doc, "og:locality"),
		itemprop(doc, "addressLocality"),
	)
	p.Location.State = firstNonEmpty(
		metaContent(doc, "og:region"),
		itemprop(doc, "addressRegion"),
	)
	p.Location.Zip = firstNonEmpty(
		metaContent(doc, "og:postal-code"),
		itemprop(doc, "postalCode"),
	)

	if t := strings.ToLower(text); strings.Contains(t, "condo") {
		p.Type = models.TypeCondo
	} else if strings.Contains(strings.ToLower(p.Title), "apartment") {
		p.Type = models.TypeApartment
	} else if strings.Contains(strings.ToLower(p.Title), "townhouse") {
		p.Type = models.TypeTownhouse
	}

	if p.Title == "" && p.Price == 0 {
		return nil, fmt.Errorf("%w: page has no recognizable listing data", ErrValidation)
	}
	return p, nil
}

func metaContent(doc *goquery.Document, property string) string {
	v, _ := doc.Find(`meta[property="` + property + `"]`).First().Attr("content")
	return strings.TrimSpace(v)
}

func metaName(doc *goquery.Document, name string) string {
	v, _ := doc.Find(`meta[name="` + name + `"]`).First().Attr("content")
	return strings.TrimSpace(v)
}

func itemprop(doc *goquery.Document, name string) string {
	sel := doc.Find(`[itemprop="` + name + `"]`).First()
	if v, ok := sel.Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(sel.Text())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
