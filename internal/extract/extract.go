// Package extract turns one raw Observation into classified signals.
//
// Extraction is a total function: malformed or unrecognizable content yields
// empty or unknown signals, never an error. All classification goes through
// ordered hint tables evaluated first-match-wins so precedence stays
// explicit and testable without fetching anything.
package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pokewonder/pokewonder/internal/models"
)

// Extraction is the full signal set derived from one observation.
type Extraction struct {
	Queue models.QueueSignal
	Block models.BlockSignal
	Items []models.StockSignal
}

// hint tables; matched case-insensitively against resolved URL and body text
var (
	blockHints = []string{
		"access denied",
		"captcha",
		"verify you are human",
		"are you a robot",
		"request blocked",
		"pardon our interruption",
		"unusual traffic",
	}
	queueHints = []string{
		"queue-it",
		"queue_it",
		"you are in line",
		"you are now in line",
		"waiting room",
		"virtual queue",
		"your estimated wait",
	}
	outOfStockHints = []string{
		"out of stock",
		"sold out",
		"currently unavailable",
		"email me when available",
		"notify me when available",
	}
	addToCartHints = []string{
		"add to cart",
		"add to basket",
		"add to bag",
		"buy now",
	}
)

// kindRules classify item titles; first match wins, so the specific phrases
// (elite trainer box, booster box) come before the generic ones.
var kindRules = []struct {
	hints []string
	kind  models.ItemKind
}{
	{[]string{"elite trainer box", "etb"}, models.ItemKindETB},
	{[]string{"booster box", "booster display", "display box"}, models.ItemKindBoosterBox},
	{[]string{"booster bundle", "bundle"}, models.ItemKindBoosterBundle},
	{[]string{"premium collection", "collection", "box set", "tin"}, models.ItemKindCollection},
}

// hhmmssRe matches H:MM:SS and HH:MM:SS countdown tokens.
// mmssRe is the fallback, read as minutes:seconds.
var (
	hhmmssRe = regexp.MustCompile(`\b(\d{1,2}):([0-5]\d):([0-5]\d)\b`)
	mmssRe   = regexp.MustCompile(`\b(\d{1,3}):([0-5]\d)\b`)
)

// Extractor classifies observations. Stateless and safe for concurrent use.
type Extractor struct{}

// New creates an extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract derives all signals for a target from one observation.
func (e *Extractor) Extract(target models.Target, obs models.Observation) Extraction {
	haystack := strings.ToLower(obs.FinalURL) + "\n" + strings.ToLower(obs.Body)

	ext := Extraction{
		Block: models.BlockSignal{Active: matchAny(haystack, blockHints) || obs.Status == models.TransportBlocked},
		Queue: models.QueueSignal{Active: matchAny(haystack, queueHints)},
	}
	if ext.Queue.Active {
		ext.Queue.WaitSeconds = parseWait(obs.Body)
	}

	// a blocked or queued page shows interstitial markup, not the catalog;
	// scanning it for items would only produce phantom out-of-stock flips
	if ext.Block.Active || ext.Queue.Active || obs.Status != models.TransportOK {
		return ext
	}

	switch target.Kind {
	case models.TargetKindProduct:
		if sig, ok := extractProduct(obs); ok {
			ext.Items = append(ext.Items, sig)
		}
	default:
		ext.Items = extractListing(target, obs)
	}
	return ext
}

// parseWait extracts the first countdown token from body text.
// MM:SS is accepted only when no H:MM:SS token exists anywhere in the body.
func parseWait(body string) *int {
	if m := hhmmssRe.FindStringSubmatch(body); m != nil {
		secs := atoi(m[1])*3600 + atoi(m[2])*60 + atoi(m[3])
		return &secs
	}
	if m := mmssRe.FindStringSubmatch(body); m != nil {
		secs := atoi(m[1])*60 + atoi(m[2])
		return &secs
	}
	return nil
}

// classifyAvailability applies the conservative precedence rule:
// out-of-stock hints beat add-to-cart hints, absence of both is unknown.
func classifyAvailability(text string) (models.Availability, bool) {
	lower := strings.ToLower(text)
	if matchAny(lower, outOfStockHints) {
		return models.AvailabilityOutOfStock, false
	}
	if matchAny(lower, addToCartHints) {
		return models.AvailabilityInStock, true
	}
	return models.AvailabilityUnknown, false
}

// ClassifyKind maps an item title onto its product category.
func ClassifyKind(title string) models.ItemKind {
	lower := strings.ToLower(title)
	for _, rule := range kindRules {
		if matchAny(lower, rule.hints) {
			return rule.kind
		}
	}
	return models.ItemKindOther
}

// extractProduct reads a single-item page: the page itself is the item.
func extractProduct(obs models.Observation) (models.StockSignal, bool) {
	title := ""
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(obs.Body)); err == nil {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
		if title == "" {
			title = strings.TrimSpace(doc.Find("title").First().Text())
		}
	}
	if title == "" {
		return models.StockSignal{}, false
	}
	avail, cart := classifyAvailability(obs.Body)
	return models.StockSignal{
		Title:        title,
		URL:          obs.FinalURL,
		Kind:         ClassifyKind(title),
		Availability: avail,
		AddToCart:    cart,
	}, true
}

// productTileSelectors are tried in order until one yields tiles.
var productTileSelectors = []string{
	"[class*=product-card]",
	"[class*=product-tile]",
	"li[class*=product]",
	"div[class*=product-item]",
	"article[class*=product]",
}

// extractListing scans a listing page for item tiles, one StockSignal per
// tile that passes the target's keyword/set filter.
func extractListing(target models.Target, obs models.Observation) []models.StockSignal {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(obs.Body))
	if err != nil {
		return nil
	}

	base, _ := url.Parse(obs.FinalURL)

	var items []models.StockSignal
	seen := make(map[string]bool)
	for _, sel := range productTileSelectors {
		doc.Find(sel).Each(func(_ int, tile *goquery.Selection) {
			sig, ok := tileSignal(tile, base)
			if !ok || seen[sig.URL] {
				return
			}
			if !matchesFilter(target, sig.Title) {
				return
			}
			seen[sig.URL] = true
			items = append(items, sig)
		})
		if len(items) > 0 {
			break
		}
	}
	return items
}

func tileSignal(tile *goquery.Selection, base *url.URL) (models.StockSignal, bool) {
	link := tile.Find("a[href]").First()
	href, ok := link.Attr("href")
	if !ok || href == "" {
		return models.StockSignal{}, false
	}

	title := strings.TrimSpace(link.Text())
	if title == "" {
		title = strings.TrimSpace(tile.Find("img").First().AttrOr("alt", ""))
	}
	if title == "" {
		title = strings.TrimSpace(tile.Text())
	}
	title = collapseSpace(title)
	if title == "" {
		return models.StockSignal{}, false
	}

	avail, cart := classifyAvailability(tile.Text())
	return models.StockSignal{
		Title:        title,
		URL:          resolveHref(base, href),
		Kind:         ClassifyKind(title),
		Availability: avail,
		AddToCart:    cart,
	}, true
}

// matchesFilter accepts a title when any keyword or set name matches,
// or when the target configures no filter at all.
func matchesFilter(target models.Target, title string) bool {
	if len(target.Keywords) == 0 && len(target.Sets) == 0 {
		return true
	}
	lower := strings.ToLower(title)
	for _, kw := range target.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	for _, set := range target.Sets {
		if strings.Contains(lower, strings.ToLower(set)) {
			return true
		}
	}
	return false
}

func resolveHref(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

func matchAny(haystack string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(haystack, h) {
			return true
		}
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// atoi converts a digits-only regexp capture; the pattern guarantees validity.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
