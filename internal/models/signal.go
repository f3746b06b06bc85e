package models

// Availability is the extracted purchasability of one item.
type Availability string

// Availability constants.
const (
	AvailabilityInStock    Availability = "in_stock"
	AvailabilityOutOfStock Availability = "out_of_stock"
	AvailabilityUnknown    Availability = "unknown"
)

// ItemKind is the product category of one discovered item.
type ItemKind string

// ItemKind constants, ordered roughly by specificity.
const (
	ItemKindETB           ItemKind = "ETB"
	ItemKindBoosterBox    ItemKind = "BoosterBox"
	ItemKindBoosterBundle ItemKind = "BoosterBundle"
	ItemKindCollection    ItemKind = "Collection"
	ItemKindOther         ItemKind = "Other"
)

// QueueSignal reports a virtual waiting room on a target page.
// WaitSeconds is nil when no countdown token was found in the body.
type QueueSignal struct {
	Active      bool `json:"active"`
	WaitSeconds *int `json:"wait_seconds,omitempty"`
}

// BlockSignal reports an anti-bot wall on a target page.
type BlockSignal struct {
	Active bool `json:"active"`
}

// StockSignal is one purchasable (or not) item found on a page.
// AddToCart records whether an explicit add-to-cart hint was present;
// it is the strong form of AvailabilityInStock.
type StockSignal struct {
	Title        string       `json:"title"`
	URL          string       `json:"url"`
	Kind         ItemKind     `json:"kind"`
	Availability Availability `json:"availability"`
	AddToCart    bool         `json:"add_to_cart"`
}
