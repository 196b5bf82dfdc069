package models

// SearchIntent is the originating query of a search transaction.
type SearchIntent struct {
	Query     map[string][]string `json:"query,omitempty"` // e.g. "specialty" -> ["Cardiology"]
	City      string              `json:"city,omitempty"`
	Slot      *TimeSlot           `json:"slot,omitempty"`
	ItemID    string              `json:"item_id,omitempty"` // set for select flows
	MaxPrice  *Money              `json:"max_price,omitempty"`
}

// CatalogItem is one bookable service offered by a provider.
type CatalogItem struct {
	ID         string            `json:"id"`
	ProviderID string            `json:"provider_id"`
	Descriptor string            `json:"descriptor"`
	Price      Money             `json:"price"`
	Available  bool              `json:"available"`
	Tags       map[string]string `json:"tags,omitempty"`
}

// SearchResult is one responder's payload: catalog items for on_search, a
// quotation for on_select.
type SearchResult struct {
	Items []CatalogItem `json:"items,omitempty"`
	Quote *Quotation    `json:"quote,omitempty"`
}
