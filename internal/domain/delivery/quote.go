package delivery

// Quote is the transient result of one pricing calculation. A nil CostCents
// means no automatic price could be computed and a human must set one.
// Quotes are never persisted; they are recomputed per request and may be
// cached briefly on read paths.
type Quote struct {
	CostCents             *int64         `json:"cost_cents"`
	Term                  string         `json:"term"`
	Message               *string        `json:"message,omitempty"`
	IsFree                bool           `json:"is_free"`
	RequiresManualPricing bool           `json:"requires_manual_pricing"`
	Trace                 map[string]any `json:"trace"`
}

// CartSnapshot is the minimal cart state pricing depends on.
type CartSnapshot struct {
	SubtotalCents int64
	ItemQuantity  int64
}

// DestinationPricing is location-derived pricing data resolved from the
// location pricing source. A nil BaseCostCents means the location has no
// configured base cost.
type DestinationPricing struct {
	BaseCostCents      *int64
	FreeThresholdCents int64
	LeadTime           string
}
