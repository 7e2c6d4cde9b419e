package delivery

type PricingMode string

const (
	// PerItem multiplies the location base cost by the total item quantity.
	PerItem PricingMode = "per_item"
	// FlatRate charges the location base cost once per delivery.
	FlatRate PricingMode = "flat_rate"
)

const (
	MessageFree   = "free"
	MessageManual = "delivery cost requires manager confirmation"
)

// strategy implements the rule sequence shared by all delivery methods.
// The pricing mode and surcharge are properties of the method, not of the
// request.
type strategy struct {
	code                      string
	mode                      PricingMode
	surchargeCents            int64
	defaultFreeThresholdCents int64
}

// NewCourier prices door-to-door delivery per item.
func NewCourier(defaultFreeThresholdCents int64) Strategy {
	return &strategy{
		code:                      "courier",
		mode:                      PerItem,
		defaultFreeThresholdCents: defaultFreeThresholdCents,
	}
}

// NewPickupPoint prices delivery to a pickup point at a flat rate plus a
// handling surcharge.
func NewPickupPoint(defaultFreeThresholdCents, surchargeCents int64) Strategy {
	return &strategy{
		code:                      "pickup_point",
		mode:                      FlatRate,
		surchargeCents:            surchargeCents,
		defaultFreeThresholdCents: defaultFreeThresholdCents,
	}
}

func (s *strategy) Code() string { return s.code }

func (s *strategy) Quote(snap CartSnapshot, dest *DestinationPricing) Quote {
	trace := map[string]any{
		"method":         s.code,
		"mode":           string(s.mode),
		"subtotal_cents": snap.SubtotalCents,
		"item_quantity":  snap.ItemQuantity,
	}

	if dest == nil {
		trace["rule"] = "unresolved_location"
		return Quote{RequiresManualPricing: true, Trace: trace}
	}

	trace["location_threshold_cents"] = dest.FreeThresholdCents
	effectiveThreshold := dest.FreeThresholdCents
	if effectiveThreshold <= 0 {
		effectiveThreshold = s.defaultFreeThresholdCents
	}
	trace["effective_threshold_cents"] = effectiveThreshold

	if effectiveThreshold > 0 && snap.SubtotalCents >= effectiveThreshold {
		trace["rule"] = "free_threshold"
		cost := int64(0)
		msg := MessageFree
		return Quote{CostCents: &cost, Term: dest.LeadTime, Message: &msg, IsFree: true, Trace: trace}
	}

	if dest.BaseCostCents == nil {
		trace["rule"] = "no_base_cost"
		msg := MessageManual
		return Quote{Term: dest.LeadTime, Message: &msg, RequiresManualPricing: true, Trace: trace}
	}

	trace["base_cost_cents"] = *dest.BaseCostCents
	trace["surcharge_cents"] = s.surchargeCents

	var cost int64
	switch s.mode {
	case PerItem:
		trace["rule"] = "per_item"
		cost = *dest.BaseCostCents*snap.ItemQuantity + s.surchargeCents
	default:
		trace["rule"] = "flat_rate"
		cost = *dest.BaseCostCents + s.surchargeCents
	}

	return Quote{CostCents: &cost, Term: dest.LeadTime, Trace: trace}
}
