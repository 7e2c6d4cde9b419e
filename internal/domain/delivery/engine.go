package delivery

import "errors"

var (
	ErrUnknownMethod   = errors.New("unknown delivery method")
	ErrDuplicateMethod = errors.New("delivery method already registered")
	ErrEmptyMethodCode = errors.New("delivery method code must not be empty")
)

// Strategy prices one delivery method. Implementations must be pure:
// identical inputs yield identical quotes including the trace.
type Strategy interface {
	Code() string
	Quote(snap CartSnapshot, dest *DestinationPricing) Quote
}

// Engine maps delivery-method codes to strategies. New methods are added by
// registration; the engine itself never branches on method codes.
type Engine struct {
	strategies map[string]Strategy
}

func NewEngine() *Engine {
	return &Engine{strategies: make(map[string]Strategy)}
}

func (e *Engine) Register(s Strategy) error {
	code := s.Code()
	if code == "" {
		return ErrEmptyMethodCode
	}
	if _, exists := e.strategies[code]; exists {
		return ErrDuplicateMethod
	}
	e.strategies[code] = s
	return nil
}

func (e *Engine) Quote(methodCode string, snap CartSnapshot, dest *DestinationPricing) (Quote, error) {
	s, ok := e.strategies[methodCode]
	if !ok {
		return Quote{}, ErrUnknownMethod
	}
	return s.Quote(snap, dest), nil
}

func (e *Engine) Methods() []string {
	codes := make([]string, 0, len(e.strategies))
	for code := range e.strategies {
		codes = append(codes, code)
	}
	return codes
}
