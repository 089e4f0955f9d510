package strategy

import (
	"fmt"
	"sort"
	"strings"

	"RateSentinel/internal/model"
)

// Strategy turns a loaded series into a Signal. Implementations are pure:
// the same series always yields the same signal.
type Strategy interface {
	Name() string
	// Description is the one-line summary shown by strategy listings.
	Description() string
	Compute(series model.TimeSeries) (*model.Signal, error)
}

// Params configures a strategy at construction time. Zero values pick defaults.
type Params struct {
	Window      int
	ShortWindow int
}

// Factory builds a strategy from params.
type Factory func(p Params) Strategy

// registry maps stable identifiers to constructors. It is fixed at process start.
var registry = map[string]Factory{
	"ma":       func(p Params) Strategy { return NewMovingAverage(p.Window) },
	"rsi":      func(p Params) Strategy { return NewRSI(p.Window) },
	"ma-cross": func(p Params) Strategy { return NewCrossover(p.ShortWindow, p.Window) },
}

// Info describes one registered strategy.
type Info struct {
	Name        string
	Description string
}

// List returns the registered strategies sorted by name.
func List() []Info {
	out := make([]Info, 0, len(registry))
	for name, factory := range registry {
		out = append(out, Info{Name: name, Description: factory(Params{}).Description()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// New builds the strategy registered under name.
func New(name string, p Params) (Strategy, error) {
	factory, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		names := make([]string, 0, len(registry))
		for _, info := range List() {
			names = append(names, info.Name)
		}
		return nil, fmt.Errorf("unknown strategy %q (available: %s)", name, strings.Join(names, ", "))
	}
	return factory(p), nil
}

// compareToMean applies the sign convention shared by every average-based strategy:
// a rate above its reference is expensive (SELL), below is cheap (BUY).
func compareToMean(value, reference float64) model.Recommendation {
	switch {
	case value > reference:
		return model.RecommendSell
	case value < reference:
		return model.RecommendBuy
	default:
		return model.RecommendHold
	}
}
