package models

import "strings"

// SymbolClass groups instruments with similar pip and spread behavior.
type SymbolClass string

const (
	ClassMajorFX SymbolClass = "major_fx"
	ClassJPY     SymbolClass = "jpy"
	ClassMetal   SymbolClass = "metal"
	ClassCrypto  SymbolClass = "crypto"
)

// SymbolSpec carries the per-class parameters the risk calculator and the
// level calculator depend on.
type SymbolSpec struct {
	Class         SymbolClass `yaml:"class" json:"class"`
	PipSize       float64     `yaml:"pip_size" json:"pip_size"`
	MinStopPips   float64     `yaml:"min_stop_pips" json:"min_stop_pips"`
	MaxStopPips   float64     `yaml:"max_stop_pips" json:"max_stop_pips"`
	TypicalSpread float64     `yaml:"typical_spread_pips" json:"typical_spread_pips"`
	// RoundStep is the round-number grid in price units.
	RoundStep float64 `yaml:"round_step" json:"round_step"`
}

// ClassifySymbol infers the class from the symbol name when no explicit
// configuration exists for it.
func ClassifySymbol(symbol string) SymbolClass {
	s := strings.ToUpper(strings.ReplaceAll(symbol, "_", ""))
	switch {
	case strings.Contains(s, "JPY"):
		return ClassJPY
	case strings.HasPrefix(s, "XAU"), strings.HasPrefix(s, "XAG"):
		return ClassMetal
	case strings.Contains(s, "BTC"), strings.Contains(s, "ETH"):
		return ClassCrypto
	default:
		return ClassMajorFX
	}
}

// DefaultSpec returns the baseline spec per class. Values mirror live
// broker characteristics for the respective instrument groups.
func DefaultSpec(class SymbolClass) SymbolSpec {
	switch class {
	case ClassJPY:
		return SymbolSpec{Class: class, PipSize: 0.01, MinStopPips: 10, MaxStopPips: 50, TypicalSpread: 1.0, RoundStep: 0.5}
	case ClassMetal:
		return SymbolSpec{Class: class, PipSize: 0.1, MinStopPips: 50, MaxStopPips: 200, TypicalSpread: 30, RoundStep: 10}
	case ClassCrypto:
		return SymbolSpec{Class: class, PipSize: 1, MinStopPips: 100, MaxStopPips: 2000, TypicalSpread: 50, RoundStep: 1000}
	default:
		return SymbolSpec{Class: ClassMajorFX, PipSize: 0.0001, MinStopPips: 10, MaxStopPips: 50, TypicalSpread: 1.0, RoundStep: 0.005}
	}
}
