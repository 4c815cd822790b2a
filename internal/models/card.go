// internal/models/card.go
package models

// Color is the suit-like attribute of a card. Colorless cards use ColorNone.
type Color string

const (
	ColorBlue   Color = "blue"
	ColorRed    Color = "red"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorNone   Color = "none"
)

// Colors lists the four playable colors in canonical deck order.
var Colors = []Color{ColorBlue, ColorRed, ColorGreen, ColorYellow}

// Valid reports whether c is one of the four playable colors.
func (c Color) Valid() bool {
	switch c {
	case ColorBlue, ColorRed, ColorGreen, ColorYellow:
		return true
	}
	return false
}

// Value is the rank or special action of a card.
type Value string

const (
	ValueOne         Value = "one"
	ValueThree       Value = "three"
	ValueFour        Value = "four"
	ValueFive        Value = "five"
	ValueSix         Value = "six"
	ValueSeven       Value = "seven"
	ValueEight       Value = "eight"
	ValueNine        Value = "nine"
	ValuePlus        Value = "plus"
	ValueReverse     Value = "reverse"
	ValueDrawTwo     Value = "draw_two"
	ValueSkip        Value = "skip"
	ValueChangeColor Value = "change_color"
	ValueTaki        Value = "taki"
)

// ColoredValues is the per-color value set of the canonical deck, in deck order.
var ColoredValues = []Value{
	ValueOne, ValueThree, ValueFour, ValueFive, ValueSix, ValueSeven, ValueEight, ValueNine,
	ValuePlus, ValueReverse, ValueDrawTwo, ValueSkip,
}

// Valid reports whether v is a known card value.
func (v Value) Valid() bool {
	switch v {
	case ValueChangeColor, ValueTaki:
		return true
	}
	for _, cv := range ColoredValues {
		if cv == v {
			return true
		}
	}
	return false
}

// IsNumbered reports whether v is one of the plain number values (one..nine).
// Only numbered cards may seed the discard pile.
func (v Value) IsNumbered() bool {
	switch v {
	case ValueOne, ValueThree, ValueFour, ValueFive, ValueSix, ValueSeven, ValueEight, ValueNine:
		return true
	}
	return false
}

// Card is a single playing card. In the deck and in hands a change_color card
// is always ColorNone; once played it carries the color chosen by its player.
type Card struct {
	Color Color `json:"color"`
	Value Value `json:"value"`
}

// IsColorless reports whether the card is matched by value alone when it leaves a hand.
func (c Card) IsColorless() bool {
	return c.Value == ValueChangeColor
}

func (c Card) String() string {
	return string(c.Color) + ":" + string(c.Value)
}
