package buzz

import "fmt"

// Color identifies one of the five physical buttons on a Buzz handset.
type Color string

const (
	Red    Color = "red"
	Blue   Color = "blue"
	Orange Color = "orange"
	Green  Color = "green"
	Yellow Color = "yellow"
)

// Controllers is the number of handsets a receiver multiplexes.
const Controllers = 4

// ButtonsPerController is the number of buttons on each handset.
const ButtonsPerController = 5

// ButtonCount is the total number of buttons across all handsets.
const ButtonCount = Controllers * ButtonsPerController

// Button describes one physical button: which handset it belongs to, its
// index on the handset, its color, and the bit it occupies in the 24-bit
// pressed-buttons field of an input report.
//
// Button indices follow the handset layout: 0 is the big red buzzer,
// 1-4 are the colored buttons top to bottom (blue, orange, green, yellow).
type Button struct {
	Name       string
	Color      Color
	Controller int // 1-based handset number, 1..4
	Index      int // 0..4 within the handset
	Mask       uint32
}

func (b Button) String() string {
	return b.Name
}

// Buttons is the fixed registry of all 20 buttons, ordered by controller
// 1..4 and button index 0..4 within each controller. Consumers may rely on
// this order: multi-button transitions from a single report are emitted in
// registry order.
//
// The wire bit order within each handset's 5-bit group differs from the
// layout order: the receiver packs red, yellow, green, orange, blue into
// bits (c-1)*5 .. (c-1)*5+4.
var Buttons = buildRegistry()

// wireBit is each color's bit position within a handset's 5-bit group.
var wireBit = map[Color]uint{
	Red:    0,
	Yellow: 1,
	Green:  2,
	Orange: 3,
	Blue:   4,
}

// layout is the handset's buttons in index order, buzzer first.
var layout = [ButtonsPerController]Color{Red, Blue, Orange, Green, Yellow}

func buildRegistry() [ButtonCount]Button {
	var reg [ButtonCount]Button
	for c := 1; c <= Controllers; c++ {
		for i, color := range layout {
			reg[(c-1)*ButtonsPerController+i] = Button{
				Name:       fmt.Sprintf("p%d-%s", c, color),
				Color:      color,
				Controller: c,
				Index:      i,
				Mask:       1 << (uint(c-1)*ButtonsPerController + wireBit[color]),
			}
		}
	}
	return reg
}

// ButtonEvent is a single press or release edge for one button.
type ButtonEvent struct {
	Button  Button
	Pressed bool
}

// State renders the edge as "pressed" or "released".
func (e ButtonEvent) State() string {
	if e.Pressed {
		return "pressed"
	}
	return "released"
}

func (e ButtonEvent) String() string {
	return fmt.Sprintf("%s %s", e.Button.Name, e.State())
}
