package is31fl3731

import "fmt"

// Channel selects one color component of a pixel.
type Channel int

// Color channels, in the order used by Layout.Addr.
const (
	Red Channel = iota
	Green
	Blue
)

// Layout describes how LEDs are wired to the chip for one physical matrix.
//
// A new board is supported by a new Layout value, not by new code.
type Layout struct {
	Name string
	W    int
	H    int
	// Enable is written to the LED on/off block of both frame banks used for
	// double buffering.
	Enable [EnableSize]byte
	// Addr holds the {red, green, blue} offsets inside the color block for
	// each buffer index. Buffer index is y + x*H after the column transform.
	Addr [][3]byte
	// MirrorOddColumns flips y on odd columns, for boards wired in a
	// zig-zag.
	MirrorOddColumns bool
}

// RGB5x5 is the Pimoroni 5x5 RGB matrix breakout.
var RGB5x5 = Layout{
	Name: "rgb5x5",
	W:    5,
	H:    5,
	Enable: [EnableSize]byte{
		0b00000000, 0b10000111,
		0b00111110, 0b00111110,
		0b00111111, 0b10111110,
		0b00000111, 0b10000110,
		0b00110000, 0b00000000,
		0b00111111, 0b10001110,
		0b00111111, 0b10001110,
		0b01111111, 0b11111110,
		0b01111111, 0b00000000,
	},
	Addr: [][3]byte{
		{118, 69, 85},
		{117, 68, 101},
		{116, 84, 100},
		{115, 83, 99},
		{114, 82, 98},
		{113, 81, 97},
		{112, 80, 96},
		{134, 21, 37},
		{133, 20, 36},
		{132, 19, 35},
		{131, 18, 34},
		{130, 17, 50},
		{129, 33, 49},
		{128, 32, 48},
		{127, 47, 63},
		{121, 41, 57},
		{122, 25, 58},
		{123, 26, 42},
		{124, 27, 43},
		{125, 28, 44},
		{126, 29, 45},
		{15, 95, 111},
		{8, 89, 105},
		{9, 90, 106},
		{10, 91, 107},
	},
	MirrorOddColumns: true,
}

// Validate checks the layout is usable by Dev.
func (l *Layout) Validate() error {
	if l.W <= 0 || l.H <= 0 {
		return fmt.Errorf("is31fl3731: layout %q: invalid size %dx%d", l.Name, l.W, l.H)
	}
	if len(l.Addr) != l.W*l.H {
		return fmt.Errorf("is31fl3731: layout %q: %d address entries for %d pixels", l.Name, len(l.Addr), l.W*l.H)
	}
	for i, a := range l.Addr {
		for _, off := range a {
			if int(off) >= ColorSize {
				return fmt.Errorf("is31fl3731: layout %q: pixel %d offset %d outside color block", l.Name, i, off)
			}
		}
	}
	return nil
}

// Index returns the buffer index of (x, y), or false if the coordinate is
// outside the matrix.
func (l *Layout) Index(x, y int) (int, bool) {
	if x < 0 || y < 0 || x >= l.W || y >= l.H {
		return 0, false
	}
	if l.MirrorOddColumns && x%2 == 1 {
		y = l.H - 1 - y
	}
	return y + x*l.H, true
}

// PixelAddr returns the color block offset of channel ch of buffer index i.
//
// An index past the table yields 0 and an unknown channel yields i itself,
// so callers always get an offset they can write to.
func (l *Layout) PixelAddr(i int, ch Channel) int {
	if i < 0 || i >= len(l.Addr) {
		return 0
	}
	if ch < Red || ch > Blue {
		return i
	}
	return int(l.Addr[i][ch])
}
