// Package is31fl3731 controls LED matrices driven by an ISSI IS31FL3731 over
// I²C.
//
// The IS31FL3731 is a 144 channel charlieplexed LED driver with eight frame
// banks of PWM data and a function register bank. This package splits it in
// two layers:
//
// - Chip speaks the register protocol: bank selection, single register reads
// and writes, bounded burst writes, software shutdown and frame selection.
//
// - Dev owns a pixel buffer for one physical matrix, described by a Layout,
// and flushes it through Chip with brightness and gamma correction. Dev
// implements the display.Drawer interface from periph.io.
//
// # Double Buffering
//
// Flush always writes the frame bank that is not displayed, then switches the
// display to it. Consecutive flushes alternate between banks 1 and 0, so the
// matrix never shows a half written frame.
//
// # Hardware Connection
//
//	Breakout Pin → System Pin
//	GND          → GND
//	VCC          → 3.3V
//	SDA          → I²C SDA
//	SCL          → I²C SCL
//
// The default address is 0x74 (DefaultAddr). Boards with the address jumper
// cut use 0x77.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"log"
//
//		"github.com/flavioheleno/is31fl3731"
//		"periph.io/x/conn/v3/i2c/i2creg"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		if _, err := host.Init(); err != nil {
//			log.Fatal(err)
//		}
//		bus, err := i2creg.Open("")
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer bus.Close()
//
//		dev, err := is31fl3731.New(bus, nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer dev.Halt()
//
//		dev.SetPixel(2, 2, 255, 0, 0, 1)
//		if err := dev.Flush(); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// # Brightness and Gamma
//
// Each channel is computed at flush time as
//
//	table[int(channel * globalBrightness * pixelBrightness)]
//
// where the product is clamped to [0, 255] before the lookup. The default
// table is gamma.Default; gamma.Identity and gamma.New provide others.
//
// # Other Layouts
//
// RGB5x5 is the Pimoroni 5x5 RGB breakout. Another matrix on the same chip
// needs a Layout with its size, enable bitmask and register offset table:
//
//	dev, err := is31fl3731.New(bus, &is31fl3731.Opts{Layout: &myLayout})
//
// # Frame Numbers
//
// The chip has frames 0 to 8. By default Chip.SetFrame replaces a larger
// value with 0; set Opts.FramePolicy to FrameReject to get ErrFrameOutOfRange
// instead.
//
// # Datasheet
//
// https://www.lumissil.com/assets/pdf/core/IS31FL3731_DS.pdf
package is31fl3731
