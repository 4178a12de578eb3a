package is31fl3731

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// Register map of the IS31FL3731.
const (
	BankAddress byte = 0xFD // Command register selecting the active bank
	ConfigBank  byte = 0x0B // Function register bank

	// Function registers, only reachable once ConfigBank is selected.
	ModeRegister      byte = 0x00
	FrameRegister     byte = 0x01
	Autoplay1Register byte = 0x02
	Autoplay2Register byte = 0x03
	BlinkRegister     byte = 0x05
	AudioSyncRegister byte = 0x06
	Breath1Register   byte = 0x08
	Breath2Register   byte = 0x09
	ShutdownRegister  byte = 0x0A
	GainRegister      byte = 0x0B
	ADCRegister       byte = 0x0C

	// Values for ModeRegister.
	PictureMode   byte = 0x00
	AutoplayMode  byte = 0x08
	AudioplayMode byte = 0x18

	// Offsets inside a frame bank.
	EnableOffset byte = 0x00
	BlinkOffset  byte = 0x12
	ColorOffset  byte = 0x24
)

const (
	// DefaultAddr is the I²C address with the AD pin tied to GND.
	DefaultAddr uint16 = 0x74

	// EnableSize is the size of the LED on/off block of a frame bank.
	EnableSize = 18
	// ColorSize is the size of the PWM block of a frame bank.
	ColorSize = 144
	// MaxBurst is the largest payload sent in a single bus transaction.
	MaxBurst = 32
	// MaxFrame is the highest frame bank number.
	MaxFrame byte = 8

	// FrameNoop passed to SetFrame leaves the tracked frame unchanged.
	FrameNoop byte = 0xFF
	// BankQuery passed to SelectBank reads back the selected bank instead of
	// writing it.
	BankQuery byte = 0xFF
)

// resetDelay is how long the chip stays in software shutdown during Reset.
const resetDelay = 10 * time.Microsecond

// registerSpace is the number of addressable registers in a bank.
const registerSpace = 256

// FramePolicy decides what SetFrame does with a frame number above MaxFrame.
type FramePolicy int

const (
	// FrameClamp silently replaces an out of range frame with frame 0.
	FrameClamp FramePolicy = iota
	// FrameReject leaves the frame unchanged and returns ErrFrameOutOfRange.
	FrameReject
)

func (p FramePolicy) String() string {
	switch p {
	case FrameClamp:
		return "clamp"
	case FrameReject:
		return "reject"
	default:
		return fmt.Sprintf("FramePolicy(%d)", int(p))
	}
}

// ErrFrameOutOfRange is returned by SetFrame under the FrameReject policy.
var ErrFrameOutOfRange = errors.New("is31fl3731: frame out of range")

// ErrBlockOverflow is returned by WriteBlock when the data does not fit
// between the start register and the end of the bank.
var ErrBlockOverflow = errors.New("is31fl3731: block overflows register space")

// Chip speaks the bank switched register protocol of the IS31FL3731.
//
// It knows nothing about the LEDs wired to the chip; see Dev for that.
// A Chip is not safe for concurrent use.
type Chip struct {
	d           *i2c.Dev
	policy      FramePolicy
	frame       byte
	initialized bool
}

// NewChip returns a Chip talking to addr on bus. No bus traffic happens until
// Init or one of the register methods is called.
func NewChip(bus i2c.Bus, addr uint16, policy FramePolicy) *Chip {
	return &Chip{
		d:      &i2c.Dev{Bus: bus, Addr: addr},
		policy: policy,
	}
}

// Init resets the chip and puts it in picture mode with audio sync disabled.
//
// It is a no-op once it succeeded.
func (c *Chip) Init() error {
	if c.initialized {
		return nil
	}
	if err := c.Reset(); err != nil {
		return err
	}
	if _, err := c.SelectBank(ConfigBank); err != nil {
		return err
	}
	if err := c.tx(ModeRegister, PictureMode); err != nil {
		return wrap("set picture mode", err)
	}
	if err := c.tx(AudioSyncRegister, 0); err != nil {
		return wrap("disable audio sync", err)
	}
	c.initialized = true
	return nil
}

// Initialized reports whether Init completed.
func (c *Chip) Initialized() bool {
	return c.initialized
}

// Reset cycles the software shutdown bit.
func (c *Chip) Reset() error {
	if err := c.Sleep(true); err != nil {
		return err
	}
	time.Sleep(resetDelay)
	return c.Sleep(false)
}

// Sleep enters (true) or leaves (false) software shutdown.
func (c *Chip) Sleep(on bool) error {
	v := byte(1)
	if on {
		v = 0
	}
	return c.WriteRegister(ConfigBank, ShutdownRegister, v)
}

// Frame returns the tracked display frame.
func (c *Chip) Frame() byte {
	return c.frame
}

// SetFrame records frame as the displayed frame and, when show is true,
// writes it to the frame register.
//
// FrameNoop returns the current frame untouched. A frame above MaxFrame is
// handled according to the chip's FramePolicy. The returned value is the
// tracked frame after the call.
//
// When show is true the tracked frame only changes once the register write
// succeeded, so it keeps matching the frame on screen.
func (c *Chip) SetFrame(frame byte, show bool) (byte, error) {
	if frame == FrameNoop {
		return c.frame, nil
	}
	if frame > MaxFrame {
		if c.policy == FrameReject {
			return c.frame, fmt.Errorf("%w: %d", ErrFrameOutOfRange, frame)
		}
		frame = 0
	}
	if show {
		if err := c.WriteRegister(ConfigBank, FrameRegister, frame); err != nil {
			return c.frame, err
		}
	}
	c.frame = frame
	return c.frame, nil
}

// SelectBank points the register window at bank and returns it.
//
// BankQuery instead reads back and returns the selected bank.
func (c *Chip) SelectBank(bank byte) (byte, error) {
	if bank == BankQuery {
		var r [1]byte
		if err := c.d.Tx([]byte{BankAddress}, r[:]); err != nil {
			return 0, wrap("query bank", err)
		}
		return r[0], nil
	}
	if err := c.d.Tx([]byte{BankAddress, bank}, nil); err != nil {
		return 0, wrap(fmt.Sprintf("select bank %d", bank), err)
	}
	return bank, nil
}

// CurrentBank returns the bank currently selected on the chip.
func (c *Chip) CurrentBank() (byte, error) {
	return c.SelectBank(BankQuery)
}

// WriteRegister selects bank then writes value at reg.
func (c *Chip) WriteRegister(bank, reg, value byte) error {
	if _, err := c.SelectBank(bank); err != nil {
		return err
	}
	if err := c.tx(reg, value); err != nil {
		return wrap(fmt.Sprintf("write register %d:0x%02X", bank, reg), err)
	}
	return nil
}

// ReadRegister selects bank then reads the byte at reg.
func (c *Chip) ReadRegister(bank, reg byte) (byte, error) {
	if _, err := c.SelectBank(bank); err != nil {
		return 0, err
	}
	var r [1]byte
	if err := c.d.Tx([]byte{reg}, r[:]); err != nil {
		return 0, wrap(fmt.Sprintf("read register %d:0x%02X", bank, reg), err)
	}
	return r[0], nil
}

// WriteBlock selects bank then writes data starting at reg, split in
// transactions of at most MaxBurst bytes each.
//
// A block running past register 0xFF is rejected before any bus traffic. A
// bus failure leaves the block partially written.
func (c *Chip) WriteBlock(bank, reg byte, data []byte) error {
	if int(reg)+len(data) > registerSpace {
		return fmt.Errorf("%w: %d bytes at 0x%02X", ErrBlockOverflow, len(data), reg)
	}
	if _, err := c.SelectBank(bank); err != nil {
		return err
	}
	for off := 0; off < len(data); off += MaxBurst {
		end := off + MaxBurst
		if end > len(data) {
			end = len(data)
		}
		buf := make([]byte, 1, end-off+1)
		buf[0] = reg + byte(off)
		buf = append(buf, data[off:end]...)
		if err := c.d.Tx(buf, nil); err != nil {
			return wrap(fmt.Sprintf("write block %d:0x%02X", bank, reg+byte(off)), err)
		}
	}
	return nil
}

func (c *Chip) String() string {
	return fmt.Sprintf("is31fl3731.Chip{%s}", c.d)
}

// tx writes value at reg in the already selected bank.
func (c *Chip) tx(reg, value byte) error {
	return c.d.Tx([]byte{reg, value}, nil)
}

func wrap(op string, err error) error {
	return fmt.Errorf("is31fl3731: %s: %w", op, err)
}
