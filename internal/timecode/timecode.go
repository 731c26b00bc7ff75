package timecode

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// DefaultSubFramesBase is the number of subframes per frame.
const DefaultSubFramesBase = 80

var (
	ErrOutOfRange      = errors.New("timecode out of range")
	ErrRateMismatch    = errors.New("timecode frame rates differ")
	ErrUnsupportedRate = errors.New("unsupported frame rate")
	ErrInvalid         = errors.New("invalid timecode")
)

// Timecode is a position counted in frames at a specific frame rate,
// limited to a 24 hour span.
type Timecode struct {
	rate      FrameRate
	frames    int64
	subFrames int
	base      int
}

// Components is the display breakdown of a timecode.
type Components struct {
	Days      int
	Hours     int
	Minutes   int
	Seconds   int
	Frames    int
	SubFrames int
}

// FormatOptions controls string rendering.
type FormatOptions struct {
	SubFrames          bool
	FilenameCompatible bool
	OmitZeroHours      bool
}

// New returns the zero timecode at rate.
func New(rate FrameRate) Timecode {
	return Timecode{rate: rate, base: DefaultSubFramesBase}
}

// FromSeconds converts a real time value into a timecode at rate. Partial
// frames are kept as subframes.
func FromSeconds(sec *big.Rat, rate FrameRate) (Timecode, error) {
	if rate.IsZero() {
		return Timecode{}, fmt.Errorf("%w: no frame rate", ErrUnsupportedRate)
	}
	if sec == nil {
		return New(rate), nil
	}
	if sec.Sign() < 0 {
		return Timecode{}, fmt.Errorf("%w: negative time %s", ErrOutOfRange, sec.FloatString(3))
	}

	total := new(big.Rat).Mul(sec, rate.FPS())
	whole := new(big.Int).Quo(total.Num(), total.Denom())
	if !whole.IsInt64() || whole.Int64() >= rate.framesPerDay() {
		return Timecode{}, fmt.Errorf("%w: %ss exceeds 24 hours", ErrOutOfRange, sec.FloatString(3))
	}

	frac := new(big.Rat).Sub(total, new(big.Rat).SetInt(whole))
	frac.Mul(frac, big.NewRat(DefaultSubFramesBase, 1))
	sub := new(big.Int).Quo(frac.Num(), frac.Denom())

	return Timecode{
		rate:      rate,
		frames:    whole.Int64(),
		subFrames: int(sub.Int64()),
		base:      DefaultSubFramesBase,
	}, nil
}

// FromFrames builds a timecode from a real frame count.
func FromFrames(frames int64, rate FrameRate) (Timecode, error) {
	if rate.IsZero() {
		return Timecode{}, fmt.Errorf("%w: no frame rate", ErrUnsupportedRate)
	}
	if frames < 0 || frames >= rate.framesPerDay() {
		return Timecode{}, fmt.Errorf("%w: %d frames", ErrOutOfRange, frames)
	}
	return Timecode{rate: rate, frames: frames, base: DefaultSubFramesBase}, nil
}

// FromComponents builds a timecode from its display values.
func FromComponents(c Components, rate FrameRate) (Timecode, error) {
	if rate.IsZero() {
		return Timecode{}, fmt.Errorf("%w: no frame rate", ErrUnsupportedRate)
	}
	tb := rate.timebase
	if c.Days != 0 || c.Hours < 0 || c.Hours > 23 || c.Minutes < 0 || c.Minutes > 59 ||
		c.Seconds < 0 || c.Seconds > 59 || c.Frames < 0 || c.Frames >= tb ||
		c.SubFrames < 0 || c.SubFrames >= DefaultSubFramesBase {
		return Timecode{}, fmt.Errorf("%w: component out of range", ErrInvalid)
	}

	d := rate.dropFrames()
	if d > 0 && c.Seconds == 0 && c.Minutes%10 != 0 && int64(c.Frames) < d {
		return Timecode{}, fmt.Errorf("%w: frame %d is skipped in drop-frame counting", ErrInvalid, c.Frames)
	}

	total := (int64(c.Hours)*3600+int64(c.Minutes)*60+int64(c.Seconds))*int64(tb) + int64(c.Frames)
	if d > 0 {
		totalMinutes := int64(c.Hours)*60 + int64(c.Minutes)
		total -= d * (totalMinutes - totalMinutes/10)
	}

	tc, err := FromFrames(total, rate)
	if err != nil {
		return Timecode{}, err
	}
	tc.subFrames = c.SubFrames
	return tc, nil
}

// Parse reads "HH:MM:SS:FF", "HH:MM:SS;FF" or "MM:SS:FF" with an optional
// ".SF" subframe suffix.
func Parse(s string, rate FrameRate) (Timecode, error) {
	var c Components
	str := strings.TrimSpace(s)

	if i := strings.LastIndex(str, "."); i >= 0 {
		sub, err := strconv.Atoi(str[i+1:])
		if err != nil {
			return Timecode{}, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		c.SubFrames = sub
		str = str[:i]
	}

	parts := strings.Split(strings.ReplaceAll(str, ";", ":"), ":")
	if len(parts) == 3 {
		parts = append([]string{"0"}, parts...)
	}
	if len(parts) != 4 {
		return Timecode{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}

	values := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return Timecode{}, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		values[i] = v
	}
	c.Hours, c.Minutes, c.Seconds, c.Frames = values[0], values[1], values[2], values[3]

	return FromComponents(c, rate)
}

func (t Timecode) Rate() FrameRate { return t.rate }

func (t Timecode) SubFramesBase() int { return t.base }

// Frames returns the real frame count since zero.
func (t Timecode) Frames() int64 { return t.frames }

func (t Timecode) IsZero() bool { return t.frames == 0 && t.subFrames == 0 }

// Components returns the display breakdown, applying drop-frame numbering.
func (t Timecode) Components() Components {
	f := t.frames
	if d := t.rate.dropFrames(); d > 0 {
		tb := int64(t.rate.timebase)
		per10 := tb*600 - d*9
		perMin := tb*60 - d
		tens := f / per10
		rem := f % per10
		if rem > d {
			f += d*9*tens + d*((rem-d)/perMin)
		} else {
			f += d * 9 * tens
		}
	}

	tb := int64(t.rate.timebase)
	if tb == 0 {
		return Components{}
	}
	secs := f / tb
	return Components{
		Days:      int(secs / 86400),
		Hours:     int((secs / 3600) % 24),
		Minutes:   int((secs / 60) % 60),
		Seconds:   int(secs % 60),
		Frames:    int(f % tb),
		SubFrames: t.subFrames,
	}
}

// Seconds returns the real elapsed time of the timecode.
func (t Timecode) Seconds() *big.Rat {
	if t.rate.IsZero() {
		return new(big.Rat)
	}
	frames := new(big.Rat).SetInt64(t.frames)
	if t.base > 0 && t.subFrames > 0 {
		frames.Add(frames, big.NewRat(int64(t.subFrames), int64(t.base)))
	}
	return frames.Quo(frames, t.rate.FPS())
}

func (t Timecode) subFrameCount() int64 {
	return t.frames*int64(t.base) + int64(t.subFrames)
}

func (t Timecode) sameScale(o Timecode) error {
	if t.rate != o.rate {
		return fmt.Errorf("%w: %s and %s", ErrRateMismatch, t.rate, o.rate)
	}
	if t.base != o.base {
		return fmt.Errorf("%w: subframe bases %d and %d", ErrRateMismatch, t.base, o.base)
	}
	return nil
}

// Compare returns -1, 0 or 1. Both timecodes must share a frame rate.
func (t Timecode) Compare(o Timecode) (int, error) {
	if err := t.sameScale(o); err != nil {
		return 0, err
	}
	a, b := t.subFrameCount(), o.subFrameCount()
	switch {
	case a < b:
		return -1, nil
	case a > b:
		return 1, nil
	}
	return 0, nil
}

// Before reports whether t is earlier than o. Timecodes at different rates
// are compared by converting both to real time.
func (t Timecode) Before(o Timecode) bool {
	if c, err := t.Compare(o); err == nil {
		return c < 0
	}
	return t.Seconds().Cmp(o.Seconds()) < 0
}

// Sub returns t - o. Both timecodes must share a frame rate.
func (t Timecode) Sub(o Timecode) (Timecode, error) {
	if err := t.sameScale(o); err != nil {
		return Timecode{}, err
	}
	return t.fromSubFrameCount(t.subFrameCount() - o.subFrameCount())
}

// Add returns t + o. Both timecodes must share a frame rate.
func (t Timecode) Add(o Timecode) (Timecode, error) {
	if err := t.sameScale(o); err != nil {
		return Timecode{}, err
	}
	return t.fromSubFrameCount(t.subFrameCount() + o.subFrameCount())
}

func (t Timecode) fromSubFrameCount(n int64) (Timecode, error) {
	base := int64(t.base)
	if n < 0 || n/base >= t.rate.framesPerDay() {
		return Timecode{}, fmt.Errorf("%w: result outside 24 hours", ErrOutOfRange)
	}
	return Timecode{rate: t.rate, frames: n / base, subFrames: int(n % base), base: t.base}, nil
}

// String renders "HH:MM:SS:FF" (";" before frames for drop-frame rates).
func (t Timecode) String() string {
	return t.Format(FormatOptions{})
}

// Format renders the timecode according to opts.
func (t Timecode) Format(opts FormatOptions) string {
	c := t.Components()
	frameSep := ":"
	if t.rate.drop {
		frameSep = ";"
	}

	var b strings.Builder
	if c.Days != 0 {
		fmt.Fprintf(&b, "%d ", c.Days)
	}
	if c.Hours != 0 || !opts.OmitZeroHours {
		fmt.Fprintf(&b, "%02d:", c.Hours)
	}
	fmt.Fprintf(&b, "%02d:%02d%s%0*d", c.Minutes, c.Seconds, frameSep, t.rate.frameDigits(), c.Frames)

	if opts.SubFrames {
		digits := len(strconv.Itoa(t.base - 1))
		fmt.Fprintf(&b, ".%0*d", digits, c.SubFrames)
	}

	out := b.String()
	if opts.FilenameCompatible {
		out = strings.NewReplacer(":", "-", ";", "-", " ", "-").Replace(out)
	}
	return out
}
