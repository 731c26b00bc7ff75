// Package timecode models SMPTE timecode values that are always bound to
// the frame rate they were counted at.
package timecode

import (
	"fmt"
	"math"
	"math/big"
)

// FrameRate is a timecode counting rate: a nominal timebase used to count
// frames plus the exact rational rate of the underlying video.
type FrameRate struct {
	name     string
	timebase int
	num      int64
	den      int64
	drop     bool
}

var (
	FPS23_976   = FrameRate{name: "23.976", timebase: 24, num: 24000, den: 1001}
	FPS24       = FrameRate{name: "24", timebase: 24, num: 24, den: 1}
	FPS25       = FrameRate{name: "25", timebase: 25, num: 25, den: 1}
	FPS29_97    = FrameRate{name: "29.97", timebase: 30, num: 30000, den: 1001}
	FPS29_97DF  = FrameRate{name: "29.97d", timebase: 30, num: 30000, den: 1001, drop: true}
	FPS30       = FrameRate{name: "30", timebase: 30, num: 30, den: 1}
	FPS47_952   = FrameRate{name: "47.952", timebase: 48, num: 48000, den: 1001}
	FPS48       = FrameRate{name: "48", timebase: 48, num: 48, den: 1}
	FPS50       = FrameRate{name: "50", timebase: 50, num: 50, den: 1}
	FPS59_94    = FrameRate{name: "59.94", timebase: 60, num: 60000, den: 1001}
	FPS59_94DF  = FrameRate{name: "59.94d", timebase: 60, num: 60000, den: 1001, drop: true}
	FPS60       = FrameRate{name: "60", timebase: 60, num: 60, den: 1}
	FPS95_904   = FrameRate{name: "95.904", timebase: 96, num: 96000, den: 1001}
	FPS96       = FrameRate{name: "96", timebase: 96, num: 96, den: 1}
	FPS100      = FrameRate{name: "100", timebase: 100, num: 100, den: 1}
	FPS119_88   = FrameRate{name: "119.88", timebase: 120, num: 120000, den: 1001}
	FPS119_88DF = FrameRate{name: "119.88d", timebase: 120, num: 120000, den: 1001, drop: true}
	FPS120      = FrameRate{name: "120", timebase: 120, num: 120, den: 1}
)

// KnownRates lists every supported counting rate.
var KnownRates = []FrameRate{
	FPS23_976, FPS24, FPS25, FPS29_97, FPS29_97DF, FPS30,
	FPS47_952, FPS48, FPS50, FPS59_94, FPS59_94DF, FPS60,
	FPS95_904, FPS96, FPS100, FPS119_88, FPS119_88DF, FPS120,
}

// DefaultRate is used whenever a timeline's rate cannot be determined.
var DefaultRate = FPS24

// RateForFrameDuration maps a video frame duration in seconds (for example
// 1001/30000) to a known counting rate. Drop-frame counting exists only for
// the 29.97, 59.94 and 119.88 families.
func RateForFrameDuration(dur *big.Rat, drop bool) (FrameRate, error) {
	if dur == nil || dur.Sign() <= 0 {
		return FrameRate{}, fmt.Errorf("%w: frame duration must be positive", ErrUnsupportedRate)
	}

	fps, _ := new(big.Rat).Inv(dur).Float64()
	for _, r := range KnownRates {
		if r.drop != drop {
			continue
		}
		if math.Abs(fps-r.Float()) < 0.001 {
			return r, nil
		}
	}

	if drop {
		return FrameRate{}, fmt.Errorf("%w: %.3f fps has no drop-frame counting", ErrUnsupportedRate, fps)
	}
	return FrameRate{}, fmt.Errorf("%w: %.3f fps", ErrUnsupportedRate, fps)
}

// RateByName looks up a rate by its short name ("29.97d", "25", ...).
func RateByName(name string) (FrameRate, bool) {
	for _, r := range KnownRates {
		if r.name == name {
			return r, true
		}
	}
	return FrameRate{}, false
}

func (r FrameRate) String() string { return r.name }

// Verbose returns a human readable rate description such as "29.97 fps DF".
func (r FrameRate) Verbose() string {
	if r.name == "" {
		return "unknown"
	}
	if r.drop {
		return fmt.Sprintf("%s fps DF", r.name[:len(r.name)-1])
	}
	return r.name + " fps"
}

func (r FrameRate) Timebase() int { return r.timebase }

func (r FrameRate) IsDrop() bool { return r.drop }

func (r FrameRate) IsZero() bool { return r.timebase == 0 }

// FPS returns the exact frames-per-second rate.
func (r FrameRate) FPS() *big.Rat { return big.NewRat(r.num, r.den) }

func (r FrameRate) Float() float64 { return float64(r.num) / float64(r.den) }

// dropFrames is the number of frame numbers skipped each minute.
func (r FrameRate) dropFrames() int64 {
	if !r.drop {
		return 0
	}
	return int64(r.timebase / 15)
}

func (r FrameRate) frameDigits() int {
	if r.timebase >= 100 {
		return 3
	}
	return 2
}

// framesPerDay is the real frame count of a 24 hour timecode span.
func (r FrameRate) framesPerDay() int64 {
	tb := int64(r.timebase)
	if !r.drop {
		return tb * 86400
	}
	per10 := tb*600 - r.dropFrames()*9
	return per10 * 144
}
