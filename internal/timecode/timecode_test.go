package timecode

import (
	"errors"
	"math/big"
	"testing"
)

func TestFromSeconds(t *testing.T) {
	tests := []struct {
		name string
		sec  *big.Rat
		rate FrameRate
		want string
	}{
		{name: "zero", sec: big.NewRat(0, 1), rate: FPS24, want: "00:00:00:00"},
		{name: "ten seconds", sec: big.NewRat(10, 1), rate: FPS24, want: "00:00:10:00"},
		{name: "half second at 25", sec: big.NewRat(1, 2), rate: FPS25, want: "00:00:00:12"},
		{name: "one hour", sec: big.NewRat(3600, 1), rate: FPS30, want: "01:00:00:00"},
		{name: "ntsc frame", sec: big.NewRat(1001, 30000), rate: FPS29_97, want: "00:00:00:01"},
		{name: "drop frame minute", sec: big.NewRat(1800*1001, 30000), rate: FPS29_97DF, want: "00:01:00;02"},
		{name: "high rate digits", sec: big.NewRat(1, 1), rate: FPS120, want: "00:00:01:000"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromSeconds(tc.sec, tc.rate)
			if err != nil {
				t.Fatalf("FromSeconds() error = %v", err)
			}
			if got.String() != tc.want {
				t.Fatalf("FromSeconds(%s) = %q, want %q", tc.sec.FloatString(4), got.String(), tc.want)
			}
		})
	}
}

func TestFromSeconds_SubFrames(t *testing.T) {
	// 1.5 frames at 24 fps
	tc, err := FromSeconds(big.NewRat(3, 48), FPS24)
	if err != nil {
		t.Fatalf("FromSeconds() error = %v", err)
	}
	got := tc.Format(FormatOptions{SubFrames: true})
	if got != "00:00:00:01.40" {
		t.Fatalf("Format(SubFrames) = %q, want %q", got, "00:00:00:01.40")
	}
}

func TestFromSeconds_OutOfRange(t *testing.T) {
	if _, err := FromSeconds(big.NewRat(-1, 1), FPS24); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("negative time error = %v, want ErrOutOfRange", err)
	}
	if _, err := FromSeconds(big.NewRat(86400, 1), FPS24); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("24h time error = %v, want ErrOutOfRange", err)
	}
}

func TestDropFrameNumbering(t *testing.T) {
	tests := []struct {
		frames int64
		want   string
	}{
		{frames: 1799, want: "00:00:59;29"},
		{frames: 1800, want: "00:01:00;02"},
		{frames: 17982, want: "00:10:00;00"},
		{frames: 107892, want: "01:00:00;00"},
	}
	for _, tc := range tests {
		got, err := FromFrames(tc.frames, FPS29_97DF)
		if err != nil {
			t.Fatalf("FromFrames(%d) error = %v", tc.frames, err)
		}
		if got.String() != tc.want {
			t.Errorf("FromFrames(%d) = %q, want %q", tc.frames, got.String(), tc.want)
		}
	}
}

func TestParse_RoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		rate FrameRate
	}{
		{in: "01:00:00:00", rate: FPS25},
		{in: "00:01:00;02", rate: FPS29_97DF},
		{in: "00:09:59;29", rate: FPS29_97DF},
		{in: "10:23:45:119", rate: FPS120},
	}
	for _, tc := range tests {
		got, err := Parse(tc.in, tc.rate)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", tc.in, err)
		}
		if got.String() != tc.in {
			t.Errorf("Parse(%q).String() = %q", tc.in, got.String())
		}
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "aa:bb:cc:dd", "00:00:00:30", "00:01:00;00"} {
		rate := FPS30
		if in == "00:01:00;00" {
			rate = FPS29_97DF
		}
		if _, err := Parse(in, rate); !errors.Is(err, ErrInvalid) {
			t.Errorf("Parse(%q) error = %v, want ErrInvalid", in, err)
		}
	}
}

func TestCompare_RateMismatch(t *testing.T) {
	a := New(FPS24)
	b := New(FPS25)
	if _, err := a.Compare(b); !errors.Is(err, ErrRateMismatch) {
		t.Fatalf("Compare() error = %v, want ErrRateMismatch", err)
	}
	if _, err := a.Sub(b); !errors.Is(err, ErrRateMismatch) {
		t.Fatalf("Sub() error = %v, want ErrRateMismatch", err)
	}
}

func TestBefore_ConvertsAcrossRates(t *testing.T) {
	a, _ := FromSeconds(big.NewRat(1, 1), FPS24)
	b, _ := FromSeconds(big.NewRat(2, 1), FPS25)
	if !a.Before(b) {
		t.Fatal("1s at 24fps should be before 2s at 25fps")
	}
	if b.Before(a) {
		t.Fatal("2s at 25fps should not be before 1s at 24fps")
	}
}

func TestSubAndAdd(t *testing.T) {
	out, _ := Parse("01:00:10:00", FPS25)
	in, _ := Parse("01:00:00:00", FPS25)

	dur, err := out.Sub(in)
	if err != nil {
		t.Fatalf("Sub() error = %v", err)
	}
	if dur.String() != "00:00:10:00" {
		t.Fatalf("Sub() = %q, want 00:00:10:00", dur.String())
	}

	sum, err := in.Add(dur)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if c, _ := sum.Compare(out); c != 0 {
		t.Fatalf("Add() = %q, want %q", sum, out)
	}

	if _, err := in.Sub(out); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("negative Sub() error = %v, want ErrOutOfRange", err)
	}
}

func TestFormat_Options(t *testing.T) {
	tc, _ := Parse("00:05:10;12", FPS29_97DF)

	if got := tc.Format(FormatOptions{OmitZeroHours: true}); got != "05:10;12" {
		t.Errorf("OmitZeroHours = %q", got)
	}
	if got := tc.Format(FormatOptions{FilenameCompatible: true}); got != "00-05-10-12" {
		t.Errorf("FilenameCompatible = %q", got)
	}
	if got := tc.Format(FormatOptions{SubFrames: true}); got != "00:05:10;12.00" {
		t.Errorf("SubFrames = %q", got)
	}
}

func TestSeconds(t *testing.T) {
	tc, _ := Parse("00:00:01:00", FPS29_97)
	want := big.NewRat(1001, 1000)
	if tc.Seconds().Cmp(want) != 0 {
		t.Fatalf("Seconds() = %s, want %s", tc.Seconds().RatString(), want.RatString())
	}
}

func TestRateForFrameDuration(t *testing.T) {
	tests := []struct {
		name    string
		dur     *big.Rat
		drop    bool
		want    FrameRate
		wantErr bool
	}{
		{name: "24", dur: big.NewRat(1, 24), want: FPS24},
		{name: "23.976", dur: big.NewRat(1001, 24000), want: FPS23_976},
		{name: "29.97 ndf", dur: big.NewRat(1001, 30000), want: FPS29_97},
		{name: "29.97 df", dur: big.NewRat(1001, 30000), drop: true, want: FPS29_97DF},
		{name: "29.97 approx", dur: big.NewRat(100, 2997), want: FPS29_97},
		{name: "59.94 df", dur: big.NewRat(1001, 60000), drop: true, want: FPS59_94DF},
		{name: "23.976 df invalid", dur: big.NewRat(1001, 24000), drop: true, wantErr: true},
		{name: "unknown", dur: big.NewRat(1, 17), wantErr: true},
		{name: "nil", dur: nil, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RateForFrameDuration(tc.dur, tc.drop)
			if tc.wantErr {
				if !errors.Is(err, ErrUnsupportedRate) {
					t.Fatalf("error = %v, want ErrUnsupportedRate", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("RateForFrameDuration() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("RateForFrameDuration() = %s, want %s", got, tc.want)
			}
		})
	}
}
