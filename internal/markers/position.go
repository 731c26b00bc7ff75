package markers

import (
	"log/slog"
	"math/big"

	"github.com/heimdex/markers-extractor/internal/fcpxml"
	"github.com/heimdex/markers-extractor/internal/timecode"
)

// sequenceTiming is the rate and start timecode shared by every marker of
// one sequence.
type sequenceTiming struct {
	rate  timecode.FrameRate
	start timecode.Timecode
}

// timing resolves the sequence enclosing marker once and reuses the result
// for the sequence's other markers, so each fallback warns once per
// timeline.
func (x *Extractor) timing(marker *fcpxml.Node) *sequenceTiming {
	seq, _ := fcpxml.FindAncestor(marker, fcpxml.OfType(fcpxml.TypeSequence))
	if t, ok := x.timings[seq]; ok {
		return t
	}
	rate := x.frameRate(seq)
	t := &sequenceTiming{rate: rate, start: x.projectStart(seq, rate)}
	x.timings[seq] = t
	return t
}

// frameRate resolves the timecode rate of seq. Every fallback logs a
// warning and continues at the default rate.
func (x *Extractor) frameRate(seq *fcpxml.Node) timecode.FrameRate {
	def := timecode.DefaultRate

	if seq == nil {
		x.logger.Warn("no sequence found for marker, using default frame rate", "rate", def.String())
		return def
	}

	frameDuration, ok := x.frameDuration(seq)
	if !ok {
		x.logger.Warn("could not parse sequence format frame rate, using default",
			"format", seq.AttrOr("format", ""), "rate", def.String())
		return def
	}

	drop := false
	switch seq.AttrOr("tcFormat", "") {
	case "DF":
		drop = true
	case "NDF":
	default:
		x.logger.Warn("sequence timecode format is not DF or NDF, using NDF",
			"tc_format", seq.AttrOr("tcFormat", ""))
	}

	rate, err := timecode.RateForFrameDuration(frameDuration, drop)
	if err != nil {
		x.logger.Warn("unsupported sequence frame rate, using default",
			"frame_duration", frameDuration.RatString(), "drop", drop, "rate", def.String(), "error", err)
		return def
	}
	return rate
}

func (x *Extractor) frameDuration(seq *fcpxml.Node) (*big.Rat, bool) {
	ref, ok := seq.Attr("format")
	if !ok {
		return nil, false
	}
	format, ok := x.doc.Resource(ref)
	if !ok {
		return nil, false
	}
	raw, ok := format.Attr("frameDuration")
	if !ok {
		return nil, false
	}
	d, err := fcpxml.ParseTime(raw)
	if err != nil || d.Sign() <= 0 {
		return nil, false
	}
	return d, true
}

// position computes the absolute timeline position of marker within its
// parent clip. The local offset is measured from the clip's media start
// when the clip is trimmed.
func (x *Extractor) position(marker, clip *fcpxml.Node, rate timecode.FrameRate, clipDuration *big.Rat) timecode.Timecode {
	local := fcpxml.TimeAttrOrZero(marker, "start")
	if clipStart := fcpxml.TimeAttrOrZero(clip, "start"); clipStart.Sign() > 0 {
		local.Sub(local, clipStart)
	}

	abs := fcpxml.TimelineInPoint(clip)
	abs.Add(abs, local)

	tc, err := timecode.FromSeconds(abs, rate)
	if err != nil {
		x.logger.Warn("could not form marker position timecode, using zero",
			"marker", marker.AttrOr("value", ""),
			"clip", clip.AttrOr("name", ""),
			"error", err)
		tc = timecode.New(rate)
	}

	if local.Cmp(clipDuration) > 0 {
		x.logger.Warn("marker is out of bounds of its parent clip",
			"marker", marker.AttrOr("value", ""),
			"position", tc.String(),
			"clip", clip.AttrOr("name", ""))
	}
	return tc
}

// projectStart reads the sequence tcStart, falling back to zero.
func (x *Extractor) projectStart(seq *fcpxml.Node, rate timecode.FrameRate) timecode.Timecode {
	if seq != nil {
		if start, err := fcpxml.TimeAttr(seq, "tcStart"); err == nil {
			if tc, err := timecode.FromSeconds(start, rate); err == nil {
				return tc
			}
		}
	}
	x.logger.Warn("could not determine project start timecode, using zero", "rate", rate.String())
	return timecode.New(rate)
}

// timecodeOrZero converts a clip bound, falling back to zero at rate.
func timecodeOrZero(sec *big.Rat, rate timecode.FrameRate, logger *slog.Logger) timecode.Timecode {
	tc, err := timecode.FromSeconds(sec, rate)
	if err != nil {
		logger.Debug("clip bound outside timecode range", "seconds", sec.FloatString(3), "error", err)
		return timecode.New(rate)
	}
	return tc
}
