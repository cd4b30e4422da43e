package graph

// Param is a scalar that follows linear ramps scheduled on the sample clock.
// The zero value holds 0.
type Param struct {
	from, to   float64
	start, end int64
}

// NewParam returns a param holding v
func NewParam(v float64) Param {
	return Param{from: v, to: v}
}

// ValueAt returns the value of the param at the given frame
func (p *Param) ValueAt(frame int64) float64 {
	if frame >= p.end {
		return p.to
	}
	if frame <= p.start {
		return p.from
	}
	t := float64(frame-p.start) / float64(p.end-p.start)
	return p.from + (p.to-p.from)*t
}

// Target returns the value the param settles at once any ramp completes
func (p *Param) Target() float64 {
	return p.to
}

// End returns the frame at which the latest ramp completes
func (p *Param) End() int64 {
	return p.end
}

// SetValueAt jumps to v at frame now, cancelling any ramp in progress
func (p *Param) SetValueAt(v float64, now int64) {
	p.from, p.to = v, v
	p.start, p.end = now, now
}

// LinearRampTo ramps from the value held at frame now to v, reaching it at frame end
func (p *Param) LinearRampTo(v float64, now, end int64) {
	if end <= now {
		p.SetValueAt(v, now)
		return
	}
	p.from = p.ValueAt(now)
	p.to = v
	p.start, p.end = now, end
}

// apply scales samples by the param, the first sample sitting at frame cursor
func (p *Param) apply(samples [][2]float64, cursor int64) {
	if cursor >= p.end {
		if p.to == 1 {
			return
		}
		for i := range samples {
			samples[i][0] *= p.to
			samples[i][1] *= p.to
		}
		return
	}
	for i := range samples {
		v := p.ValueAt(cursor + int64(i))
		samples[i][0] *= v
		samples[i][1] *= v
	}
}
