package core

// FadeCurve maps the remaining lifetime of a message to its opacity.
//
// The first half of the lifetime fades slowly from 1 to Midway, the second
// half fades linearly from Midway to 0.
type FadeCurve struct {
	// Midway is the opacity reached exactly at half the lifetime, in (0, 1).
	Midway float64
}

// Alpha returns the opacity for timeRemaining out of originalTime.
// originalTime must be > 0.
func (c FadeCurve) Alpha(timeRemaining, originalTime float64) float64 {
	halfway := originalTime * 0.5

	if timeRemaining >= halfway {
		// Interpolated as a weighted sum so both ends land exactly on
		// Midway and 1.
		f := (timeRemaining - halfway) / halfway
		return c.Midway*(1-f) + f
	}
	return c.Midway * (timeRemaining / halfway)
}
