package dist

import "github.com/dcjones-quip/quip/ac"

// ConditionalDistribution is an array of Distribution instances selected by
// an integer context the caller computes. All sub-distributions share one
// update rate.
type ConditionalDistribution struct {
	dists      []Distribution
	n          int
	alphabet   int
	updateRate int
}

// NewConditional creates numContexts independent distributions, each over
// [0, alphabetSize), sharing updateRate.
func NewConditional(numContexts, alphabetSize, updateRate int) *ConditionalDistribution {
	c := &ConditionalDistribution{
		dists:      make([]Distribution, numContexts),
		n:          numContexts,
		alphabet:   alphabetSize,
		updateRate: updateRate,
	}

	for i := range c.dists {
		c.dists[i] = *New(alphabetSize, updateRate)
	}

	return c
}

// SetUpdateRate changes the shared update rate and resets every
// sub-distribution's delay schedule to match.
func (c *ConditionalDistribution) SetUpdateRate(rate int) {
	c.updateRate = rate

	for i := range c.dists {
		c.dists[i].updateRate = rate
		c.dists[i].updateDelay = c.dists[i].nextDelay()
	}
}

// SetAll force-initializes every sub-distribution to the same frequency
// vector.
func (c *ConditionalDistribution) SetAll(freqs []uint16) {
	for i := range c.dists {
		c.dists[i].Set(freqs)
	}
}

// SetOne force-initializes a single sub-distribution.
func (c *ConditionalDistribution) SetOne(freqs []uint16, i int) {
	c.dists[i].Set(freqs)
}

// At returns the sub-distribution for context y, for callers that need
// direct access beyond Encode/Decode (e.g. to inspect counts in tests).
func (c *ConditionalDistribution) At(y int) *Distribution {
	return &c.dists[y]
}

// Encode encodes symbol against the distribution selected by context y.
func (c *ConditionalDistribution) Encode(enc *ac.Encoder, y, symbol int) {
	c.dists[y].Encode(enc, symbol)
}

// Decode decodes a symbol against the distribution selected by context y.
func (c *ConditionalDistribution) Decode(dec *ac.Decoder, y int) int {
	return c.dists[y].Decode(dec)
}
