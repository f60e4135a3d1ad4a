// Package dist implements the adaptive frequency tables shared by the four
// sub-stream codecs: Distribution and ConditionalDistribution. The
// count-to-frequency rescaling is adapted from kanzi-go's
// entropy.NormalizeFrequencies (entropy/EntropyUtils.go): squeeze/stretch
// counts proportionally to FreqTotal, then spread any rounding remainder
// across the highest-count symbols first. Encode and Decode both fall
// through the same observe() routine so the update arithmetic can never
// drift between the two sides.
package dist

import (
	"github.com/dcjones-quip/quip"
	"github.com/dcjones-quip/quip/ac"
)

// decayThreshold is the point at which a distribution's raw observation
// counts are halved before rescaling.
const decayThreshold = quip.FreqTotal / 2

// Distribution is an adaptive frequency table over the alphabet [0, n).
type Distribution struct {
	n           int
	count       []uint32
	freq        []uint32
	cum         []uint32 // len n+1, cum[n] == quip.FreqTotal
	updateDelay int
	updateRate  int
	totalCount  uint32
}

// New creates a Distribution over [0, n) with a flat initial frequency and
// the given update rate (larger rate ⇒ slower, more stable adaptation).
func New(n int, updateRate int) *Distribution {
	d := &Distribution{
		n:          n,
		count:      make([]uint32, n),
		freq:       make([]uint32, n),
		cum:        make([]uint32, n+1),
		updateRate: updateRate,
	}
	d.setFlat()
	d.updateDelay = d.nextDelay()
	return d
}

func (d *Distribution) setFlat() {
	base := uint32(quip.FreqTotal) / uint32(d.n)
	rem := uint32(quip.FreqTotal) % uint32(d.n)

	for i := 0; i < d.n; i++ {
		f := base
		if uint32(i) < rem {
			f++
		}
		d.freq[i] = f
	}
	d.rebuildCum()
}

// Set force-initializes the distribution to an explicit frequency vector,
// used to seed a distribution with a skewed prior (e.g. the printable-ASCII
// byte model) instead of a flat one. freqs must sum to quip.FreqTotal and
// have every entry >= 1.
func (d *Distribution) Set(freqs []uint16) {
	for i := 0; i < d.n; i++ {
		d.freq[i] = uint32(freqs[i])
		d.count[i] = 0
	}
	d.totalCount = 0
	d.updateDelay = d.nextDelay()
	d.rebuildCum()
}

func (d *Distribution) rebuildCum() {
	sum := uint32(0)
	for i := 0; i < d.n; i++ {
		d.cum[i] = sum
		sum += d.freq[i]
	}
	d.cum[d.n] = sum
}

func (d *Distribution) nextDelay() int {
	// Slower update rates (larger updateRate) get a longer delay before the
	// next rebuild.
	return (d.n >> 1) + (1 << uint(d.updateRate)) + 1
}

// Encode writes symbol to enc using the current frequency table, then
// observes it for the next adaptive update.
func (d *Distribution) Encode(enc *ac.Encoder, symbol int) {
	enc.EncodeRenorm(d.cum[symbol], d.cum[symbol+1], d.cum[d.n])
	d.observe(symbol)
}

// Decode reads a symbol from dec using the current frequency table, then
// observes it for the next adaptive update.
func (d *Distribution) Decode(dec *ac.Decoder) int {
	total := d.cum[d.n]
	target := dec.DecodeTarget(total)
	symbol := d.findSymbol(target)
	dec.DecodeRenorm(d.cum[symbol], d.cum[symbol+1], total)
	d.observe(symbol)
	return symbol
}

func (d *Distribution) findSymbol(target uint32) int {
	lo, hi := 0, d.n-1

	for lo < hi {
		mid := (lo + hi + 1) / 2
		if d.cum[mid] <= target {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	return lo
}

// observe is the single shared update routine: increment the count,
// decrement update_delay, and rebuild the frequency table when it reaches
// zero. Both Encode and Decode call this so the arithmetic can never
// diverge between the two sides.
func (d *Distribution) observe(symbol int) {
	d.count[symbol]++
	d.totalCount++
	d.updateDelay--

	if d.updateDelay > 0 {
		return
	}

	d.rebuild()
}

func (d *Distribution) rebuild() {
	if d.totalCount > decayThreshold {
		total := uint32(0)

		for i := 0; i < d.n; i++ {
			c := d.count[i]

			if c > 0 {
				c >>= 1

				if c == 0 {
					c = 1
				}
			}

			d.count[i] = c
			total += c
		}

		d.totalCount = total
	}

	rescale(d.count, d.freq, quip.FreqTotal)
	d.rebuildCum()
	d.updateDelay = d.nextDelay()
}

// rescale normalizes counts into freq so that sum(freq) == scale exactly,
// every freq[i] >= 1, distributing the rounding remainder onto the
// highest-count symbols first (ties broken by lowest index), adapted from
// kanzi-go's entropy.NormalizeFrequencies.
func rescale(count, freq []uint32, scale uint32) {
	n := len(count)
	total := uint32(0)

	for i := 0; i < n; i++ {
		total += count[i]
	}

	if total == 0 {
		base := scale / uint32(n)
		rem := scale % uint32(n)

		for i := 0; i < n; i++ {
			freq[i] = base
			if uint32(i) < rem {
				freq[i]++
			}
		}
		return
	}

	sum := uint32(0)

	for i := 0; i < n; i++ {
		f := uint64(count[i]) * uint64(scale) / uint64(total)

		if f == 0 {
			f = 1
		}

		freq[i] = uint32(f)
		sum += uint32(f)
	}

	// Spread the rounding remainder (or deficit) across symbols in
	// decreasing-count order, never dropping any symbol below 1.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	for i := 1; i < n; i++ {
		for j := i; j > 0 && count[order[j]] > count[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	if sum < scale {
		need := scale - sum
		for _, i := range order {
			if need == 0 {
				break
			}
			freq[i]++
			need--
		}
	} else if sum > scale {
		excess := sum - scale
		for i := n - 1; i >= 0 && excess > 0; i-- {
			idx := order[i]
			if freq[idx] <= 1 {
				continue
			}
			take := freq[idx] - 1
			if take > excess {
				take = excess
			}
			freq[idx] -= take
			excess -= take
		}
	}
}
