// Package lowcut provides progressive high-pass filtering of time series
// using a dyadic (Haar) multiresolution decomposition.
package lowcut

// MaxPow2 returns the largest power of two that is <= n, or 0 when n < 1.
func MaxPow2(n int) int {
	if n < 1 {
		return 0
	}
	p := 1
	for p<<1 <= n {
		p <<= 1
	}
	return p
}

// Levels returns log2(n) for a power-of-two n. Result is undefined for
// other lengths.
func Levels(n int) int {
	k := 0
	for n > 1 {
		n >>= 1
		k++
	}
	return k
}

// Iter yields successive low-cut (high-pass) versions of a series. It is
// finite and non-restartable: a series of length N = 2^k produces k+1
// filtered series, after which Next reports false.
type Iter struct {
	x     []float64
	level int
	max   int
}

// Series returns an iterator over progressively low-cut filtered versions
// of x. The first series yielded has only the mean removed; each
// subsequent one additionally removes the next-coarser scale of the Haar
// decomposition, so the final one removes all content down to the
// single-sample scale (and is therefore identically zero).
//
// The length of x must be a power of two; behavior is undefined
// otherwise. Callers truncate with MaxPow2 beforehand.
func Series(x []float64) *Iter {
	return &Iter{x: x, level: 0, max: Levels(len(x))}
}

// Next returns the next filtered series and true, or nil and false when
// the decomposition is exhausted. The returned slice is freshly
// allocated; the input series is never modified.
func (it *Iter) Next() ([]float64, bool) {
	if it.level > it.max {
		return nil, false
	}
	// The Haar approximation at scale 2^m is the series of block means
	// with block size 2^m, so removing all scales coarser than
	// 2^(max-level) amounts to subtracting the block means at that size.
	block := len(it.x) >> it.level
	out := subtractBlockMeans(it.x, block)
	it.level++
	return out, true
}

func subtractBlockMeans(x []float64, block int) []float64 {
	out := make([]float64, len(x))
	for start := 0; start < len(x); start += block {
		sum := 0.0
		for i := start; i < start+block; i++ {
			sum += x[i]
		}
		mean := sum / float64(block)
		for i := start; i < start+block; i++ {
			out[i] = x[i] - mean
		}
	}
	return out
}
