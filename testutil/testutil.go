package testutil

import (
	"math/rand"
	"sync"

	bbset "github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/truthbits/bitset"
)

// BoundarySizes are bitset sizes around bucket boundaries.
var BoundarySizes = []uint64{0, 1, 5, 63, 64, 65, 127, 128, 129, 200}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Words returns n random 64-bit words.
// Locks only once per call (preferred over calling Uint64 in a loop).
func (r *RNG) Words(n int) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := make([]uint64, n)
	for i := range w {
		w[i] = r.rand.Uint64()
	}
	return w
}

// Bitset returns a bitset of size bits with random contents.
func (r *RNG) Bitset(size uint64) *bitset.Bitset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return bitset.Random(size, r.rand)
}

// Bitsets returns n random bitsets of equal size.
func (r *RNG) Bitsets(n int, size uint64) []*bitset.Bitset {
	out := make([]*bitset.Bitset, n)
	for i := range out {
		out[i] = r.Bitset(size)
	}
	return out
}

// Oracle copies b into a bits-and-blooms bitset, bit by bit.
func Oracle(b *bitset.Bitset) *bbset.BitSet {
	o := bbset.New(uint(b.Size()))
	for i := uint64(0); i < b.Size(); i++ {
		if b.Get(i) {
			o.Set(uint(i))
		}
	}
	return o
}

// OracleMaj computes the bitwise majority of three equal-size bitsets.
func OracleMaj(a, b, c *bitset.Bitset) *bbset.BitSet {
	oa, ob, oc := Oracle(a), Oracle(b), Oracle(c)
	return oa.Intersection(ob).Union(oa.Intersection(oc)).Union(ob.Intersection(oc))
}

// OracleIte computes (a AND b) OR (NOT a AND c).
func OracleIte(a, b, c *bitset.Bitset) *bbset.BitSet {
	oa, ob, oc := Oracle(a), Oracle(b), Oracle(c)
	notA := oa.Complement()
	return oa.Intersection(ob).Union(notA.Intersection(oc))
}

// Matches reports whether got holds exactly the positions set in want.
func Matches(got *bitset.Bitset, want *bbset.BitSet) bool {
	if uint64(want.Len()) != got.Size() {
		return false
	}
	for i := uint64(0); i < got.Size(); i++ {
		if got.Get(i) != want.Test(uint(i)) {
			return false
		}
	}
	return true
}

// RowValue returns the value of input i in the given row of the truth
// table of inputs variables. Input 0 is the most significant bit.
func RowValue(inputs, i int, row uint64) bool {
	return row>>uint(inputs-1-i)&1 == 1
}

// Binomial returns n choose k.
func Binomial(n, k int) uint64 {
	if k < 0 || k > n {
		return 0
	}
	k = min(k, n-k)
	c := uint64(1)
	for i := 1; i <= k; i++ {
		c = c * uint64(n-k+i) / uint64(i)
	}
	return c
}
