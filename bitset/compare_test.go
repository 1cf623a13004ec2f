package bitset

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFastCompare(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := Random(100, rng)
	for a.AllZero() || a.AllOne() {
		a = Random(100, rng)
	}

	tests := []struct {
		name string
		a, b *Bitset
		want Comparison
	}{
		{"invalid", &Bitset{}, a, Different},
		{"size mismatch", New(10), New(11), Different},
		{"empty", New(0), NewFilled(0, 1), Equal},
		{"same handle", a, a, Equal},
		{"share", a, a.Share(), Equal},
		{"inverted share", a, Not(a, nil), Inverted},
		{"zeros vs ones", New(100), NewFilled(100, ^uint64(0)), Inverted},
		{"zeros vs inverted zeros", New(100), New(100).Not(), Inverted},
		{"both zeros", New(100), New(100), Equal},
		{"both ones", NewFilled(100, ^uint64(0)), New(100).Not(), Equal},
		{"popcount differs", a, New(100), Different},
		{"clone", a, a.Clone(), Unknown},
		{"inverted clone", a, a.Clone().Not(), Different},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FastCompare(tt.a, tt.b)
			if tt.name == "inverted clone" && a.Popcount()*2 == a.Size() {
				// Equal popcounts cannot be told apart without scanning.
				assert.Equal(t, Unknown, got)
				return
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, FastCompare(tt.b, tt.a), "symmetry")
		})
	}
}

func TestComparisonString(t *testing.T) {
	assert.Equal(t, "equal", Equal.String())
	assert.Equal(t, "different", Different.String())
	assert.Equal(t, "inverted", Inverted.String())
	assert.Equal(t, "unknown", Unknown.String())
}

func TestEqual(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for _, size := range testSizes {
		a := Random(size, rng)
		c := a.Clone()
		assert.True(t, a.Equal(c))

		// Same logical value, stored inverted.
		d := New(size).Not()
		for i := 0; i < d.Buckets(); i++ {
			d.SetBucket(i, a.Bucket(i))
		}
		assert.True(t, a.Equal(d), "size=%d", size)
		assert.True(t, d.Equal(a), "size=%d", size)

		if size > 0 {
			c.Flip(size - 1)
			assert.False(t, a.Equal(c))
			assert.False(t, a.Equal(Not(a, nil)))
		}
		assert.False(t, a.Equal(&Bitset{}))
	}
}

func TestIs(t *testing.T) {
	a := New(8)
	s := a.Share()
	assert.True(t, a.Is(s))
	s.Not()
	assert.False(t, a.Is(s))
	assert.False(t, a.Is(a.Clone()))
	assert.False(t, (&Bitset{}).Is(&Bitset{}))
}

func TestWire(t *testing.T) {
	a := NewFilled(70, 0x3)
	out := Wire(a, nil)
	assert.True(t, out.Is(a))

	other := New(3)
	Wire(a, other)
	assert.True(t, other.Is(a))
}

func TestCompare(t *testing.T) {
	mk := func(hex string, size uint64) *Bitset {
		b, err := ParseHex(hex, size)
		if err != nil {
			t.Fatal(err)
		}
		return b
	}

	assert.Equal(t, 0, Compare(mk("f0", 8), mk("f0", 8)))
	assert.Equal(t, -1, Compare(mk("0f", 8), mk("f0", 8)))
	assert.Equal(t, -1, Compare(mk("1", 130), mk("ffffffffffffffff", 130).Not().Not()))
	assert.Equal(t, -1, Compare(mk("ff", 8), mk("0", 9)), "shorter sorts first")
	assert.Equal(t, -1, Compare(&Bitset{}, New(0)))
	assert.Equal(t, 0, Compare(&Bitset{}, &Bitset{}))

	x := mk("10000000000000000", 70)
	y := mk("ffffffffffffffff", 70)
	assert.Equal(t, 1, Compare(x, y))
	assert.Equal(t, -1, Compare(y, x))
}
