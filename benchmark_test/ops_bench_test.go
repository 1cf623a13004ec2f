package benchmark_test

import (
	"fmt"
	"testing"

	"github.com/hupe1980/truthbits/bitset"
	"github.com/hupe1980/truthbits/testutil"
)

var benchSizes = []uint64{1 << 10, 1 << 16, 1 << 20}

func BenchmarkAnd(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(fmt.Sprintf("bits=%d", size), func(b *testing.B) {
			rng := testutil.NewRNG(1)
			x, y := rng.Bitset(size), rng.Bitset(size)
			out := bitset.New(size)
			b.SetBytes(int64(size / 8))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				bitset.And(x, y, out)
			}
		})
	}
}

// BenchmarkAnd_BitsAndBlooms is the same operation on bits-and-blooms/bitset.
func BenchmarkAnd_BitsAndBlooms(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(fmt.Sprintf("bits=%d", size), func(b *testing.B) {
			rng := testutil.NewRNG(1)
			x, y := rng.Bitset(size).ToBitSet(), rng.Bitset(size).ToBitSet()
			b.SetBytes(int64(size / 8))
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				out := x.Clone()
				out.InPlaceIntersection(y)
			}
		})
	}
}

func BenchmarkMaj(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(fmt.Sprintf("bits=%d", size), func(b *testing.B) {
			rng := testutil.NewRNG(2)
			xs := rng.Bitsets(3, size)
			out := bitset.New(size)
			b.SetBytes(int64(size / 8))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				bitset.Maj(xs[0], xs[1], xs[2], out)
			}
		})
	}
}

// BenchmarkMaj_Inverted measures the cost of negated operands, which fold
// into the kernel instead of materializing a complement.
func BenchmarkMaj_Inverted(b *testing.B) {
	size := uint64(1 << 16)
	rng := testutil.NewRNG(3)
	xs := rng.Bitsets(3, size)
	na := xs[0].Clone().Not()
	out := bitset.New(size)
	b.SetBytes(int64(size / 8))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bitset.Maj(na, xs[1], xs[2], out)
	}
}

func BenchmarkMajCount(b *testing.B) {
	size := uint64(1 << 16)
	rng := testutil.NewRNG(4)
	xs := rng.Bitsets(3, size)
	b.SetBytes(int64(size / 8))
	b.ResetTimer()
	var sink uint64
	for i := 0; i < b.N; i++ {
		sink += bitset.MajCount(xs[0], xs[1], xs[2])
	}
	_ = sink
}

func BenchmarkShareClone(b *testing.B) {
	x := testutil.NewRNG(5).Bitset(1 << 16)

	b.Run("share", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			x.Share().Release()
		}
	})
	b.Run("clone", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			x.Clone().Release()
		}
	})
}
