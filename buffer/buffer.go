package buffer

import (
	"math"
	"sync"
)

type Average float64
type Minimum float64
type Maximum float64
type Sum float64
type Size int
type Position int

// SampleBuffer is a fixed length history of float readings. The first value
// written fills the whole buffer so averages are usable straight away.
type SampleBuffer struct {
	position int
	size     int
	data     []float64
	lock     sync.Mutex
	first    bool
}

func NewBuffer(size int) *SampleBuffer {
	if size < 1 {
		size = 1
	}
	return &SampleBuffer{
		first: true,
		size:  size,
		data:  make([]float64, size),
	}
}

func (b *SampleBuffer) AddItem(val float64) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.first {
		for i := range b.data {
			b.data[i] = val
		}
		b.first = false
	}
	b.data[b.position] = val
	b.position = b.wrap(b.position + 1)
}

func (b *SampleBuffer) GetAverageMinMaxSum() (Average, Minimum, Maximum, Sum) {
	b.lock.Lock()
	defer b.lock.Unlock()
	sum, min, max := b.sumMinMax(b.position, b.size)
	return Average(float64(sum) / float64(b.size)), min, max, sum
}

// SumMinMaxLast covers the most recent numberOfItems values.
func (b *SampleBuffer) SumMinMaxLast(numberOfItems int) (Sum, Minimum, Maximum) {
	b.lock.Lock()
	defer b.lock.Unlock()
	n := b.clampCount(numberOfItems)
	return b.sumMinMax(b.wrap(b.position-n+b.size), n)
}

func (b *SampleBuffer) AverageLast(numberOfItems int) Average {
	b.lock.Lock()
	defer b.lock.Unlock()
	n := b.clampCount(numberOfItems)
	sum, _, _ := b.sumMinMax(b.wrap(b.position-n+b.size), n)
	return Average(float64(sum) / float64(n))
}

// MaxRollingAverage returns the largest mean of any window of the given
// length, e.g. the gust as the maximum 3 second average.
func (b *SampleBuffer) MaxRollingAverage(window int) Average {
	b.lock.Lock()
	defer b.lock.Unlock()
	n := b.clampCount(window)
	best := -math.MaxFloat64
	for start := 0; start < b.size; start++ {
		sum, _, _ := b.sumMinMax(start, n)
		if avg := float64(sum) / float64(n); avg > best {
			best = avg
		}
	}
	return Average(best)
}

func (b *SampleBuffer) GetRawData() ([]float64, Size, Position) {
	b.lock.Lock()
	defer b.lock.Unlock()
	data := make([]float64, b.size)
	copy(data, b.data)
	return data, Size(b.size), Position(b.position)
}

func (b *SampleBuffer) GetSize() int {
	return b.size
}

func (b *SampleBuffer) GetLast() float64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.data[b.wrap(b.position-1+b.size)]
}

func (b *SampleBuffer) sumMinMax(index, count int) (Sum, Minimum, Maximum) {
	min := math.MaxFloat64
	max := -math.MaxFloat64
	sum := 0.0
	for ; count > 0; count-- {
		x := b.data[index]
		sum += x
		if x > max {
			max = x
		}
		if x < min {
			min = x
		}
		index = b.wrap(index + 1)
	}
	return Sum(sum), Minimum(min), Maximum(max)
}

func (b *SampleBuffer) clampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > b.size {
		return b.size
	}
	return n
}

func (b *SampleBuffer) wrap(i int) int {
	return i % b.size
}
