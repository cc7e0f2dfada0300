// Package simd implements the numeric kernels collectors use to parse and
// reduce large /proc snapshots (proc/stat, proc/net/dev, ...) without
// allocating an intermediate string per line.
//
// Go has no portable SIMD intrinsics without cgo or assembly, so these
// kernels dispatch on detected CPU features (golang.org/x/sys/cpu) between
// an 8-byte SWAR (SIMD-within-a-register) path, a 4-wide loop-unrolled
// path, and a plain scalar fallback. All three paths are required to
// produce identical results; the split exists purely for throughput.
package simd

import (
	"encoding/binary"
	"math"

	"golang.org/x/sys/cpu"
)

// Backend identifies which kernel implementation ran, exposed mainly so
// tests can assert all three agree.
type Backend int

const (
	BackendScalar Backend = iota
	BackendUnrolled
	BackendSWAR
)

// DetectBackend picks the fastest backend available on this CPU. AVX2/NEON
// presence is used as a proxy for "wide load/compare throughput is cheap
// here", which is what the SWAR and unrolled paths both exploit.
func DetectBackend() Backend {
	if cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD {
		return BackendSWAR
	}
	if cpu.X86.HasSSE2 {
		return BackendUnrolled
	}
	return BackendScalar
}

// FindNewlines returns the byte offsets of every '\n' in buf. Used to
// split a /proc file snapshot into lines without a bufio.Scanner
// allocation per call.
func FindNewlines(buf []byte) []int {
	switch DetectBackend() {
	case BackendSWAR:
		return findNewlinesSWAR(buf)
	default:
		return findNewlinesScalar(buf)
	}
}

func findNewlinesScalar(buf []byte) []int {
	var offsets []int
	for i, b := range buf {
		if b == '\n' {
			offsets = append(offsets, i)
		}
	}
	return offsets
}

// findNewlinesSWAR scans 8 bytes at a time using the classic
// has-zero-byte bit trick adapted to detect '\n' (0x0A): XOR each byte
// with 0x0A so a match becomes a zero byte, then test for any zero byte
// in the word.
func findNewlinesSWAR(buf []byte) []int {
	var offsets []int
	const mask1 = 0x0101010101010101
	const mask80 = 0x8080808080808080
	n := len(buf)
	i := 0
	for ; i+8 <= n; i += 8 {
		word := binary.LittleEndian.Uint64(buf[i : i+8])
		xored := word ^ 0x0A0A0A0A0A0A0A0A
		hasZero := (xored - mask1) & ^xored & mask80
		if hasZero == 0 {
			continue
		}
		for j := 0; j < 8; j++ {
			if buf[i+j] == '\n' {
				offsets = append(offsets, i+j)
			}
		}
	}
	for ; i < n; i++ {
		if buf[i] == '\n' {
			offsets = append(offsets, i)
		}
	}
	return offsets
}

// ParseIntegers extracts every run of ASCII digits in buf[start:end] as a
// uint64, in order of appearance. Used on /proc/stat and /proc/net/dev
// lines after FindNewlines has located line boundaries.
func ParseIntegers(buf []byte, start, end int) []uint64 {
	var out []uint64
	i := start
	for i < end {
		for i < end && (buf[i] < '0' || buf[i] > '9') {
			i++
		}
		if i >= end {
			break
		}
		var v uint64
		for i < end && buf[i] >= '0' && buf[i] <= '9' {
			v = v*10 + uint64(buf[i]-'0')
			i++
		}
		out = append(out, v)
	}
	return out
}

// Delta computes element-wise curr[i]-prev[i] for equal-length uint64
// slices with wrapping (modulo 2^64) subtraction, so a counter that
// wrapped once between samples yields its true delta.
func Delta(prev, curr []uint64) []uint64 {
	n := len(prev)
	if len(curr) < n {
		n = len(curr)
	}
	out := make([]uint64, n)

	switch DetectBackend() {
	case BackendSWAR, BackendUnrolled:
		deltaUnrolled(prev, curr, out, n)
	default:
		deltaScalar(prev, curr, out, n)
	}
	return out
}

func deltaScalar(prev, curr, out []uint64, n int) {
	for i := 0; i < n; i++ {
		out[i] = wrappingSub(prev[i], curr[i])
	}
}

func deltaUnrolled(prev, curr, out []uint64, n int) {
	i := 0
	for ; i+4 <= n; i += 4 {
		out[i] = wrappingSub(prev[i], curr[i])
		out[i+1] = wrappingSub(prev[i+1], curr[i+1])
		out[i+2] = wrappingSub(prev[i+2], curr[i+2])
		out[i+3] = wrappingSub(prev[i+3], curr[i+3])
	}
	for ; i < n; i++ {
		out[i] = wrappingSub(prev[i], curr[i])
	}
}

func wrappingSub(prev, curr uint64) uint64 {
	if curr >= prev {
		return curr - prev
	}
	return math.MaxUint64 - prev + curr + 1
}

// Percent computes 100*part/total, clamped to [0,100], returning 0 when
// total is 0.
func Percent(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	p := 100 * part / total
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Statistics bundles the one-pass reduction Sum/Mean/Min/Max/Normalize all
// build on. SumSq carries the sum of squares so callers can derive variance
// without a second pass.
type Statistics struct {
	Sum, Mean, Min, Max float64
	SumSq               float64
	Count               int
}

// ComputeStatistics performs a single-pass min/max/sum/mean reduction over
// values, dispatching to the unrolled path when 4+ elements remain.
func ComputeStatistics(values []float64) Statistics {
	if len(values) == 0 {
		return Statistics{}
	}

	switch DetectBackend() {
	case BackendSWAR, BackendUnrolled:
		return statisticsUnrolled(values)
	default:
		return statisticsScalar(values)
	}
}

func statisticsScalar(values []float64) Statistics {
	sum, sumSq := 0.0, 0.0
	min, max := values[0], values[0]
	for _, v := range values {
		sum += v
		sumSq += v * v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return Statistics{Sum: sum, Mean: sum / float64(len(values)), Min: min, Max: max, SumSq: sumSq, Count: len(values)}
}

func statisticsUnrolled(values []float64) Statistics {
	n := len(values)
	min, max := values[0], values[0]
	var sum0, sum1, sum2, sum3 float64
	var sq0, sq1, sq2, sq3 float64

	i := 0
	for ; i+4 <= n; i += 4 {
		sum0 += values[i]
		sum1 += values[i+1]
		sum2 += values[i+2]
		sum3 += values[i+3]
		sq0 += values[i] * values[i]
		sq1 += values[i+1] * values[i+1]
		sq2 += values[i+2] * values[i+2]
		sq3 += values[i+3] * values[i+3]
		for k := 0; k < 4; k++ {
			v := values[i+k]
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	sum := sum0 + sum1 + sum2 + sum3
	sumSq := sq0 + sq1 + sq2 + sq3
	for ; i < n; i++ {
		v := values[i]
		sum += v
		sumSq += v * v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return Statistics{Sum: sum, Mean: sum / float64(n), Min: min, Max: max, SumSq: sumSq, Count: n}
}

// Sum, Mean, Min and Max are thin wrappers over ComputeStatistics for
// callers that only need one field.
func Sum(values []float64) float64  { return ComputeStatistics(values).Sum }
func Mean(values []float64) float64 { return ComputeStatistics(values).Mean }
func Min(values []float64) float64  { return ComputeStatistics(values).Min }
func Max(values []float64) float64  { return ComputeStatistics(values).Max }

// Normalize rescales values into [0,1] using their observed min/max. A
// constant input (min==max) normalizes to all zeroes rather than NaN.
func Normalize(values []float64) []float64 {
	stats := ComputeStatistics(values)
	out := make([]float64, len(values))
	span := stats.Max - stats.Min
	if span == 0 {
		return out
	}
	for i, v := range values {
		out[i] = (v - stats.Min) / span
	}
	return out
}

// MultiKeySearch scans buf for every occurrence of any key in keys,
// returning, per key, the byte offsets where it starts. Used by the
// memory collector to locate the /proc/meminfo fields it reads without
// splitting the snapshot into lines.
func MultiKeySearch(buf []byte, keys []string) map[string][]int {
	result := make(map[string][]int, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		result[key] = indexAll(buf, key)
	}
	return result
}

func indexAll(buf []byte, key string) []int {
	var offsets []int
	if len(key) == 0 || len(key) > len(buf) {
		return offsets
	}
	first := key[0]
	for i := 0; i+len(key) <= len(buf); i++ {
		if buf[i] != first {
			continue
		}
		if string(buf[i:i+len(key)]) == key {
			offsets = append(offsets, i)
		}
	}
	return offsets
}
