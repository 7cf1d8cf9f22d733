// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package urltest

import "math"

// Field identifies one of the seven timing measurements tracked per request.
type Field int

const (
	FieldDNS Field = iota
	FieldTCPConnect
	FieldTLSHandshake
	FieldPreTransfer
	FieldFirstResponseByte
	FieldTotalTime
	FieldContentBytes
	fieldMax
)

var fieldLabels = [...]string{
	FieldDNS:               "dns lookup/ms",
	FieldTCPConnect:        "tcp connect/ms",
	FieldTLSHandshake:      "tls handshake/ms",
	FieldPreTransfer:       "request sent/ms",
	FieldFirstResponseByte: "response start/ms",
	FieldTotalTime:         "total time/ms",
	FieldContentBytes:      "content/bytes",
}

// String returns the human-readable label for the field.
func (f Field) String() string { return fieldLabels[f] }

// Bucket identifies a status-class aggregation bucket.
type Bucket int

const (
	BucketAll Bucket = iota
	Bucket2XX
	Bucket3XX
	Bucket4XX
	Bucket5XX
	bucketMax
)

var bucketLabels = [...]string{
	BucketAll: "All requests",
	Bucket2XX: "2XX",
	Bucket3XX: "3XX",
	Bucket4XX: "4XX",
	Bucket5XX: "5XX",
}

// String returns the human-readable label for the bucket.
func (b Bucket) String() string { return bucketLabels[b] }

// bucketForStatus maps an HTTP status code to its bucket, or bucketMax if the
// status is out of the [200,600) range this tool understands.
func bucketForStatus(status int) Bucket {
	if status >= 200 && status < 600 {
		return Bucket2XX + Bucket(status/100-2)
	}
	return bucketMax
}

// Timings holds the seven raw per-request measurements, all in seconds
// except ContentBytes, exactly as they would be read off a transport's
// low-level trace hooks.
type Timings struct {
	DNS               float64
	TCPConnect        float64
	TLSHandshake      float64
	PreTransfer       float64
	FirstResponseByte float64
	TotalTime         float64
	ContentBytes      float64
}

func (t Timings) asRecord() [fieldMax]float64 {
	return [fieldMax]float64{
		FieldDNS:               t.DNS * 1000,
		FieldTCPConnect:        t.TCPConnect * 1000,
		FieldTLSHandshake:      t.TLSHandshake * 1000,
		FieldPreTransfer:       t.PreTransfer * 1000,
		FieldFirstResponseByte: t.FirstResponseByte * 1000,
		FieldTotalTime:         t.TotalTime * 1000,
		FieldContentBytes:      t.ContentBytes,
	}
}

// Snapshot is a read-only view of one (bucket, field) accumulator.
type Snapshot struct {
	Count    uint64
	Min      float64
	Max      float64
	Mean     float64
	Variance float64
	StdDev   float64
}

// Stats accumulates online min/max/mean/variance per timing field, bucketed
// by HTTP response class. The zero value is not usable; use NewStats.
type Stats struct {
	count [bucketMax]uint64
	min   [bucketMax][fieldMax]float64
	max   [bucketMax][fieldMax]float64
	mean  [bucketMax][fieldMax]float64
	sumSq [bucketMax][fieldMax]float64
}

// NewStats returns a freshly reset accumulator.
func NewStats() *Stats {
	s := &Stats{}
	s.Reset()
	return s
}

// Reset zeroes all counts and resets every min to +Inf, per spec.
func (s *Stats) Reset() {
	for b := Bucket(0); b < bucketMax; b++ {
		s.count[b] = 0
		for f := Field(0); f < fieldMax; f++ {
			s.min[b][f] = math.Inf(1)
			s.max[b][f] = 0
			s.mean[b][f] = 0
			s.sumSq[b][f] = 0
		}
	}
}

// Update folds one request's timings and HTTP status into the accumulator.
// It updates both the bucketAll accumulator and the status-specific bucket.
// It returns false (and updates nothing) when status is outside [200,600).
func (s *Stats) Update(t Timings, httpStatus int) bool {
	bucket := bucketForStatus(httpStatus)
	if bucket == bucketMax {
		return false
	}
	record := t.asRecord()
	s.fold(BucketAll, record)
	s.fold(bucket, record)
	return true
}

// fold applies Welford's online recurrence to one bucket's accumulators.
// Count is incremented first, then the recurrence runs using the new count
// — this is the order spec.md's Open Question locks as mathematically
// correct.
func (s *Stats) fold(b Bucket, record [fieldMax]float64) {
	s.count[b]++
	n := float64(s.count[b])
	for f := Field(0); f < fieldMax; f++ {
		v := record[f]
		if v < s.min[b][f] {
			s.min[b][f] = v
		}
		if v > s.max[b][f] {
			s.max[b][f] = v
		}
		prevMean := s.mean[b][f]
		s.mean[b][f] += (v - prevMean) / n
		s.sumSq[b][f] += (v - prevMean) * (v - s.mean[b][f])
	}
}

// Snapshot returns the current values for one (bucket, field) pair. When
// count is zero every field of the result is zero, per spec.
func (s *Stats) Snapshot(b Bucket, f Field) Snapshot {
	count := s.count[b]
	if count == 0 {
		return Snapshot{}
	}
	out := Snapshot{
		Count: count,
		Min:   s.min[b][f],
		Max:   s.max[b][f],
		Mean:  s.mean[b][f],
	}
	if count >= 2 {
		out.Variance = s.sumSq[b][f] / float64(count-1)
		out.StdDev = math.Sqrt(out.Variance)
	}
	return out
}

// Count returns the number of samples recorded in bucket b (bucketAll
// included), independent of field.
func (s *Stats) Count(b Bucket) uint64 { return s.count[b] }

// Merge folds other's accumulated samples into s, as if every sample other
// ever saw had been folded into s directly. Used to roll an entire entity
// forest's per-entity accumulators up into one combined report (see
// statsformat.go). Uses Chan et al.'s parallel-variance combination rather
// than replaying samples, since only the aggregates are retained.
func (s *Stats) Merge(other *Stats) {
	if other == nil {
		return
	}
	for b := Bucket(0); b < bucketMax; b++ {
		na := s.count[b]
		nb := other.count[b]
		if nb == 0 {
			continue
		}
		if na == 0 {
			s.count[b] = nb
			s.min[b] = other.min[b]
			s.max[b] = other.max[b]
			s.mean[b] = other.mean[b]
			s.sumSq[b] = other.sumSq[b]
			continue
		}
		n := na + nb
		fna, fnb, fn := float64(na), float64(nb), float64(n)
		for f := Field(0); f < fieldMax; f++ {
			if other.min[b][f] < s.min[b][f] {
				s.min[b][f] = other.min[b][f]
			}
			if other.max[b][f] > s.max[b][f] {
				s.max[b][f] = other.max[b][f]
			}
			delta := other.mean[b][f] - s.mean[b][f]
			s.sumSq[b][f] = s.sumSq[b][f] + other.sumSq[b][f] + delta*delta*fna*fnb/fn
			s.mean[b][f] = s.mean[b][f] + delta*fnb/fn
		}
		s.count[b] = n
	}
}
