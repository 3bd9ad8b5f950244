// Package randsrc provides the single seedable randomness source of a
// simulation run. All probabilistic draws come from sub-streams derived
// deterministically from (seed, key, date), so per-day agent evaluation can
// run on any number of workers without changing results.
package randsrc

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"time"
)

// Source derives deterministic sub-streams from a fixed seed. The zero
// value is usable and behaves like New(0).
type Source struct {
	seed uint64
}

// New constructs a Source for the given seed.
func New(seed uint64) *Source {
	return &Source{seed: seed}
}

// Seed returns the seed this source was built from.
func (s *Source) Seed() uint64 {
	return s.seed
}

// Agent returns the sub-stream for one customer on one simulated day.
// The stream depends only on (seed, customer id, calendar day); evaluation
// order and worker count never influence it. PCG provides unbounded draws,
// so a stream cannot be exhausted mid-run.
func (s *Source) Agent(customerID int64, date time.Time) *rand.Rand {
	h := fnv.New64a()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(customerID))
	h.Write(buf[:])
	writeDay(h, date)
	return rand.New(rand.NewPCG(s.seed, h.Sum64()))
}

// Stream returns a labelled sub-stream for scheduler-level draws (raffle
// winner selection) that must not perturb any agent stream.
func (s *Source) Stream(label string, date time.Time) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(label))
	writeDay(h, date)
	return rand.New(rand.NewPCG(s.seed, h.Sum64()))
}

func writeDay(h interface{ Write([]byte) (int, error) }, date time.Time) {
	y, m, d := date.UTC().Date()
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[:4], uint32(y))
	buf[4] = byte(m)
	buf[5] = byte(d)
	h.Write(buf[:6])
}
