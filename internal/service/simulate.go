package service

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Simulator produces synthetic device metrics for devices without a real
// management protocol. It is safe for concurrent use.
type Simulator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulator creates a simulator. A zero seed draws one from the clock.
func NewSimulator(seed uint64) *Simulator {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Simulator{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NETCONF returns a CPU value in [50,60) and a memory value in [30,40)
func (s *Simulator) NETCONF() (cpu, mem float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 50 + s.rnd.Float64()*10, 30 + s.rnd.Float64()*10
}

// Status returns CPU and memory values in [0,100) for on-demand polling
func (s *Simulator) Status() (cpu, mem float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64() * 100, s.rnd.Float64() * 100
}
