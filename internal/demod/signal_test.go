package demod

import (
	"bytes"
	"encoding/binary"
)

// pulseAmplitude is the amplitude of the synthetic carrier, in sample units.
const pulseAmplitude = 1000

// placement puts frame at tick start of a synthetic signal.
type placement struct {
	frame []byte
	start int
}

// pulseTicks returns the ticks of the preamble and bit pulses of frame
// starting at tick start.
func pulseTicks(frame []byte, start int) []int {
	ticks := []int{start, start + 10, start + 35, start + 45}
	for i := 0; i < len(frame)*8; i++ {
		bit := frame[i/8] >> uint(7-i%8) & 1
		if bit == 1 {
			ticks = append(ticks, start+80+10*i)
		} else {
			ticks = append(ticks, start+85+10*i)
		}
	}
	return ticks
}

// synthesize returns the signed samples of a signal lasting ticks power
// ticks, carrying the given frames as 0.5 µs pulses.
func synthesize(ticks int, placements ...placement) []int16 {
	carrier := [4]int16{pulseAmplitude, 0, -pulseAmplitude, 0}
	samples := make([]int16, 2*ticks)
	for _, p := range placements {
		for _, t := range pulseTicks(p.frame, p.start) {
			for k := 2*t + 1; k < 2*t+10 && k < len(samples); k++ {
				samples[k] = carrier[k&3]
			}
		}
	}
	return samples
}

// encodeSamples packs signed samples the way the receiver delivers them.
func encodeSamples(samples []int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int(s)+Bias))
	}
	return out
}

func sampleReader(samples []int16) *bytes.Reader {
	return bytes.NewReader(encodeSamples(samples))
}

// referencePowers computes the power values of samples directly from their
// definition.
func referencePowers(samples []int16) []uint32 {
	s := append(make([]int32, 6), make([]int32, len(samples))...)
	for i, v := range samples {
		s[6+i] = int32(v)
	}
	out := make([]uint32, 0, len(samples)/2)
	for n := 6; n+1 < len(s); n += 2 {
		a := s[n-6] - s[n-4] + s[n-2] - s[n]
		b := s[n-5] - s[n-3] + s[n-1] - s[n+1]
		out = append(out, uint32(a*a+b*b))
	}
	return out
}
