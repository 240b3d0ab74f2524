package field_test

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/lscsim/internal/dynamo"
	"github.com/san-kum/lscsim/internal/field"
)

var _ = Describe("Harmonic", func() {
	It("rejects a non-positive harmonic count", func() {
		p := testParams(16, dynamo.Phase)
		for _, nh := range []int{0, -3} {
			_, err := field.NewHarmonic(p, nh)
			Expect(errors.Is(err, dynamo.ErrDomain)).To(BeTrue())
		}
	})

	Describe("BunchingSpectrum", func() {
		It("vanishes for a uniform distribution", func() {
			b := field.BunchingSpectrum(quietPhases(1000), 10)
			Expect(b).To(HaveLen(10))
			for _, bn := range b {
				Expect(bn).To(BeNumerically("~", 0, 1e-12))
			}
		})

		It("is zero at first order for four particles at quarter periods", func() {
			phases := []float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2}
			b := field.BunchingSpectrum(phases, 1)
			Expect(b[0]).To(BeNumerically("~", 0, 1e-15))
		})

		It("is one at every order for a single point", func() {
			b := field.BunchingSpectrum([]float64{0, 0, 0}, 4)
			for _, bn := range b {
				Expect(bn).To(Equal(1.0))
			}
		})

		It("keeps the lower harmonics when more are requested", func() {
			rng := rand.New(rand.NewSource(7))
			phases := make([]float64, 500)
			for i := range phases {
				phases[i] = rng.Float64() * 2 * math.Pi
			}
			low := field.BunchingSpectrum(phases, 3)
			high := field.BunchingSpectrum(phases, 8)
			Expect(high[:3]).To(Equal(low))
		})

		It("recovers the modulation depth of a cosine density", func() {
			b := field.BunchingSpectrum(cosineBunched(8192, 0.1), 2)
			Expect(b[0]).To(BeNumerically("~", -0.05, 1e-3))
		})
	})

	Describe("Synthesize", func() {
		It("skips zero coefficients", func() {
			out := make([]float64, 3)
			field.Synthesize([]float64{0.1, 1, 2}, []float64{0, 0, 0}, 1e5, out)
			Expect(out).To(Equal([]float64{0, 0, 0}))
		})

		It("divides each coefficient by its order", func() {
			out := make([]float64, 1)
			th := math.Pi / 6
			field.Synthesize([]float64{th}, []float64{0, 0.5}, 2, out)
			Expect(out[0]).To(BeNumerically("~", -2*0.25*math.Sin(2*th), 1e-15))
		})
	})

	Describe("Solve", func() {
		It("gives zero field for a uniform beam", func() {
			p := testParams(1000, dynamo.Phase)
			h, err := field.NewHarmonic(p, 10)
			Expect(err).NotTo(HaveOccurred())

			out := make([]float64, 1000)
			Expect(h.Solve(quietPhases(1000), out)).To(Succeed())
			Expect(maxAbs(out)).To(BeNumerically("<", 1e-6))
		})

		It("is repeatable and does not modify positions", func() {
			p := testParams(2000, dynamo.Phase)
			h, _ := field.NewHarmonic(p, 6)
			pos := cosineBunched(2000, 0.3)
			for i := range pos {
				pos[i] += 4 * math.Pi
			}
			before := append([]float64(nil), pos...)

			a := make([]float64, len(pos))
			b := make([]float64, len(pos))
			Expect(h.Solve(pos, a)).To(Succeed())
			Expect(h.Solve(pos, b)).To(Succeed())
			Expect(a).To(Equal(b))
			Expect(pos).To(Equal(before))
		})

		It("matches the serial result when run in parallel", func() {
			p := testParams(10000, dynamo.Phase)
			serial, _ := field.NewHarmonic(p, 5)
			parallel, _ := field.NewHarmonic(p, 5, field.WithParallel(true), field.WithMinChunk(1000))
			pos := cosineBunched(10000, 0.4)

			a := make([]float64, len(pos))
			b := make([]float64, len(pos))
			Expect(serial.Solve(pos, a)).To(Succeed())
			Expect(parallel.Solve(pos, b)).To(Succeed())

			scale := maxAbs(a)
			for i := range a {
				Expect(b[i]).To(BeNumerically("~", a[i], 1e-9*scale))
			}
		})

		It("rejects mismatched buffers", func() {
			p := testParams(4, dynamo.Phase)
			h, _ := field.NewHarmonic(p, 1)
			err := h.Solve(make([]float64, 4), make([]float64, 3))
			Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
		})
	})
})
