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

var _ = Describe("Grid", func() {
	var p = testParams(4096, dynamo.Position)

	toPositions := func(phases []float64) []float64 {
		pos := make([]float64, len(phases))
		for i, th := range phases {
			pos[i] = th / p.K
		}
		return pos
	}

	It("rejects a non-positive grid size", func() {
		for _, ng := range []int{0, -16} {
			_, err := field.NewGrid(p, ng)
			Expect(errors.Is(err, dynamo.ErrDomain)).To(BeTrue())
		}
	})

	Describe("Wavenumbers", func() {
		It("follows the standard frequency ordering", func() {
			k := field.Wavenumbers(4, 0.25)
			Expect(k).To(Equal([]float64{0, 2 * math.Pi, -4 * math.Pi, -2 * math.Pi}))

			k = field.Wavenumbers(5, 0.2)
			Expect(k).To(Equal([]float64{0, 2 * math.Pi, 4 * math.Pi, -4 * math.Pi, -2 * math.Pi}))
		})
	})

	Describe("Bin", func() {
		It("keeps every index inside the grid", func() {
			g, _ := field.NewGrid(p, 64)
			Expect(g.Bin(math.Nextafter(p.Wavelength, 0))).To(Equal(63))
			Expect(g.Bin(p.Wavelength)).To(Equal(0))
			Expect(g.Bin(-1e-30)).To(BeNumerically(">=", 0))
			Expect(g.Bin(-1e-30)).To(BeNumerically("<", 64))
			Expect(g.Bin(0)).To(Equal(0))
		})

		It("is periodic in the wavelength", func() {
			g, _ := field.NewGrid(p, 64)
			for _, c := range g.Centers() {
				Expect(g.Bin(c + p.Wavelength)).To(Equal(g.Bin(c)))
				Expect(g.Bin(c - 3*p.Wavelength)).To(Equal(g.Bin(c)))
			}
		})
	})

	Describe("Spectrum", func() {
		It("never carries a DC field component", func() {
			g, _ := field.NewGrid(p, 64)
			rng := rand.New(rand.NewSource(3))
			pos := make([]float64, 4096)
			for i := range pos {
				pos[i] = rng.Float64() * p.Wavelength
			}
			spec := g.Spectrum(g.Deposit(pos))
			Expect(spec[0]).To(Equal(complex(0, 0)))
			Expect(spec[32]).To(Equal(complex(0, 0)))
		})
	})

	Describe("Deposit", func() {
		It("conserves the total charge of one period", func() {
			g, _ := field.NewGrid(p, 64)
			rho := g.Deposit(toPositions(cosineBunched(4096, 0.5)))
			total := 0.0
			for _, v := range rho {
				total += v * g.Spacing() * p.Area
			}
			Expect(total).To(BeNumerically("~", p.MacroCharge*4096, 1e-9*math.Abs(p.MacroCharge*4096)))
		})

		It("produces the same histogram in parallel", func() {
			serial, _ := field.NewGrid(p, 64)
			parallel, _ := field.NewGrid(p, 64, field.WithParallel(true), field.WithMinChunk(512))
			pos := toPositions(cosineBunched(4096, 0.5))
			Expect(parallel.Deposit(pos)).To(Equal(serial.Deposit(pos)))
		})
	})

	Describe("Solve", func() {
		It("gives zero field for a uniform beam", func() {
			g, _ := field.NewGrid(p, 64)
			out := make([]float64, 4096)
			Expect(g.Solve(toPositions(quietPhases(4096)), out)).To(Succeed())

			bunched := make([]float64, 4096)
			Expect(g.Solve(toPositions(cosineBunched(4096, 0.2)), bunched)).To(Succeed())
			Expect(maxAbs(out)).To(BeNumerically("<", 1e-9*maxAbs(bunched)))
		})

		It("returns the same sample one period apart", func() {
			g, _ := field.NewGrid(p, 64, field.WithInterpolation(field.Nearest))
			pos := toPositions(cosineBunched(4096, 0.3))
			shifted := make([]float64, len(pos))
			for i := range pos {
				shifted[i] = pos[i] + p.Wavelength
			}

			a := make([]float64, len(pos))
			b := make([]float64, len(pos))
			Expect(g.Solve(pos, a)).To(Succeed())
			Expect(g.Solve(shifted, b)).To(Succeed())
			for i := range pos {
				if g.Bin(pos[i]) == g.Bin(shifted[i]) {
					Expect(b[i]).To(Equal(a[i]))
				}
			}
		})

		It("agrees with the harmonic solver on a cosine-modulated beam", func() {
			phases := cosineBunched(8192, 0.2)
			pp := testParams(8192, dynamo.Position)
			hp := testParams(8192, dynamo.Phase)

			g, _ := field.NewGrid(pp, 128)
			h, _ := field.NewHarmonic(hp, 8)

			pos := make([]float64, len(phases))
			for i, th := range phases {
				pos[i] = th / pp.K
			}

			eg := make([]float64, len(pos))
			eh := make([]float64, len(pos))
			Expect(g.Solve(pos, eg)).To(Succeed())
			Expect(h.Solve(phases, eh)).To(Succeed())

			peak := maxAbs(eh)
			Expect(peak).To(BeNumerically(">", 0))
			for i := range eg {
				Expect(eg[i]).To(BeNumerically("~", eh[i], 0.05*peak))
			}
		})

		It("interpolates linearly across the period boundary", func() {
			g, _ := field.NewGrid(p, 4)
			values := []float64{1, 2, 3, 5}
			out := make([]float64, 2)
			ds := g.Spacing()
			g.Interpolate(values, []float64{0, 4 * ds}, out)
			Expect(out[0]).To(BeNumerically("~", 3, 1e-12))
			Expect(out[1]).To(BeNumerically("~", 3, 1e-12))
		})
	})

	It("rejects unknown interpolation names", func() {
		_, err := field.ParseInterpolation("spline")
		Expect(errors.Is(err, dynamo.ErrDomain)).To(BeTrue())
		i, err := field.ParseInterpolation("nearest")
		Expect(err).NotTo(HaveOccurred())
		Expect(i).To(Equal(field.Nearest))
	})
})
