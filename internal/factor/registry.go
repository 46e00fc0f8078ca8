package factor

import "math"

// Registry lists every factor in execution order. The order is load-bearing:
// later factors see the shared vector and prior scalars left by earlier ones.
var Registry = []Descriptor{
	{Tag: 0xFA010001, Phase: Phase, Name: "epidemic wavefront", Compute: epidemic},
	{Tag: 0xFA010002, Phase: Phase, Name: "spectral radius", Compute: spectral},
	{Tag: 0xFA010003, Phase: Phase, Name: "kalman convergence", Compute: kalman},
	{Tag: 0xFA010004, Phase: Phase, Name: "logistic chaos", Compute: logisticChaos},
	{Tag: 0xFA010005, Phase: Phase, Name: "lorenz excursion", Compute: lorenz},
	{Tag: 0xFA010006, Phase: Phase, Name: "pagerank drift", Compute: pagerank},
	{Tag: 0xFA010007, Phase: Phase, Name: "queue pressure", Compute: queueing},
	{Tag: 0xFA010008, Phase: Phase, Name: "arrhenius rate", Compute: arrhenius},
	{Tag: 0xFA010009, Phase: Phase, Name: "fourier flatness", Compute: fourier},
	{Tag: 0xFA01000A, Phase: Phase, Name: "bayes posterior", Compute: bayes},
	{Tag: 0xFA01000B, Phase: Phase, Name: "entropy drift", Compute: drift},
	{Tag: 0xFA01000C, Phase: Phase, Name: "ising alignment", Compute: ising},
	{Tag: 0xFA01000D, Phase: Phase, Name: "percolation front", Compute: percolation},
	{Tag: 0xFA01000E, Phase: Phase, Name: "montecarlo circle", Compute: montecarlo},
	{Tag: 0xFA01000F, Phase: Phase, Name: "oscillator decay", Compute: oscillator},
	{Tag: 0xFA010010, Phase: Phase, Name: "kepler orbit", Compute: kepler},
	{Tag: 0xFA010011, Phase: Phase, Name: "perceptron fit", Compute: perceptron},
	{Tag: 0xFA010012, Phase: Phase, Name: "genetic ascent", Compute: genetic},
	{Tag: 0xFA010013, Phase: Phase, Name: "heat diffusion", Compute: diffusion},
	{Tag: 0xFA010014, Phase: Phase, Name: "bateman decay", Compute: decay},
}

// epidemic iterates a discrete SIR model; the scalar is the final attack rate.
func epidemic(ctx *Context) Output {
	rng := ctx.RNG
	beta := 0.18 + 0.35*rng.Float64()
	gamma := 0.05 + 0.15*rng.Float64()
	s, i, r := 0.99, 0.01, 0.0
	peak := i
	for step := 0; step < 40; step++ {
		newInf := beta * s * i
		newRec := gamma * i
		s -= newInf
		i += newInf - newRec
		r += newRec
		if i > peak {
			peak = i
		}
	}
	scalar := clamp01(r)
	vals := []float64{beta, gamma, s, i, r, peak, beta / gamma, scalar}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA010001, vals...),
	}
}

// spectral estimates the spectral radius of a small random matrix by power
// iteration and normalizes it against the matrix dimension.
func spectral(ctx *Context) Output {
	rng := ctx.RNG
	const n = 4
	var m [n][n]float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m[i][j] = rng.Range(-1, 1)
		}
	}
	v := [n]float64{1, 1, 1, 1}
	lambda := 0.0
	for iter := 0; iter < 12; iter++ {
		var next [n]float64
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				next[i] += m[i][j] * v[j]
			}
		}
		norm := 0.0
		for _, x := range next {
			norm += x * x
		}
		norm = math.Sqrt(norm)
		if norm < 1e-12 {
			break
		}
		for i := range next {
			next[i] /= norm
		}
		v = next
		lambda = norm
	}
	scalar := clamp01(lambda / n)
	vals := []float64{lambda, v[0], v[1], v[2], v[3], m[0][0], m[3][3], scalar}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA010002, vals...),
	}
}

// kalman runs the scalar Kalman variance recursion to steady state; the
// scalar reflects how much the filter ends up trusting its model.
func kalman(ctx *Context) Output {
	rng := ctx.RNG
	q := 0.005 + 0.02*rng.Float64()
	r := 0.10 + 0.40*rng.Float64()
	p, k := 1.0, 0.0
	for i := 0; i < 25; i++ {
		k = p / (p + r)
		p = (1-k)*p + q
	}
	scalar := clamp01(1 - k)
	vals := []float64{q, r, p, k, p / r, scalar, q * 100, r * 2}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA010003, vals...),
	}
}

// logisticChaos estimates the Lyapunov exponent of a logistic map in the
// chaotic band and maps it into [0,1].
func logisticChaos(ctx *Context) Output {
	rng := ctx.RNG
	r := 3.60 + 0.39*rng.Float64()
	x := 0.1 + 0.8*rng.Float64()
	lyap := 0.0
	const steps = 60
	for i := 0; i < steps; i++ {
		x = r * x * (1 - x)
		d := math.Abs(r * (1 - 2*x))
		if d < 1e-12 {
			d = 1e-12
		}
		lyap += math.Log(d)
	}
	lyap /= steps
	scalar := clamp01(0.5 + lyap/2)
	vals := []float64{r, x, lyap, scalar, r - 3.6, x * r, lyap * lyap, r / 4}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA010004, vals...),
	}
}

// lorenz integrates the Lorenz system briefly and summarizes the excursion.
func lorenz(ctx *Context) Output {
	rng := ctx.RNG
	const (
		sigma = 10.0
		rho   = 28.0
		beta  = 8.0 / 3.0
		dt    = 0.01
	)
	x := rng.Range(-5, 5)
	y := rng.Range(-5, 5)
	z := rng.Range(15, 25)
	maxNorm := 0.0
	for i := 0; i < 200; i++ {
		dx := sigma * (y - x)
		dy := x*(rho-z) - y
		dz := x*y - beta*z
		x += dx * dt
		y += dy * dt
		z += dz * dt
		n := math.Sqrt(x*x + y*y + z*z)
		if n > maxNorm {
			maxNorm = n
		}
	}
	scalar := clamp01(maxNorm / 60)
	vals := []float64{x, y, z, maxNorm, scalar, x + y, z - rho, maxNorm / 60}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA010005, vals...),
	}
}

// pagerank power-iterates rank over a small random graph; the scalar is the
// entropy of the stationary distribution (uniform rank = 1).
func pagerank(ctx *Context) Output {
	rng := ctx.RNG
	const n = 6
	const damping = 0.85
	var out [n][]int
	for i := 0; i < n; i++ {
		a := rng.IntN(n)
		b := rng.IntN(n)
		if a == i {
			a = (a + 1) % n
		}
		if b == i || b == a {
			b = (b + 1) % n
			if b == i {
				b = (b + 1) % n
			}
		}
		out[i] = []int{a, b}
	}
	rank := [n]float64{}
	for i := range rank {
		rank[i] = 1.0 / n
	}
	for iter := 0; iter < 20; iter++ {
		var next [n]float64
		for i := range next {
			next[i] = (1 - damping) / n
		}
		for i := 0; i < n; i++ {
			share := damping * rank[i] / float64(len(out[i]))
			for _, j := range out[i] {
				next[j] += share
			}
		}
		rank = next
	}
	scalar := normalizedEntropy(rank[:])
	vals := []float64{rank[0], rank[1], rank[2], rank[3], rank[4], rank[5], scalar, damping}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA010006, vals...),
	}
}

// queueing evaluates the M/M/1 steady state; light load scores high.
func queueing(ctx *Context) Output {
	rng := ctx.RNG
	lambda := 0.20 + 0.75*rng.Float64()
	mu := 1.0
	rho := lambda / mu
	den := 1 - rho
	if den < 1e-9 {
		den = 1e-9
	}
	queueLen := rho / den
	wait := queueLen / lambda
	scalar := clamp01(1 / (1 + queueLen))
	vals := []float64{lambda, mu, rho, queueLen, wait, scalar, rho * rho, den}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA010007, vals...),
	}
}

// arrhenius estimates a reaction rate constant and scores its log magnitude.
func arrhenius(ctx *Context) Output {
	rng := ctx.RNG
	const gasR = 8.314
	ea := 40000 + 80000*rng.Float64() // J/mol
	temp := 260 + 80*rng.Float64()    // K
	k := math.Exp(-ea / (gasR * temp))
	logK := math.Log10(k)
	scalar := clamp01(1 + logK/25)
	vals := []float64{ea, temp, k, logK, scalar, ea / temp, gasR * temp, -logK}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA010008, vals...),
	}
}

// fourier measures the spectral flatness of a short synthetic signal.
func fourier(ctx *Context) Output {
	rng := ctx.RNG
	const n = 16
	var signal [n]float64
	f1 := 1 + rng.IntN(4)
	f2 := 1 + rng.IntN(7)
	for i := 0; i < n; i++ {
		t := float64(i) / n
		signal[i] = math.Sin(2*math.Pi*float64(f1)*t) +
			0.5*math.Sin(2*math.Pi*float64(f2)*t) +
			0.3*rng.Range(-1, 1)
	}
	var mags [n / 2]float64
	for k := 0; k < n/2; k++ {
		re, im := 0.0, 0.0
		for i := 0; i < n; i++ {
			angle := -2 * math.Pi * float64(k) * float64(i) / n
			re += signal[i] * math.Cos(angle)
			im += signal[i] * math.Sin(angle)
		}
		mags[k] = math.Sqrt(re*re+im*im) + 1e-9
	}
	logSum, sum := 0.0, 0.0
	for _, m := range mags {
		logSum += math.Log(m)
		sum += m
	}
	geo := math.Exp(logSum / float64(len(mags)))
	arith := sum / float64(len(mags))
	scalar := clamp01(geo / arith)
	vals := []float64{mags[0], mags[1], mags[2], mags[3], geo, arith, scalar, float64(f1*8 + f2)}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA010009, vals...),
	}
}

// bayes folds every prior factor scalar into a Beta posterior; the scalar is
// the posterior mean. This is the factor that makes ordering load-bearing.
func bayes(ctx *Context) Output {
	rng := ctx.RNG
	a, b := 1.0, 1.0
	for _, s := range ctx.Prior {
		a += s
		b += 1 - s
	}
	post := a / (a + b)
	variance := a * b / ((a + b) * (a + b) * (a + b + 1))
	scalar := clamp01(post)
	vals := []float64{a, b, post, variance, float64(len(ctx.Prior)), scalar, a - b, a + b}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA01000A, vals...),
	}
}

// drift walks a random path and scores the normalized final displacement.
func drift(ctx *Context) Output {
	rng := ctx.RNG
	const steps = 50
	pos := 0.0
	maxAbs := 0.0
	for i := 0; i < steps; i++ {
		pos += rng.Range(-1, 1)
		if math.Abs(pos) > maxAbs {
			maxAbs = math.Abs(pos)
		}
	}
	norm := pos / math.Sqrt(steps)
	scalar := clamp01(0.5 + norm/4)
	vals := []float64{pos, maxAbs, norm, scalar, pos / steps, maxAbs / steps, norm * norm, float64(steps)}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA01000B, vals...),
	}
}

// ising sweeps a tiny lattice with Metropolis updates; the scalar is the
// absolute magnetization.
func ising(ctx *Context) Output {
	rng := ctx.RNG
	const n = 5
	temp := 1.5 + 2.0*rng.Float64()
	var grid [n][n]int
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if rng.Float64() < 0.5 {
				grid[i][j] = 1
			} else {
				grid[i][j] = -1
			}
		}
	}
	for sweep := 0; sweep < 3; sweep++ {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				sum := grid[(i+1)%n][j] + grid[(i+n-1)%n][j] + grid[i][(j+1)%n] + grid[i][(j+n-1)%n]
				dE := 2 * float64(grid[i][j]*sum)
				if dE <= 0 || rng.Float64() < math.Exp(-dE/temp) {
					grid[i][j] = -grid[i][j]
				}
			}
		}
	}
	mag := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			mag += grid[i][j]
		}
	}
	m := math.Abs(float64(mag)) / (n * n)
	scalar := clamp01(m)
	vals := []float64{temp, float64(mag), m, scalar, temp * m, 1 / temp, float64(n * n), m * m}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA01000C, vals...),
	}
}

// percolation floods a random grid from the top and scores the reach.
func percolation(ctx *Context) Output {
	rng := ctx.RNG
	const n = 8
	p := 0.45 + 0.20*rng.Float64()
	var open [n][n]bool
	openCount := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if rng.Float64() < p {
				open[i][j] = true
				openCount++
			}
		}
	}
	var reached [n][n]bool
	var stack [][2]int
	for j := 0; j < n; j++ {
		if open[0][j] {
			reached[0][j] = true
			stack = append(stack, [2]int{0, j})
		}
	}
	reachCount := len(stack)
	percolates := 0.0
	for len(stack) > 0 {
		cell := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		i, j := cell[0], cell[1]
		if i == n-1 {
			percolates = 1
		}
		for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			ni, nj := i+d[0], j+d[1]
			if ni < 0 || ni >= n || nj < 0 || nj >= n || !open[ni][nj] || reached[ni][nj] {
				continue
			}
			reached[ni][nj] = true
			reachCount++
			stack = append(stack, [2]int{ni, nj})
		}
	}
	scalar := clamp01(float64(reachCount)/(n*n) + 0.25*percolates)
	vals := []float64{p, float64(openCount), float64(reachCount), percolates, scalar,
		float64(openCount) / (n * n), float64(reachCount) / (n * n), p * p}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA01000D, vals...),
	}
}

// montecarlo throws darts at the unit circle and scores the π estimate.
func montecarlo(ctx *Context) Output {
	rng := ctx.RNG
	const darts = 200
	in := 0
	for i := 0; i < darts; i++ {
		x := rng.Range(-1, 1)
		y := rng.Range(-1, 1)
		if x*x+y*y <= 1 {
			in++
		}
	}
	est := 4 * float64(in) / darts
	scalar := clamp01(1 - math.Abs(est-math.Pi)/math.Pi)
	vals := []float64{est, float64(in), scalar, est - math.Pi, float64(darts), est / 4, math.Pi, est * est}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA01000E, vals...),
	}
}

// oscillator scores the residual energy of a damped harmonic oscillator.
func oscillator(ctx *Context) Output {
	rng := ctx.RNG
	zeta := 0.05 + 0.30*rng.Float64()
	omega := 1.0 + 4.0*rng.Float64()
	const horizon = 5.0
	energy := math.Exp(-2 * zeta * omega * horizon)
	halfLife := math.Ln2 / (2 * zeta * omega)
	scalar := clamp01(energy)
	vals := []float64{zeta, omega, energy, halfLife, scalar, zeta * omega, horizon, 1 - energy}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA01000F, vals...),
	}
}

// kepler scores the roundness and tempo of a random orbit.
func kepler(ctx *Context) Output {
	rng := ctx.RNG
	ecc := rng.Float64()
	semi := 1.0 + 3.0*rng.Float64()
	period := 2 * math.Pi * math.Sqrt(semi*semi*semi)
	peri := semi * (1 - ecc)
	apo := semi * (1 + ecc)
	scalar := clamp01(0.7*(1-ecc) + 0.3*(peri/apo))
	vals := []float64{ecc, semi, period, peri, apo, scalar, peri / apo, semi * ecc}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA010010, vals...),
	}
}

// perceptron trains a single neuron on a random linearly separable target
// and scores the final accuracy.
func perceptron(ctx *Context) Output {
	rng := ctx.RNG
	w0, w1, bias := rng.Range(-1, 1), rng.Range(-1, 1), rng.Range(-1, 1)
	tw0, tw1, tb := rng.Range(-1, 1), rng.Range(-1, 1), rng.Range(-0.5, 0.5)
	lr := 0.05 + 0.15*rng.Float64()
	var px, py [12]float64
	var label [12]float64
	for i := range px {
		px[i] = rng.Range(-1, 1)
		py[i] = rng.Range(-1, 1)
		if tw0*px[i]+tw1*py[i]+tb > 0 {
			label[i] = 1
		} else {
			label[i] = -1
		}
	}
	for epoch := 0; epoch < 30; epoch++ {
		for i := range px {
			pred := 1.0
			if w0*px[i]+w1*py[i]+bias <= 0 {
				pred = -1
			}
			if pred != label[i] {
				w0 += lr * label[i] * px[i]
				w1 += lr * label[i] * py[i]
				bias += lr * label[i]
			}
		}
	}
	correct := 0
	for i := range px {
		pred := 1.0
		if w0*px[i]+w1*py[i]+bias <= 0 {
			pred = -1
		}
		if pred == label[i] {
			correct++
		}
	}
	scalar := clamp01(float64(correct) / float64(len(px)))
	vals := []float64{w0, w1, bias, lr, float64(correct), scalar, tw0, tw1}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA010011, vals...),
	}
}

// genetic hill-climbs a tiny population toward the golden ratio target.
func genetic(ctx *Context) Output {
	rng := ctx.RNG
	const target = 0.6180339887
	var pop [8]float64
	for i := range pop {
		pop[i] = rng.Float64()
	}
	fitness := func(x float64) float64 { return 1 - math.Abs(x-target) }
	best := 0.0
	for gen := 0; gen < 6; gen++ {
		var idx [8]int
		for i := range idx {
			idx[i] = i
		}
		// Selection: keep the better half, refill by mutated copies.
		for i := 0; i < len(pop); i++ {
			for j := i + 1; j < len(pop); j++ {
				if fitness(pop[idx[j]]) > fitness(pop[idx[i]]) {
					idx[i], idx[j] = idx[j], idx[i]
				}
			}
		}
		var next [8]float64
		for i := 0; i < 4; i++ {
			next[i] = pop[idx[i]]
			next[i+4] = clamp01(pop[idx[i]] + rng.Range(-0.1, 0.1))
		}
		pop = next
		if f := fitness(pop[0]); f > best {
			best = f
		}
	}
	scalar := clamp01(best)
	vals := []float64{pop[0], pop[1], pop[2], pop[3], best, scalar, target, pop[0] - target}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA010012, vals...),
	}
}

// diffusion relaxes a one-hot temperature rod and scores how far the spike
// has spread.
func diffusion(ctx *Context) Output {
	rng := ctx.RNG
	const cells = 10
	alpha := 0.10 + 0.20*rng.Float64()
	var rod [cells]float64
	hot := rng.IntN(cells)
	rod[hot] = 1.0
	for step := 0; step < 30; step++ {
		var next [cells]float64
		for i := 0; i < cells; i++ {
			left, right := rod[max(i-1, 0)], rod[min(i+1, cells-1)]
			next[i] = rod[i] + alpha*(left+right-2*rod[i])
		}
		rod = next
	}
	maxTemp := 0.0
	for _, v := range rod {
		if v > maxTemp {
			maxTemp = v
		}
	}
	scalar := clamp01(1 - maxTemp)
	vals := []float64{alpha, float64(hot), maxTemp, scalar, rod[0], rod[cells-1], rod[cells/2], alpha * 30}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA010013, vals...),
	}
}

// decay evaluates a two-step Bateman decay chain at a random time.
func decay(ctx *Context) Output {
	rng := ctx.RNG
	l1 := 0.2 + 0.8*rng.Float64()
	l2 := 0.2 + 0.8*rng.Float64()
	if math.Abs(l1-l2) < 1e-6 {
		l2 += 1e-3
	}
	t := rng.Range(0.5, 5)
	n1 := math.Exp(-l1 * t)
	n2 := l1 / (l2 - l1) * (math.Exp(-l1*t) - math.Exp(-l2*t))
	scalar := clamp01(math.Abs(n2) * 3)
	vals := []float64{l1, l2, t, n1, n2, scalar, l1 * t, l2 * t}
	return Output{
		Scalar:      scalar,
		Vector:      candidate(rng, vals),
		Fingerprint: fingerprint8(vals),
		Signature:   signature(0xFA010014, vals...),
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
