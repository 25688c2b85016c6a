package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"andy.dev/hedge"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	maxSeconds = 4

	totalSamples = 200_000
	slotsPerSec  = 20
	totalSlots   = maxSeconds * slotsPerSec
	maxAttempts  = 3
	guardBand    = 0.01

	// share of calls landing in the slow mode, and of calls failing
	slowShare = 0.08
	failShare = 0.05

	// real runs are scaled down from seconds to milliseconds
	verifyRuns = 300
)

var (
	fast = distuv.LogNormal{Mu: math.Log(0.25), Sigma: 0.4}
	slow = distuv.LogNormal{Mu: math.Log(2.0), Sigma: 0.35}
	mode = distuv.Bernoulli{P: slowShare}
	fail = distuv.Bernoulli{P: failShare}
)

type (
	// call draws the latency of one attempt and whether it succeeded.
	call       func() (float64, bool)
	hedgeGraph struct {
		short    string
		name     string
		interval float64 // seconds, 0 disables hedging
	}
	completion struct {
		at, started float64
		seq         int
		ok          bool
	}
	outcome struct {
		latency float64
		winner  int
		ok      bool
	}
)

func drawCall() (float64, bool) {
	lat := fast.Rand()
	if mode.Rand() == 1 {
		lat = slow.Rand()
	}
	return lat, fail.Rand() == 0
}

// simulate replays the scheduling rules of a run in virtual time.
func simulate(c call, interval float64) outcome {
	var (
		inflight []completion
		launched int
		nextAt   = math.Inf(1)
	)
	limit := maxAttempts
	if interval == 0 {
		limit = 1
	}
	launch := func(at float64) {
		lat, ok := c()
		inflight = append(inflight, completion{at: at + lat, started: at, seq: launched, ok: ok})
		launched++
		nextAt = math.Inf(1)
		if launched < limit {
			nextAt = at + interval
		}
	}

	launch(0)
	for {
		i := earliest(inflight)
		if i < 0 || nextAt < inflight[i].at {
			launch(nextAt)
			continue
		}
		d := inflight[i]
		inflight = slices.Delete(inflight, i, i+1)
		switch {
		case d.ok:
			return outcome{latency: d.at, winner: d.seq, ok: true}
		case d.seq == limit-1:
			return outcome{latency: d.at, winner: d.seq}
		case !math.IsInf(nextAt, 1) && d.at-d.started+guardBand >= interval:
			launch(d.at)
		}
	}
}

func earliest(cs []completion) int {
	idx := -1
	for i, c := range cs {
		if idx < 0 || c.at < cs[idx].at {
			idx = i
		}
	}
	return idx
}

func main() {
	log.SetFlags(log.Lshortfile)

	median := fast.Quantile(0.5)
	p90 := fast.Quantile(0.9)
	gs := []hedgeGraph{
		{short: "none", name: "No hedging"},
		{short: "p90", name: fmt.Sprintf("Hedge after %s (fast p90)", secs(p90)), interval: p90},
		{short: "x2", name: fmt.Sprintf("Hedge after %s (2x fast median)", secs(2*median)), interval: 2 * median},
		{short: "1s", name: "Hedge after 1s", interval: 1},
	}

	results := make([][]outcome, len(gs))
	for gi, g := range gs {
		results[gi] = make([]outcome, totalSamples)
		for i := range results[gi] {
			results[gi][i] = simulate(drawCall, g.interval)
		}
		summarize(g, results[gi])
	}

	makeLines(gs, results)
	makeHistograms(gs, results)

	for _, g := range gs[1:] {
		if err := verify(g); err != nil {
			log.Fatal(err)
		}
	}
}

func summarize(g hedgeGraph, res []outcome) {
	lats := make([]float64, 0, len(res))
	failed := 0
	for _, r := range res {
		if !r.ok {
			failed++
			continue
		}
		lats = append(lats, r.latency)
	}
	slices.Sort(lats)
	fmt.Printf("%-36s p50=%s p99=%s mean=%s failed=%.2f%%\n", g.name,
		secs(stat.Quantile(0.5, stat.Empirical, lats, nil)),
		secs(stat.Quantile(0.99, stat.Empirical, lats, nil)),
		secs(stat.Mean(lats, nil)),
		100*float64(failed)/float64(len(res)),
	)
}

// verify runs the real scheduler with latencies scaled down a thousand times
// and compares its median with the simulated one.
func verify(g hedgeGraph) error {
	scale := float64(time.Millisecond)
	var (
		mu   sync.Mutex
		measured []float64
		sim  []float64
	)
	for i := 0; i < verifyRuns; i++ {
		start := time.Now()
		_, err := hedge.FnOutCtx(context.Background(), func(ctx context.Context) (int, error) {
			mu.Lock()
			lat, ok := drawCall()
			mu.Unlock()
			select {
			case <-time.After(time.Duration(lat * scale)):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
			if !ok {
				return 0, errors.New("simulated failure")
			}
			return 1, nil
		},
			hedge.Interval(time.Duration(g.interval*scale)),
			hedge.MaxAttempts(maxAttempts),
			hedge.GuardBand(time.Duration(guardBand*scale)),
			hedge.CancelAbandoned(true),
		)
		if err != nil && !hedge.Exhausted(err) {
			return fmt.Errorf("%s: %w", g.short, err)
		}
		if err == nil {
			measured = append(measured, float64(time.Since(start))/scale)
		}
		if r := simulate(drawCall, g.interval); r.ok {
			sim = append(sim, r.latency)
		}
	}
	slices.Sort(measured)
	slices.Sort(sim)
	fmt.Printf("%-36s real p50=%s simulated p50=%s\n", g.name,
		secs(stat.Quantile(0.5, stat.Empirical, measured, nil)),
		secs(stat.Quantile(0.5, stat.Empirical, sim, nil)),
	)
	return nil
}

func makeLines(gs []hedgeGraph, results [][]outcome) {
	p := plot.New()
	p.Title.Text = ""
	p.X.Label.Text = fmt.Sprintf(
		"Latency of successful calls, up to %d attempts, cutoff at %d seconds",
		maxAttempts, maxSeconds,
	)
	p.Y.Label.Text = "Percentage of total calls"
	p.Y.Tick.Marker = pctTicks{}
	p.X.Tick.Marker = secTics()

	top := 0.0
	for gi, g := range gs {
		samples := make(samplePlotter, totalSlots)
		for _, r := range results[gi] {
			if !r.ok {
				continue
			}
			x := int(r.latency * slotsPerSec)
			if x >= 0 && x < totalSlots {
				samples[x] += 1.0 / totalSamples
			}
		}

		l, err := plotter.NewLine(samples)
		if err != nil {
			log.Fatal(err)
		}
		l.LineStyle.Width = vg.Points(1)
		l.LineStyle.Color = plotutil.Color(gi)

		p.Add(l)
		p.Legend.Add(g.name, l)
		p.Legend.Top = true
		top = max(top, slices.Max(samples))
	}

	// dashed markers where each schedule launches its second attempt
	for gi, g := range gs {
		if g.interval == 0 {
			continue
		}
		x := g.interval * slotsPerSec
		m, err := plotter.NewLine(plotter.XYs{{X: x, Y: 0}, {X: x, Y: top}})
		if err != nil {
			log.Fatal(err)
		}
		m.LineStyle.Color = plotutil.Color(gi)
		m.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
		p.Add(m)
	}

	file := chartname("dists")
	fmt.Println(file)
	if err := p.Save(8*vg.Inch, 4*vg.Inch, file); err != nil {
		log.Fatal(err)
	}
}

// makeHistograms draws, per schedule, the latency histogram of the calls won
// by each attempt.
func makeHistograms(gs []hedgeGraph, results [][]outcome) {
	const cols = maxAttempts

	for gi, g := range gs {
		byWinner := make([]valuePlotter, maxAttempts)
		for _, r := range results[gi] {
			if r.ok {
				byWinner[r.winner] = append(byWinner[r.winner], min(r.latency, maxSeconds))
			}
		}

		plots := make([][]*plot.Plot, numRows(cols, maxAttempts))
		for i := range plots {
			plots[i] = make([]*plot.Plot, cols)
		}
		for i, vs := range byWinner {
			if len(vs) == 0 {
				continue
			}
			h, err := plotter.NewHist(vs, totalSlots)
			if err != nil {
				log.Fatal(err)
			}
			h.Normalize(100)
			p := plot.New()
			p.Title.Text = fmt.Sprintf("won by attempt %d (%.1f%%)", i+1, 100*float64(len(vs))/totalSamples)
			p.Add(h)
			plots[i/cols][i%cols] = p
		}
		img := vgimg.New(cols*4*vg.Inch, font.Length(len(plots))*4*vg.Inch)
		dc := draw.New(img)
		t := draw.Tiles{
			Rows: len(plots),
			Cols: cols,
		}
		canvases := plot.Align(plots, t, dc)
		for j := 0; j < t.Rows; j++ {
			for i := 0; i < t.Cols; i++ {
				if plots[j][i] != nil {
					plots[j][i].Draw(canvases[j][i])
				}
			}
		}

		file := chartname(g.short, "hist", "winners")
		fmt.Println(file)
		w, err := os.Create(file)
		if err != nil {
			log.Fatalf("os.Create: %v", err)
		}
		_, err = vgimg.PngCanvas{Canvas: img}.WriteTo(w)
		if err != nil {
			log.Fatalf("PngCanvas.WriteTo(): %v", err)
		}
		w.Close()
	}
}

type samplePlotter []float64

func (sp samplePlotter) Len() int {
	return len(sp)
}

func (sp samplePlotter) XY(idx int) (x, y float64) {
	return float64(idx), sp[idx]
}

type valuePlotter []float64

func (vp valuePlotter) Len() int {
	return len(vp)
}

func (vp valuePlotter) Value(i int) float64 {
	return vp[i]
}

type pctTicks struct{}

// Ticks computes the default tick marks, labelled as percentages.
func (pctTicks) Ticks(min, max float64) []plot.Tick {
	tks := plot.DefaultTicks{}.Ticks(min, max)
	for i, t := range tks {
		if t.Label != "" {
			tks[i].Label = fmt.Sprintf("%s%%", strconv.FormatFloat(t.Value*100, 'G', -1, 64))
		}
	}
	return tks
}

func secTics() plot.ConstantTicks {
	ticks := make([]plot.Tick, 0, 2*maxSeconds+1)
	for i := 1; i <= 2*maxSeconds; i++ {
		ticks = append(ticks, plot.Tick{
			Value: float64(i * slotsPerSec / 2),
			Label: secs(float64(i) / 2),
		})
	}
	return ticks
}

func secs(s float64) string {
	return time.Duration(s * float64(time.Second)).Round(time.Millisecond).String()
}

func chartname(parts ...any) string {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal("os.Getwd():", err)
	}
	fname := []byte(filepath.Join(cwd, "charts") + string(filepath.Separator))
	for i, p := range parts {
		fname = fmt.Append(fname, p)
		if i < len(parts)-1 {
			fname = fmt.Append(fname, "_")
		}
	}
	fname = fmt.Append(fname, ".png")
	return string(fname)
}

func numRows(columns, total int) int {
	m := 0
	if total%columns > 0 {
		m++
	}
	return total/columns + m
}
