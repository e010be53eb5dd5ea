package ContactPatch

import (
	"fmt"
	"sort"
	"time"
)

func (p *Patch) PrintInitialization() {
	if !p.Verbose {
		return
	}
	fmt.Printf("%s\n", p.Title)
	p.Mesh.PrintStatistics()
	fmt.Printf("%s contact, %s formulation on %d ranks\n", p.Model, p.Formulation, p.NumRanks)
	fmt.Printf("%d segments between boundaries %d and %d, %d unknowns\n",
		len(p.Segments.Segments), secondaryBoundary, primaryBoundary, p.Layout.Len())
	fmt.Printf("Solving until finaltime = %8.5f\n", p.FinalTime)
	fmt.Printf("    step    time      dt  Newton      AL  active    max pressure     min gap\n")
}

func (p *Patch) PrintUpdate(rec StepRecord) {
	if !p.Verbose {
		return
	}
	var (
		maxP = 0.
		minG = 0.
		ids  = make([]int, 0, len(rec.Gap))
	)
	for id := range rec.Gap {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for i, id := range ids {
		if i == 0 || rec.Gap[id] < minG {
			minG = rec.Gap[id]
		}
		if rec.Pressure[id] > maxP {
			maxP = rec.Pressure[id]
		}
	}
	fmt.Printf("%8d%8.5f%8.5f%8d%8d%8d%16.4e%12.4e\n",
		rec.Step, rec.Time, rec.Dt, rec.NewtonIterations, rec.ALIterations, rec.Active, maxP, minG)
}

func (p *Patch) PrintFinal(elapsed time.Duration, res *Result) {
	if !p.Verbose {
		return
	}
	var its int
	for _, rec := range res.Steps {
		its += rec.NewtonIterations
	}
	fmt.Printf("\n%d steps, %d Newton iterations, %d time step cuts in %v\n",
		len(res.Steps), its, res.Cuts, elapsed)
}
