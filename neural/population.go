package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/laserwalk/config"
)

var (
	// ErrUnknownGenome is returned by SetFitness for IDs outside the population.
	ErrUnknownGenome = errors.New("neural: unknown genome")
	// ErrMissingFitness is returned by Epoch when a genome was never scored.
	ErrMissingFitness = errors.New("neural: genome has no fitness")
)

// Population is a generational NEAT population of brain genomes.
// It is driven from a single goroutine.
type Population struct {
	opts     *neat.Options
	elitism  int
	connProb float64
	seed     int64
	rng      *rand.Rand
	ids      *GenomeIDGenerator
	species  *SpeciesManager

	genomes    []*genetics.Genome
	fitness    map[int]float64
	generation int

	champion        *genetics.Genome
	championFitness float64
}

// NewPopulation seeds a population of minimal random genomes.
// A zero seed picks one from the clock; Seed reports the value used.
func NewPopulation(evo config.EvolutionConfig, nc config.NeuralConfig) *Population {
	seed := evo.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	opts := NEATOptions(evo)
	p := &Population{
		opts:     opts,
		elitism:  evo.Elitism,
		connProb: nc.InitialConnectionProb,
		seed:     seed,
		rng:      rand.New(rand.NewSource(seed)),
		ids:      NewGenomeIDGenerator(),
		species:  NewSpeciesManager(opts),
		fitness:  make(map[int]float64),
	}

	p.genomes = make([]*genetics.Genome, evo.PopulationSize)
	for i := range p.genomes {
		p.genomes[i] = CreateBrainGenome(p.rng, p.ids.NextID(), p.connProb)
	}
	return p
}

// Seed returns the random seed driving this population.
func (p *Population) Seed() int64 { return p.seed }

// Generation returns the index of the current generation, starting at 0.
func (p *Population) Generation() int { return p.generation }

// Species exposes the species manager for reporting.
func (p *Population) Species() *SpeciesManager { return p.species }

// Genomes returns the current generation. The slice is a copy; the genomes
// must be treated as read-only.
func (p *Population) Genomes() []*genetics.Genome {
	out := make([]*genetics.Genome, len(p.genomes))
	copy(out, p.genomes)
	return out
}

// SetFitness records the fitness of a genome in the current generation.
func (p *Population) SetFitness(id int, fitness float64) error {
	for _, g := range p.genomes {
		if g.Id == id {
			p.fitness[id] = fitness
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownGenome, id)
}

// Champion returns the best genome seen so far and its fitness.
// ok is false before the first Epoch.
func (p *Population) Champion() (genome *genetics.Genome, fitness float64, ok bool) {
	if p.champion == nil {
		return nil, 0, false
	}
	return p.champion, p.championFitness, true
}

type scored struct {
	genome  *genetics.Genome
	fitness float64
}

// Epoch speciates the scored generation and breeds the next one.
// Every genome must have a finite fitness.
func (p *Population) Epoch() error {
	ranked := make([]scored, len(p.genomes))
	for i, g := range p.genomes {
		f, ok := p.fitness[g.Id]
		if !ok {
			return fmt.Errorf("%w: %d", ErrMissingFitness, g.Id)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("neural: genome %d has non-finite fitness %v", g.Id, f)
		}
		ranked[i] = scored{g, f}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].fitness > ranked[j].fitness })

	if len(ranked) > 0 && (p.champion == nil || ranked[0].fitness > p.championFitness) {
		champ, err := CloneGenome(ranked[0].genome, ranked[0].genome.Id)
		if err != nil {
			return err
		}
		p.champion, p.championFitness = champ, ranked[0].fitness
	}

	members := p.speciate(ranked)
	p.species.EndGeneration()

	next := make([]*genetics.Genome, 0, len(p.genomes))

	// Elites keep their ID so per-genome history follows them. The best
	// genome always survives.
	for i := 0; i < max(1, p.elitism) && i < len(ranked); i++ {
		elite, err := CloneGenome(ranked[i].genome, ranked[i].genome.Id)
		if err != nil {
			return err
		}
		next = append(next, elite)
	}

	quotas := p.offspringQuotas(len(p.genomes) - len(next))
	for _, sp := range p.species.Species {
		pool := members[sp.ID]
		keep := max(1, int(math.Ceil(p.opts.SurvivalThresh*float64(len(pool)))))
		pool = pool[:min(keep, len(pool))]

		for n := 0; n < quotas[sp.ID]; n++ {
			child, err := p.breed(pool)
			if err != nil {
				return fmt.Errorf("breeding species %d: %w", sp.ID, err)
			}
			p.species.RecordOffspring(sp.ID)
			next = append(next, child)
		}
	}

	p.genomes = next
	p.fitness = make(map[int]float64, len(next))
	p.generation++
	return nil
}

// speciate assigns every ranked genome to a species and returns the members
// of each species, best first.
func (p *Population) speciate(ranked []scored) map[int][]scored {
	p.species.ClearMembers()
	members := make(map[int][]scored)
	for _, s := range ranked {
		sid := p.species.AssignSpecies(s.genome)
		p.species.AddMember(sid, s.genome.Id)
		p.species.AccumulateFitness(sid, s.fitness)
		members[sid] = append(members[sid], s)
	}
	// Best member represents the species next generation
	for sid, ms := range members {
		p.species.SetRepresentative(sid, ms[0].genome)
	}
	return members
}

// offspringQuotas splits total children across surviving species in
// proportion to mean fitness, using largest remainders so the sum is exact.
func (p *Population) offspringQuotas(total int) map[int]int {
	quotas := make(map[int]int)
	species := p.species.Species
	if total <= 0 || len(species) == 0 {
		return quotas
	}

	// Shift so the weakest species still gets a share.
	minAvg := math.Inf(1)
	for _, sp := range species {
		minAvg = min(minAvg, sp.AvgFitness)
	}
	weights := make([]float64, len(species))
	sum := 0.0
	for i, sp := range species {
		weights[i] = sp.AvgFitness - minAvg + 1e-6
		sum += weights[i]
	}

	type remainder struct {
		idx  int
		frac float64
	}
	rems := make([]remainder, len(species))
	assigned := 0
	for i, sp := range species {
		exact := float64(total) * weights[i] / sum
		whole := int(exact)
		quotas[sp.ID] = whole
		assigned += whole
		rems[i] = remainder{i, exact - float64(whole)}
	}
	sort.SliceStable(rems, func(i, j int) bool { return rems[i].frac > rems[j].frac })
	for i := 0; assigned < total; i = (i + 1) % len(rems) {
		quotas[species[rems[i].idx].ID]++
		assigned++
	}
	return quotas
}

// breed produces one child from a species' parent pool.
func (p *Population) breed(pool []scored) (*genetics.Genome, error) {
	id := p.ids.NextID()
	mom := pool[p.rng.Intn(len(pool))]

	var child *genetics.Genome
	var err error
	if len(pool) > 1 && p.rng.Float64() < p.opts.MateMultipointProb {
		dad := pool[p.rng.Intn(len(pool))]
		child, err = CrossoverGenomes(p.rng, mom.genome, dad.genome, mom.fitness, dad.fitness, id)
	} else {
		child, err = CloneGenome(mom.genome, id)
	}
	if err != nil {
		return nil, err
	}

	if _, err := MutateGenome(p.rng, child, p.opts, p.ids); err != nil {
		return nil, err
	}
	return child, nil
}
