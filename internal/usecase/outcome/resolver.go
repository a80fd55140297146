// Package outcome tallies votes and rolls the result of a heist.
package outcome

import (
	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/LavaJover/shvark-heist-service/internal/usecase/random"
)

type Decision struct {
	Crime domain.CrimeDefinition
	Tally map[string]int
	// Solo is set when nobody voted and the crime was picked at random.
	Solo bool
	Tied bool
}

type Resolver struct {
	rng random.Source
}

func NewResolver(rng random.Source) *Resolver {
	return &Resolver{rng: rng}
}

// Tally counts votes per offered crime. Votes for crimes outside the offer
// are dropped.
func Tally(offered []domain.CrimeDefinition, votes []*domain.Vote) map[string]int {
	tally := make(map[string]int, len(offered))
	for _, crime := range offered {
		tally[crime.ID] = 0
	}
	for _, v := range votes {
		if _, ok := tally[v.Choice]; ok {
			tally[v.Choice]++
		}
	}
	return tally
}

// PickWinner picks the crime with the most votes. Ties are broken uniformly at
// random and zero votes fall back to a uniform pick over the whole offer, so
// a decision is always made.
func (r *Resolver) PickWinner(offered []domain.CrimeDefinition, votes []*domain.Vote) (Decision, error) {
	if len(offered) == 0 {
		return Decision{}, domain.ErrEmptyCatalog
	}

	tally := Tally(offered, votes)

	best := 0
	var leaders []domain.CrimeDefinition
	for _, crime := range offered {
		n := tally[crime.ID]
		switch {
		case n > best:
			best = n
			leaders = []domain.CrimeDefinition{crime}
		case n == best && n > 0:
			leaders = append(leaders, crime)
		}
	}

	if best == 0 {
		pick := offered[r.rng.Intn(len(offered))]
		return Decision{Crime: pick, Tally: tally, Solo: true}, nil
	}

	if len(leaders) == 1 {
		return Decision{Crime: leaders[0], Tally: tally}, nil
	}

	pick := leaders[r.rng.Intn(len(leaders))]
	return Decision{Crime: pick, Tally: tally, Tied: true}, nil
}

// Roll reports success with the crime's success rate.
func (r *Resolver) Roll(crime domain.CrimeDefinition) bool {
	return r.rng.Float64() < crime.SuccessRate
}

// Haul draws the take of a successful crime, uniform in [min, max].
func (r *Resolver) Haul(crime domain.CrimeDefinition) int64 {
	return random.Int64Between(r.rng, crime.MinPayout, crime.MaxPayout)
}

// Resolve rolls success and, when successful, the haul. A failed heist
// returns a zero haul.
func (r *Resolver) Resolve(crime domain.CrimeDefinition) (success bool, haul int64) {
	if !r.Roll(crime) {
		return false, 0
	}
	return true, r.Haul(crime)
}
