// Package payout splits a heist haul between the house, the voters and the
// rest of the crew and applies the result to the ledger in one transaction.
package payout

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
)

const bpsDenominator = 10000

type Role string

const (
	RoleHouse Role = "house"
	RoleVoter Role = "voter"
	RoleCrew  Role = "crew"
)

type Rules struct {
	OrganizerCutBps       int64
	VoterShareBps         int64
	OfflineVoterPenalty   int64
	OfflineCrewPenalty    int64
	TrustBonusPerPointBps int64
	TrustBonusCapBps      int64

	TrustMin         int64
	TrustMax         int64
	InitialTrust     int64
	VoteBonus        int64
	SuccessBonus     int64
	FailurePenalty   int64
	SoloSuccessBonus int64
}

// Participant is a voter or crew member as seen at payout time.
type Participant struct {
	Username string
	Trust    int64
	Online   bool
}

type Input struct {
	EventID string
	House   string
	Haul    int64
	Success bool
	Solo    bool
	Voters  []Participant
	Crew    []Participant
}

type Share struct {
	Username   string
	Role       Role
	Gross      int64
	Penalty    int64
	Net        int64
	Online     bool
	TrustDelta int64
}

type Plan struct {
	EventID string
	House   string
	Haul    int64
	Success bool
	Solo    bool

	HouseCut     int64
	HousePenalty int64
	// HouseAmount is everything credited to the house: the cut plus penalties,
	// or the whole haul of a successful solo run.
	HouseAmount int64
	HouseTrust  int64
	Shares      []Share
	// Dust is the floor remainder that nobody receives.
	Dust int64
}

// Distributed is the total amount credited by the plan.
func (p Plan) Distributed() int64 {
	total := p.HouseAmount
	for _, s := range p.Shares {
		total += s.Net
	}
	return total
}

func (p Plan) ParticipantCount() int {
	return len(p.Shares)
}

// Distributions renders the plan as notification lines, house first.
func (p Plan) Distributions() []domain.Distribution {
	out := make([]domain.Distribution, 0, len(p.Shares)+1)
	if p.HouseAmount != 0 || p.HouseTrust != 0 {
		out = append(out, domain.Distribution{
			Username:   p.House,
			Role:       string(RoleHouse),
			Amount:     p.HouseAmount,
			Online:     true,
			TrustDelta: p.HouseTrust,
		})
	}
	for _, s := range p.Shares {
		out = append(out, domain.Distribution{
			Username:   s.Username,
			Role:       string(s.Role),
			Amount:     s.Net,
			Penalty:    s.Penalty,
			Online:     s.Online,
			TrustDelta: s.TrustDelta,
		})
	}
	return out
}

type Distributor struct {
	rules  Rules
	ledger domain.LedgerRepository
	logger *slog.Logger
}

func NewDistributor(rules Rules, ledger domain.LedgerRepository, logger *slog.Logger) *Distributor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Distributor{rules: rules, ledger: ledger, logger: logger}
}

func (d *Distributor) Rules() Rules {
	return d.rules
}

// Participants loads trust for the voters and the crew and tags their
// presence. The house and anybody who voted are removed from the crew.
func (d *Distributor) Participants(
	ctx context.Context,
	house string,
	voters, active []string,
	presence domain.PresenceChecker,
) ([]Participant, []Participant, error) {
	house = domain.NormalizeUsername(house)

	seen := map[string]bool{house: true}
	var voterNames, crewNames []string
	for _, v := range voters {
		name := domain.NormalizeUsername(v)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		voterNames = append(voterNames, name)
	}
	for _, a := range active {
		name := domain.NormalizeUsername(a)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		crewNames = append(crewNames, name)
	}
	sort.Strings(voterNames)
	sort.Strings(crewNames)

	accounts, err := d.ledger.GetAccounts(ctx, append(append([]string{}, voterNames...), crewNames...))
	if err != nil {
		return nil, nil, fmt.Errorf("load participant accounts: %w", err)
	}

	build := func(names []string) []Participant {
		out := make([]Participant, len(names))
		for i, name := range names {
			trust := d.rules.InitialTrust
			if acc, ok := accounts[name]; ok {
				trust = acc.Trust
			}
			online := true
			if presence != nil {
				online = presence.IsOnline(name)
			}
			out[i] = Participant{Username: name, Trust: trust, Online: online}
		}
		return out
	}

	return build(voterNames), build(crewNames), nil
}

// Plan computes the payout without touching the store.
func (d *Distributor) Plan(in Input) Plan {
	r := d.rules
	plan := Plan{
		EventID: in.EventID,
		House:   domain.NormalizeUsername(in.House),
		Haul:    in.Haul,
		Success: in.Success,
		Solo:    in.Solo || len(in.Voters) == 0,
	}

	if plan.Solo {
		if in.Success {
			plan.HouseAmount = in.Haul
			plan.HouseTrust = r.SoloSuccessBonus
		} else {
			plan.HouseTrust = r.FailurePenalty
		}
		return plan
	}

	voterTrust := r.VoteBonus + r.FailurePenalty
	crewTrust := int64(0)
	if in.Success {
		voterTrust = r.VoteBonus + r.SuccessBonus
		crewTrust = r.SuccessBonus
	}

	if !in.Success || in.Haul <= 0 {
		for _, p := range in.Voters {
			plan.Shares = append(plan.Shares, Share{Username: p.Username, Role: RoleVoter, Online: p.Online, TrustDelta: voterTrust})
		}
		for _, p := range in.Crew {
			plan.Shares = append(plan.Shares, Share{Username: p.Username, Role: RoleCrew, Online: p.Online, TrustDelta: crewTrust})
		}
		return plan
	}

	plan.HouseCut = in.Haul * r.OrganizerCutBps / bpsDenominator
	rest := in.Haul - plan.HouseCut
	voterPool := rest * r.VoterShareBps / bpsDenominator
	crewPool := rest - voterPool
	// Read literally, scenarios A and C pay voters only their 30% and leave
	// the crew 70% unaccounted. Without crew that share goes to the voters.
	if len(in.Crew) == 0 {
		voterPool += crewPool
		crewPool = 0
	}

	voterShares := d.split(voterPool, in.Voters)
	crewShares := d.split(crewPool, in.Crew)

	distributed := plan.HouseCut
	for i, p := range in.Voters {
		s := d.penalize(p, RoleVoter, voterShares[i], r.OfflineVoterPenalty)
		s.TrustDelta = voterTrust
		plan.HousePenalty += s.Penalty
		distributed += s.Gross
		plan.Shares = append(plan.Shares, s)
	}
	for i, p := range in.Crew {
		s := d.penalize(p, RoleCrew, crewShares[i], r.OfflineCrewPenalty)
		s.TrustDelta = crewTrust
		plan.HousePenalty += s.Penalty
		distributed += s.Gross
		plan.Shares = append(plan.Shares, s)
	}

	plan.HouseAmount = plan.HouseCut + plan.HousePenalty
	plan.Dust = in.Haul - distributed
	return plan
}

// weight is 10000 plus a capped bonus for positive trust.
func (d *Distributor) weight(trust int64) int64 {
	if trust <= 0 {
		return bpsDenominator
	}
	bonus := trust * d.rules.TrustBonusPerPointBps
	if bonus > d.rules.TrustBonusCapBps {
		bonus = d.rules.TrustBonusCapBps
	}
	return bpsDenominator + bonus
}

func (d *Distributor) split(pool int64, group []Participant) []int64 {
	shares := make([]int64, len(group))
	if pool <= 0 || len(group) == 0 {
		return shares
	}

	var total int64
	weights := make([]int64, len(group))
	for i, p := range group {
		weights[i] = d.weight(p.Trust)
		total += weights[i]
	}
	for i := range group {
		shares[i] = pool * weights[i] / total
	}
	return shares
}

func (d *Distributor) penalize(p Participant, role Role, gross, penaltyBps int64) Share {
	s := Share{Username: p.Username, Role: role, Gross: gross, Net: gross, Online: p.Online}
	if !p.Online && gross > 0 {
		s.Net = gross * (bpsDenominator - penaltyBps) / bpsDenominator
		s.Penalty = gross - s.Net
	}
	return s
}

// Settlement converts a plan into account deltas with their audit rows.
func (d *Distributor) Settlement(plan Plan, transition domain.EventTransition) *domain.Settlement {
	settlement := &domain.Settlement{
		Transition:   transition,
		TrustMin:     d.rules.TrustMin,
		TrustMax:     d.rules.TrustMax,
		InitialTrust: d.rules.InitialTrust,
	}

	entry := func(username string, kind domain.LedgerEntryKind, amount, trust int64) domain.LedgerEntry {
		return domain.LedgerEntry{
			EventID:    plan.EventID,
			Username:   username,
			Kind:       kind,
			Amount:     amount,
			TrustDelta: trust,
			CreatedAt:  transition.At,
		}
	}

	house := domain.AccountDelta{
		Username:     plan.House,
		Amount:       plan.HouseAmount,
		TrustDelta:   plan.HouseTrust,
		Participated: plan.Solo,
	}
	if plan.Solo && plan.HouseAmount > 0 {
		house.Entries = append(house.Entries, entry(plan.House, domain.EntrySoloHaul, plan.HouseAmount, 0))
	}
	if plan.HouseCut > 0 {
		house.Entries = append(house.Entries, entry(plan.House, domain.EntryHouseCut, plan.HouseCut, 0))
	}

	for _, s := range plan.Shares {
		delta := domain.AccountDelta{
			Username:     s.Username,
			Amount:       s.Net,
			TrustDelta:   s.TrustDelta,
			Participated: true,
		}
		kind := domain.EntryVoterShare
		if s.Role == RoleCrew {
			kind = domain.EntryCrewShare
		}
		if s.Gross > 0 {
			delta.Entries = append(delta.Entries, entry(s.Username, kind, s.Gross, 0))
		}
		if s.Penalty > 0 {
			delta.Entries = append(delta.Entries, entry(s.Username, domain.EntryOfflinePenalty, -s.Penalty, 0))
			house.Entries = append(house.Entries, entry(plan.House, domain.EntryOfflinePenalty, s.Penalty, 0))
		}
		if s.TrustDelta != 0 {
			delta.Entries = append(delta.Entries, entry(s.Username, domain.EntryTrust, 0, s.TrustDelta))
		}
		settlement.Deltas = append(settlement.Deltas, delta)
	}

	if plan.HouseTrust != 0 {
		house.Entries = append(house.Entries, entry(plan.House, domain.EntryTrust, 0, plan.HouseTrust))
	}
	if house.Amount != 0 || house.TrustDelta != 0 || len(house.Entries) > 0 {
		settlement.Deltas = append([]domain.AccountDelta{house}, settlement.Deltas...)
	}

	return settlement
}

// Apply writes the plan, the event transition and the next engine state in
// a single transaction. Nothing is applied on error.
func (d *Distributor) Apply(ctx context.Context, plan Plan, transition domain.EventTransition, next domain.EngineState) error {
	settlement := d.Settlement(plan, transition)
	if err := d.ledger.Settle(ctx, settlement, next); err != nil {
		return fmt.Errorf("settle event %s: %w", plan.EventID, err)
	}

	d.logger.Info("heist settled",
		"event_id", plan.EventID,
		"success", plan.Success,
		"solo", plan.Solo,
		"haul", plan.Haul,
		"house", plan.HouseAmount,
		"participants", plan.ParticipantCount(),
		"dust", plan.Dust,
	)
	return nil
}
