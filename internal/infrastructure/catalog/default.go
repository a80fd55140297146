package catalog

import "github.com/LavaJover/shvark-heist-service/internal/domain"

var defaultCrimes = []domain.CrimeDefinition{
	{ID: "servo", Name: "Rob the Servo", MinPayout: 50, MaxPayout: 150, SuccessRate: 0.9, Aliases: []string{"petrol station", "gas station"}},
	{ID: "bottleo", Name: "Bottle Shop Job", MinPayout: 100, MaxPayout: 300, SuccessRate: 0.8, Aliases: []string{"grog", "bottle shop"}},
	{ID: "pokies", Name: "Pokies Room", MinPayout: 150, MaxPayout: 450, SuccessRate: 0.65, Aliases: []string{"pub", "slots"}},
	{ID: "armoured-van", Name: "Armoured Van", MinPayout: 300, MaxPayout: 900, SuccessRate: 0.45, Aliases: []string{"van", "cash truck"}},
	{ID: "casino", Name: "Casino Vault", MinPayout: 600, MaxPayout: 2000, SuccessRate: 0.25, Aliases: []string{"vault"}},
}

var defaultTemplates = map[domain.TemplateKind][]string{
	domain.TemplateAnnounce: {"announce.crew_wanted", "announce.whisper", "announce.planning_table"},
	domain.TemplateResume:   {"resume.back_online"},
	domain.TemplateVote:     {"vote.noted", "vote.in_the_book"},
	domain.TemplateDepart:   {"depart.van_rolls", "depart.masks_on"},
	domain.TemplateSolo:     {"solo.house_goes_alone", "solo.nobody_showed"},
	domain.TemplateSuccess:  {"success.clean_getaway", "success.sirens_too_late"},
	domain.TemplateFailure:  {"failure.caught", "failure.alarm", "failure.empty_safe"},
	domain.TemplatePayout:   {"payout.split", "payout.counting"},
	domain.TemplateComment:  {"comment.house_wins", "comment.next_time"},
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultCrimes, nil)
	if err != nil {
		panic(err)
	}
	return c
}
