package domain

type CrimeDefinition struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	MinPayout   int64    `yaml:"min_payout"`
	MaxPayout   int64    `yaml:"max_payout"`
	SuccessRate float64  `yaml:"success_rate"`
	Aliases     []string `yaml:"aliases"`
}

type TemplateKind string

const (
	TemplateAnnounce TemplateKind = "announce"
	TemplateResume   TemplateKind = "resume"
	TemplateVote     TemplateKind = "vote"
	TemplateDepart   TemplateKind = "depart"
	TemplateSolo     TemplateKind = "solo"
	TemplateSuccess  TemplateKind = "success"
	TemplateFailure  TemplateKind = "failure"
	TemplatePayout   TemplateKind = "payout"
	TemplateComment  TemplateKind = "comment"
)

// CrimeCatalog is the read-only source of heist variants and narrative
// template ids. The engine never renders the templates itself.
type CrimeCatalog interface {
	All() []CrimeDefinition
	Get(id string) (CrimeDefinition, bool)
	Templates(kind TemplateKind) []string
}
