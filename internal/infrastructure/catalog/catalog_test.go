package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeCatalog(t, `
crimes:
  - id: Servo
    name: Rob the Servo
    min_payout: 50
    max_payout: 150
    success_rate: 0.9
    aliases: [petrol station]
  - id: bottleo
    name: Bottle Shop Job
    min_payout: 100
    max_payout: 300
    success_rate: 0.8
templates:
  announce: [custom.announce]
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.Len(t, c.All(), 2)

	servo, ok := c.Get("SERVO")
	require.True(t, ok)
	require.Equal(t, "servo", servo.ID)
	require.Equal(t, int64(150), servo.MaxPayout)
	require.Equal(t, []string{"petrol station"}, servo.Aliases)

	require.Equal(t, []string{"custom.announce"}, c.Templates(domain.TemplateAnnounce))
	require.NotEmpty(t, c.Templates(domain.TemplateFailure))
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.NotEmpty(t, c.All())

	_, ok := c.Get("bottleo")
	require.True(t, ok)
	_, ok = c.Get("bank")
	require.False(t, ok)
}

func TestNewRejectsInvalidCrimes(t *testing.T) {
	cases := map[string][]domain.CrimeDefinition{
		"empty id":     {{ID: " ", MaxPayout: 1, SuccessRate: 0.5}},
		"bad range":    {{ID: "a", MinPayout: 10, MaxPayout: 5, SuccessRate: 0.5}},
		"bad rate":     {{ID: "a", MaxPayout: 5, SuccessRate: 1.5}},
		"duplicate id": {{ID: "a", MaxPayout: 5}, {ID: "A", MaxPayout: 5}},
		"huge payout":  {{ID: "a", MaxPayout: MaxPayoutCeiling + 1, SuccessRate: 0.5}},
	}
	for name, crimes := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(crimes, nil)
			require.ErrorIs(t, err, domain.ErrInvalidCrime)
		})
	}

	_, err := New(nil, nil)
	require.ErrorIs(t, err, domain.ErrEmptyCatalog)
}

func TestAllReturnsCopy(t *testing.T) {
	c := Default()
	all := c.All()
	all[0].ID = "mutated"

	_, ok := c.Get("mutated")
	require.False(t, ok)
}
