package ingest

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/vigia/internal/domain/model"
)

// categories are a mix of mapped spellings and a few that map to nothing.
var categories = []string{
	"educação", "ensino", "Escolas",
	"saúde", "SUS", "vacinação",
	"segurança pública", "policiamento",
	"meio ambiente", "desmatamento",
	"economia", "impostos",
	"transparência", "combate à corrupção",
	"pesca", "turismo",
}

var (
	firstNames = []string{"Ana", "Bruno", "Carla", "Diego", "Elisa", "Fábio", "Gabriela", "Heitor", "Iara", "João"}
	lastNames  = []string{"Silva", "Souza", "Oliveira", "Santos", "Lima", "Costa", "Pereira", "Almeida"}
	parties    = []string{"PA", "PB", "PC", "PD", "PE"}
	positions  = []string{"Deputado Federal", "Senador", "Vereador", "Deputado Estadual"}
)

// uuidNamespace scopes generated action ids.
var uuidNamespace = uuid.MustParse("6f1c7d52-3a8e-4f0b-9a55-2d7e4c1b9e30")

// Generator produces reproducible synthetic data.
type Generator struct {
	rng   *rand.Rand
	seed  uint64
	epoch time.Time
}

// NewGenerator creates a generator; equal seeds yield equal output.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seed:  seed,
		epoch: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Politicians returns n profiles with ids pol-0001, pol-0002, ...
func (g *Generator) Politicians(n int) []model.Politician {
	out := make([]model.Politician, n)
	for i := range out {
		out[i] = model.Politician{
			ID:       fmt.Sprintf("pol-%04d", i+1),
			Name:     firstNames[g.rng.IntN(len(firstNames))] + " " + lastNames[g.rng.IntN(len(lastNames))],
			Party:    parties[g.rng.IntN(len(parties))],
			Position: positions[g.rng.IntN(len(positions))],
		}
	}
	return out
}

// Actions returns n actions spread over politicians. Each politician gets a
// bias so rankings are not uniform noise. Impacts stay within [-10, 10] and
// are rounded to one decimal.
func (g *Generator) Actions(n int, politicians []model.Politician) []model.Action {
	if len(politicians) == 0 {
		return nil
	}
	bias := make([]float64, len(politicians))
	for i := range bias {
		bias[i] = g.rng.Float64()*8 - 2
	}

	out := make([]model.Action, n)
	for i := range out {
		p := g.rng.IntN(len(politicians))
		impact := bias[p] + g.rng.NormFloat64()*3
		impact = math.Round(math.Max(-10, math.Min(10, impact))*10) / 10
		cat := categories[g.rng.IntN(len(categories))]

		out[i] = model.Action{
			ID:           uuid.NewSHA1(uuidNamespace, fmt.Appendf(nil, "%d/%d", g.seed, i)).String(),
			PoliticianID: politicians[p].ID,
			Title:        fmt.Sprintf("Ação %d sobre %s", i+1, cat),
			Date:         g.epoch.Add(time.Duration(g.rng.IntN(700*24)) * time.Hour),
			Category:     cat,
			Impact:       impact,
			Source:       "synthetic",
		}
	}
	return out
}

// WithDuplicates appends verbatim copies of a share of actions.
func (g *Generator) WithDuplicates(actions []model.Action, share float64) []model.Action {
	if share <= 0 || len(actions) == 0 {
		return actions
	}
	n := int(float64(len(actions)) * share)
	out := make([]model.Action, 0, len(actions)+n)
	out = append(out, actions...)
	for range n {
		out = append(out, actions[g.rng.IntN(len(actions))])
	}
	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
