package simulate

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// member ties a student to the group it was listed under.
type member struct {
	StudentID string
	GroupID   string
}

var (
	tasks   = []string{"Frontend", "Backend", "Database", "Testing", "Documentation", "UI Design", "Deployment", "Research"}
	actions = []string{"implemented", "reviewed", "fixed", "refactored", "documented", "designed"}
)

// Effort profiles. Each student keeps one profile for the whole run so groups
// end up with realistic imbalance.
const (
	profileSteady = iota
	profileHeavy
	profileLight
	profileGhost
	profileCount
)

// generator builds contributions from a seeded source.
type generator struct {
	rng      *rand.Rand
	profiles map[string]int
	now      time.Time
}

func newGenerator(seed uint64, now time.Time) *generator {
	return &generator{
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		profiles: make(map[string]int),
		now:      now,
	}
}

func (g *generator) profile(studentID string) int {
	p, ok := g.profiles[studentID]
	if !ok {
		p = g.rng.IntN(profileCount)
		g.profiles[studentID] = p
	}
	return p
}

// hours draws a duration for the student's profile. Ghosts mostly log tiny
// entries.
func (g *generator) hours(studentID string) float64 {
	var h float64
	switch g.profile(studentID) {
	case profileHeavy:
		h = 3 + g.rng.Float64()*5
	case profileLight:
		h = 0.5 + g.rng.Float64()*1.5
	case profileGhost:
		h = 0.1 + g.rng.Float64()*0.4
	default:
		h = 1.5 + g.rng.Float64()*2.5
	}
	return float64(int(h*10)) / 10
}

// generate produces n contributions spread over the last two weeks. Roughly
// rate of them replay an earlier id.
func (g *generator) generate(members []member, n int, rate float64, runID string) []Contribution {
	out := make([]Contribution, 0, n)
	if len(members) == 0 {
		return out
	}
	for i := 0; i < n; i++ {
		if i > 0 && g.rng.Float64() < rate {
			out = append(out, out[g.rng.IntN(len(out))])
			continue
		}
		m := members[g.rng.IntN(len(members))]
		// Ghosts skip most of their turns.
		if g.profile(m.StudentID) == profileGhost && g.rng.IntN(4) != 0 {
			m = members[g.rng.IntN(len(members))]
		}
		age := time.Duration(g.rng.IntN(14*24)) * time.Hour
		out = append(out, Contribution{
			ID:        fmt.Sprintf("sim-%s-%d", runID, i),
			StudentID: m.StudentID,
			GroupID:   m.GroupID,
			Task:      tasks[g.rng.IntN(len(tasks))],
			Action:    actions[g.rng.IntN(len(actions))],
			Hours:     g.hours(m.StudentID),
			Timestamp: g.now.Add(-age).UTC().Format(time.RFC3339),
		})
	}
	return out
}
