package graph

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prolly/internal/apperr"
	"prolly/internal/models"
)

func objective(id string, prereqs ...string) models.Objective {
	o := models.Objective{CurriculumID: "c1", Name: id, Prerequisites: prereqs}
	o.ID = id
	return o
}

// course is a small valid curriculum in load order.
func course() []models.Objective {
	return []models.Objective{
		objective("intro"),
		objective("vars", "intro"),
		objective("funcs", "vars"),
		objective("loops", "vars"),
		objective("recursion", "funcs", "loops"),
	}
}

func ids(objectives []models.Objective) []string {
	out := make([]string, 0, len(objectives))
	for _, o := range objectives {
		out = append(out, o.ID)
	}
	return out
}

func render(r Result) string {
	switch {
	case r.Valid:
		return "valid"
	case r.Reason == ReasonCrossScope:
		return string(r.Reason)
	default:
		return string(r.Reason) + ": " + strings.Join(r.CycleNodes, " -> ")
	}
}

func TestValidateSelfPrerequisite(t *testing.T) {
	r := Validate("funcs", []string{"vars", "funcs"}, course())

	assert.False(t, r.Valid)
	assert.Equal(t, ReasonSelf, r.Reason)
	assert.Equal(t, []string{"funcs"}, r.CycleNodes)
	assert.Equal(t, messageSelf, r.Message)
}

func TestValidateCrossScope(t *testing.T) {
	r := Validate("funcs", []string{"vars", "outsider"}, course())

	assert.False(t, r.Valid)
	assert.Equal(t, ReasonCrossScope, r.Reason)
	assert.Empty(t, r.CycleNodes)

	err := r.Err("objective.update")
	assert.True(t, apperr.Is(err, apperr.KindDAGCycle))
}

func TestValidateEndToEndScenario(t *testing.T) {
	live := []models.Objective{objective("a"), objective("b", "a")}

	rejected := Validate("a", []string{"b"}, live)
	require.False(t, rejected.Valid)
	assert.Equal(t, ReasonCycle, rejected.Reason)
	assert.Contains(t, rejected.CycleNodes, "a")
	assert.Contains(t, rejected.CycleNodes, "b")
	assert.Equal(t, rejected.CycleNodes[0], rejected.CycleNodes[len(rejected.CycleNodes)-1])

	assert.True(t, Validate("a", nil, live).Valid)
	assert.True(t, Validate("b", []string{"a"}, live).Valid)

	ordered, err := TopologicalOrder(live)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(ordered))
}

func TestValidateNewObjectiveIsNotAddedToGraph(t *testing.T) {
	r := Validate(NewObjective, []string{"recursion", "intro"}, course())
	assert.True(t, r.Valid)

	r = Validate(NewObjective, []string{""}, course())
	assert.Equal(t, ReasonCrossScope, r.Reason)
}

func TestValidateReportsPreexistingCycleInLoadOrder(t *testing.T) {
	live := []models.Objective{
		objective("a", "c"),
		objective("b", "a"),
		objective("c", "b"),
		objective("d", "e"),
		objective("e", "d"),
	}

	r := Validate("e", []string{"d"}, live)
	require.False(t, r.Valid)
	assert.Equal(t, []string{"a", "c", "b", "a"}, r.CycleNodes)
}

func TestValidationGolden(t *testing.T) {
	cases := []struct {
		name      string
		objective string
		proposed  []string
	}{
		{"intro takes recursion", "intro", []string{"recursion"}},
		{"vars takes loops", "vars", []string{"loops"}},
		{"funcs lists itself", "funcs", []string{"funcs"}},
		{"funcs takes outsider", "funcs", []string{"outsider"}},
		{"new objective after recursion", NewObjective, []string{"recursion"}},
		{"recursion drops funcs", "recursion", []string{"loops"}},
	}

	var out strings.Builder
	for _, tc := range cases {
		fmt.Fprintf(&out, "%s: %s\n", tc.name, render(Validate(tc.objective, tc.proposed, course())))
	}

	g := goldie.New(t)
	g.Assert(t, "validation_report", []byte(out.String()))
}

func TestTopologicalOrderGolden(t *testing.T) {
	live := append(course(), objective("closures", "funcs"))

	ordered, err := TopologicalOrder(live)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "topological_order", []byte(strings.Join(ids(ordered), "\n")+"\n"))
}

func TestTopologicalOrderCountsDuplicateEdges(t *testing.T) {
	live := []models.Objective{
		objective("b", "a", "a"),
		objective("a"),
	}

	ordered, err := TopologicalOrder(live)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(ordered))
}

func TestTopologicalOrderInvariantViolation(t *testing.T) {
	live := []models.Objective{
		objective("a", "b"),
		objective("b", "a"),
		objective("c"),
	}

	_, err := TopologicalOrder(live)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.Contains(t, err.Error(), "ordered 1 of 3")
}

func TestTopologicalOrderEmpty(t *testing.T) {
	ordered, err := TopologicalOrder(nil)
	require.NoError(t, err)
	assert.Empty(t, ordered)
}

// Only validated updates are applied; the resulting graph must always
// linearise completely with prerequisites first.
func TestValidatedUpdatesStayAcyclic(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	const n = 12

	live := make([]models.Objective, n)
	for i := range live {
		live[i] = objective(fmt.Sprintf("o%02d", i))
	}

	accepted := 0
	for step := 0; step < 400; step++ {
		target := rng.IntN(n)
		var proposed []string
		for k := rng.IntN(4); k > 0; k-- {
			proposed = append(proposed, live[rng.IntN(n)].ID)
		}
		r := Validate(live[target].ID, proposed, live)
		if !r.Valid {
			continue
		}
		live[target].Prerequisites = proposed
		accepted++
	}
	require.Positive(t, accepted)

	ordered, err := TopologicalOrder(live)
	require.NoError(t, err)
	require.Len(t, ordered, n)

	position := make(map[string]int, n)
	for i, o := range ordered {
		_, seen := position[o.ID]
		require.False(t, seen, "objective %s listed twice", o.ID)
		position[o.ID] = i
	}
	for _, o := range ordered {
		for _, prereq := range o.Prerequisites {
			assert.Less(t, position[prereq], position[o.ID], "%s must precede %s", prereq, o.ID)
		}
	}
}
