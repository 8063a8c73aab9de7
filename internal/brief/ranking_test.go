package brief

import (
	"strconv"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genRankableThreads() gopter.Gen {
	base := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	tiers := []Importance{ImportanceLow, ImportanceMedium, ImportanceHigh}
	return gen.SliceOf(gen.IntRange(0, 100000)).Map(func(seeds []int) []EmailThread {
		threads := make([]EmailThread, len(seeds))
		for i, s := range seeds {
			threads[i] = EmailThread{
				ID:              "rank-" + strconv.Itoa(i),
				Subject:         "subject " + strconv.Itoa(s),
				UrgencyScore:    s % 11,
				Importance:      tiers[s%3],
				LastMessageDate: base.Add(time.Duration(s%72) * time.Hour),
			}
		}
		return threads
	})
}

func rankedBefore(a, b EmailThread) bool {
	if a.Importance.Weight() != b.Importance.Weight() {
		return a.Importance.Weight() > b.Importance.Weight()
	}
	if a.UrgencyScore != b.UrgencyScore {
		return a.UrgencyScore > b.UrgencyScore
	}
	if !a.LastMessageDate.Equal(b.LastMessageDate) {
		return a.LastMessageDate.After(b.LastMessageDate)
	}
	return a.ID < b.ID
}

func TestProperty_Ranking(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("output_is_totally_ordered", prop.ForAll(
		func(threads []EmailThread) bool {
			ranked := RankThreads(threads)
			for i := 1; i < len(ranked); i++ {
				if rankedBefore(ranked[i], ranked[i-1]) {
					return false
				}
			}
			return true
		},
		genRankableThreads(),
	))

	properties.Property("permutation_invariant", prop.ForAll(
		func(threads []EmailThread) bool {
			reversed := make([]EmailThread, len(threads))
			for i, th := range threads {
				reversed[len(threads)-1-i] = th
			}
			a := RankThreads(threads)
			b := RankThreads(reversed)
			if len(a) != len(b) {
				return false
			}
			for i := range a {
				if a[i].ID != b[i].ID {
					return false
				}
			}
			return true
		},
		genRankableThreads(),
	))

	properties.Property("input_not_reordered", prop.ForAll(
		func(threads []EmailThread) bool {
			ids := make([]string, len(threads))
			for i, th := range threads {
				ids[i] = th.ID
			}
			RankThreads(threads)
			for i, th := range threads {
				if th.ID != ids[i] {
					return false
				}
			}
			return true
		},
		genRankableThreads(),
	))

	properties.Property("top_is_a_prefix_of_the_ranking", prop.ForAll(
		func(threads []EmailThread, n int) bool {
			ranked := RankThreads(threads)
			top := TopThreads(ranked, n)
			if n < 0 && len(top) != 0 {
				return false
			}
			if len(top) > len(ranked) || (n >= 0 && len(top) > n) {
				return false
			}
			for i := range top {
				if top[i].ID != ranked[i].ID {
					return false
				}
			}
			return true
		},
		genRankableThreads(),
		gen.IntRange(-2, 20),
	))

	properties.TestingRun(t)
}

func TestRankThreads_Scenarios(t *testing.T) {
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	threads := []EmailThread{
		{ID: "d", Subject: "old low", Importance: ImportanceLow, UrgencyScore: 1, LastMessageDate: base.Add(-48 * time.Hour)},
		{ID: "b", Subject: "tie on everything", Importance: ImportanceHigh, UrgencyScore: 8, LastMessageDate: base},
		{ID: "a", Subject: "tie on everything", Importance: ImportanceHigh, UrgencyScore: 8, LastMessageDate: base},
		{ID: "c", Subject: "high but older", Importance: ImportanceHigh, UrgencyScore: 8, LastMessageDate: base.Add(-time.Hour)},
		{ID: "e", Subject: "medium urgent", Importance: ImportanceMedium, UrgencyScore: 10, LastMessageDate: base},
	}

	ranked := RankThreads(threads)
	wantOrder := []string{"a", "b", "c", "e", "d"}
	for i, want := range wantOrder {
		if ranked[i].ID != want {
			t.Fatalf("position %d = %q, want %q (full order %v)", i, ranked[i].ID, want, idsOf(ranked))
		}
	}
}

func idsOf(threads []EmailThread) []string {
	ids := make([]string, len(threads))
	for i, th := range threads {
		ids[i] = th.ID
	}
	return ids
}

func TestTopThreads(t *testing.T) {
	ranked := []EmailThread{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	if got := TopThreads(ranked, 2); len(got) != 2 || got[0].ID != "1" {
		t.Errorf("TopThreads(2) = %v", idsOf(got))
	}
	if got := TopThreads(ranked, 10); len(got) != 3 {
		t.Errorf("TopThreads beyond length should return all, got %d", len(got))
	}
	if got := TopThreads(ranked, 0); len(got) != 0 {
		t.Errorf("TopThreads(0) should be empty, got %d", len(got))
	}
}
