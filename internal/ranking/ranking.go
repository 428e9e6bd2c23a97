// Package ranking turns solve sequences into comparable results and total
// orderings of a room's participants. It is pure computation with no store
// access, so the controller can call it inside a per-room critical section.
package ranking

import (
	"sort"

	"cuberooms/internal/model"
)

// Compute derives the participant's current comparable result under the
// room's format.
//
// single: best counting time; DNF when every attempt is a DNF.
// ao5/ao12: the trimmed mean once all N solves exist. Fewer than N solves
// yields a provisional best-single result, never a partial average.
func Compute(solves []model.Solve, format model.Format) model.Result {
	total := format.SolveCount()

	if format == model.FormatSingle || len(solves) < total {
		res := bestSingle(solves)
		res.Provisional = format != model.FormatSingle || len(solves) < total
		return res
	}

	return trimmedMean(solves[:total])
}

// bestSingle is the lowest counting time, or DNF when nothing counts.
func bestSingle(solves []model.Solve) model.Result {
	best := model.Result{DNF: true}
	for _, s := range solves {
		ms, ok := s.EffectiveMs()
		if !ok {
			continue
		}
		if best.DNF || ms < best.TimeMs {
			best = model.Result{TimeMs: ms}
		}
	}
	return best
}

// trimmedMean drops the best and worst of N attempts and averages the rest,
// per the competitive-cubing convention. One DNF lands in the dropped worst
// slot; a second DNF makes the whole average a DNF.
func trimmedMean(solves []model.Solve) model.Result {
	n := len(solves)
	dnfs := 0
	times := make([]int64, 0, n)
	for _, s := range solves {
		ms, ok := s.EffectiveMs()
		if !ok {
			dnfs++
			continue
		}
		times = append(times, ms)
	}
	if dnfs >= 2 {
		return model.Result{DNF: true}
	}

	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	// Drop the best. The worst is the DNF if there is one, otherwise the
	// highest time.
	counted := times[1:]
	if dnfs == 0 {
		counted = times[1 : len(times)-1]
	}

	var sum int64
	for _, ms := range counted {
		sum += ms
	}
	k := int64(len(counted))
	return model.Result{TimeMs: (sum + k/2) / k}
}

// Standing pairs a participant with their result for ordering.
type Standing struct {
	Participant *model.Participant
	Result      model.Result
	Rank        int
}

// Standings computes and totally orders a room's participants: finite results
// ascending, DNFs last, DNF pairs broken by earlier join. The order is
// deterministic for any input permutation.
func Standings(participants []*model.Participant, format model.Format) []Standing {
	out := make([]Standing, len(participants))
	for i, p := range participants {
		res := Compute(p.Solves, format)
		if p.FinalResult != nil {
			res = *p.FinalResult
		}
		out[i] = Standing{Participant: p, Result: res}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Result.Better(b.Result) {
			return true
		}
		if b.Result.Better(a.Result) {
			return false
		}
		if a.Result.Ties(b.Result) {
			// Exact tie: keep a deterministic order for display.
			return a.Participant.JoinedAt.Before(b.Participant.JoinedAt)
		}
		// Both DNF (or no counting solves): earlier join ranks first.
		return a.Participant.JoinedAt.Before(b.Participant.JoinedAt)
	})
	return out
}

// Finalize orders participants and assigns competition ranks: exact
// millisecond ties share a rank and the next distinct result skips past them;
// DNFs never tie each other, so they take distinct trailing ranks in join
// order.
func Finalize(participants []*model.Participant, format model.Format) []Standing {
	standings := Standings(participants, format)
	for i := range standings {
		if i > 0 && standings[i].Result.Ties(standings[i-1].Result) {
			standings[i].Rank = standings[i-1].Rank
			continue
		}
		standings[i].Rank = i + 1
	}
	return standings
}
