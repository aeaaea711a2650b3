package core

// RankFlags are signals that adjust a result's rank independently of its
// text-match score.
type RankFlags uint32

const (
	RankNameMatch RankFlags = 1 << iota
	RankUserPersistentPath
	RankLaunchable
	RankSpecialUI
	RankUnderHome
	RankUnderDownloads
	RankUnderDesktop
	RankSpam
	RankHomeChild
	RankBelowFold
)

const (
	spamPenalty     = 0.25
	belowFoldFactor = 0.5
	flagBonus       = 0.05
)

// positiveFlags each close a small fraction of the gap between rank and 1.
var positiveFlags = []RankFlags{
	RankNameMatch,
	RankUserPersistentPath,
	RankLaunchable,
	RankSpecialUI,
	RankUnderHome,
	RankUnderDownloads,
	RankUnderDesktop,
	RankHomeChild,
}

// Has reports whether every bit in flag is set.
func (f RankFlags) Has(flag RankFlags) bool { return f&flag == flag }

// AdjustRank applies flags to rank. The result stays in [0,1] and equals rank
// when no flags are set.
func AdjustRank(rank float64, flags RankFlags) float64 {
	rank = clampRank(rank)
	for _, flag := range positiveFlags {
		if flags.Has(flag) {
			rank += (1 - rank) * flagBonus
		}
	}
	if flags.Has(RankSpam) {
		rank *= spamPenalty
	}
	if flags.Has(RankBelowFold) {
		rank *= belowFoldFactor
	}
	return clampRank(rank)
}

func clampRank(rank float64) float64 {
	switch {
	case rank != rank: // NaN
		return 0
	case rank < 0:
		return 0
	case rank > 1:
		return 1
	}
	return rank
}
