package scoring

// TermDetails describes every candidate path found for one term.
type TermDetails struct {
	Term      string
	BestScore float64
	Matches   []MatchDetail
}

// MatchDetail describes how one path through the candidate was scored.
type MatchDetail struct {
	Score                   float64
	StartDistance           int
	StartDistanceMultiplier float64
	BestWordMatchLength     int
	BestWordLength          int
	WordPortionScore        float64
	ItemPortionMultiplier   float64
	SpreadMultiplier        float64
	Characters              []CharacterDetail
}

// CharacterDetail describes the contribution of one matched term character.
type CharacterDetail struct {
	Position         int
	Score            float64
	FirstInWord      bool
	Adjacency        int
	FirstInWordScore float64
	AdjacencyScore   float64
}

// Positions returns the candidate offsets matched by the path.
func (m MatchDetail) Positions() []int {
	out := make([]int, len(m.Characters))
	for i, c := range m.Characters {
		out[i] = c.Position
	}
	return out
}
