package core

// FurigomaThrows is the number of hei thrown to decide who moves first.
const FurigomaThrows = 5

// Randomizer is the source of chance for furigoma. *rand.Rand satisfies it.
type Randomizer interface {
	Intn(n int) int
}

// throwHei throws FurigomaThrows hei and returns the face each landed on.
func throwHei(rng Randomizer) []Face {
	result := make([]Face, FurigomaThrows)
	for i := range result {
		if rng.Intn(2) == 0 {
			result[i] = FaceOmote
		} else {
			result[i] = FaceUra
		}
	}
	return result
}

// initiatorMovesFirst reports whether the throws favour the player who threw.
// The thrower always calls omote.
func initiatorMovesFirst(result []Face) bool {
	omote := 0
	for _, f := range result {
		if f == FaceOmote {
			omote++
		}
	}
	return omote*2 > len(result)
}
