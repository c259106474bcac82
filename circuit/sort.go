package circuit

import (
	"math/big"
	"sort"
)

func sortBigInts(s []*big.Int) {
	sort.Slice(s, func(i, j int) bool {
		return s[i].Cmp(s[j]) < 0
	})
}

func sortBoundPairs(s [][2]*big.Int) {
	sort.Slice(s, func(i, j int) bool {
		if c := s[i][0].Cmp(s[j][0]); c != 0 {
			return c < 0
		}
		return s[i][1].Cmp(s[j][1]) < 0
	})
}
