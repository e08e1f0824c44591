package credentials

import (
	"crypto/rand"
	"math/big"
)

// Word lists for generating display names
var adjectives = []string{
	"happy", "sunny", "brave", "bright", "clever", "curious", "eager", "gentle",
	"jolly", "kind", "lively", "lucky", "merry", "nimble", "patient", "quick",
	"quiet", "steady", "swift", "witty",
}

var nouns = []string{
	"panda", "crane", "tiger", "dragon", "koi", "lotus", "phoenix", "bamboo",
	"lantern", "scholar", "reader", "explorer", "traveler", "owl", "fox", "heron",
}

// GenerateDisplayName returns a random name in the format "adjective-noun",
// used when a sign-in provider supplies nothing usable
func GenerateDisplayName() (string, error) {
	adjective, err := randomElement(adjectives)
	if err != nil {
		return "", err
	}

	noun, err := randomElement(nouns)
	if err != nil {
		return "", err
	}

	return adjective + "-" + noun, nil
}

// randomElement picks a random element from a string slice
func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}

	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}

	return slice[num.Int64()], nil
}
