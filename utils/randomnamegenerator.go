package utils

import (
	"math/rand"
	"time"

	"github.com/Pallinder/go-randomdata"
)

// RandomNameGenerator hands out silly display names for uploaded
// models, unique within one process lifetime.
type RandomNameGenerator map[string]struct{}

func (rng *RandomNameGenerator) RandomName() string {
	if *rng == nil {
		*rng = make(map[string]struct{})
		randomdata.CustomRand(rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	for {
		name := randomdata.SillyName()
		// avoid duplicate names
		if _, exists := (*rng)[name]; !exists {
			(*rng)[name] = struct{}{}
			return name
		}
	}
}
