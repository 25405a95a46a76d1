package utils

import "golang.org/x/exp/rand"

// Shuffle permutes slice in place using r.
func Shuffle[T any](r *rand.Rand, slice []T) {
	r.Shuffle(len(slice), func(i, j int) {
		slice[i], slice[j] = slice[j], slice[i]
	})
}

// Pick returns a uniformly chosen element. It panics on an empty slice.
func Pick[T any](r *rand.Rand, slice []T) T {
	return slice[r.Intn(len(slice))]
}
