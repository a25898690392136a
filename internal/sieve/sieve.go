package sieve

// Eratosthenes returns every prime in [2, n] in ascending order.
// n below 2 yields an empty slice.
func Eratosthenes(n int) []int {
	if n < 2 {
		return []int{}
	}
	markers := make([]bool, n+1)
	for i := range markers {
		markers[i] = true
	}

	markOff(markers, 2)
	for i := 3; i <= n; i++ {
		if markers[i] {
			markOff(markers, i)
		}
	}

	var primes []int
	for i := 2; i <= n; i++ {
		if markers[i] {
			primes = append(primes, i)
		}
	}
	return primes
}

// markOff clears every strict multiple of seed.
func markOff(markers []bool, seed int) {
	for i := seed + seed; i < len(markers); i += seed {
		markers[i] = false
	}
}

// Largest returns up to k of the largest values of the ascending slice
// primes, largest first.
func Largest(primes []int, k int) []int {
	if k > len(primes) {
		k = len(primes)
	}
	if k <= 0 {
		return []int{}
	}
	out := make([]int, 0, k)
	for i := len(primes) - 1; len(out) < k; i-- {
		out = append(out, primes[i])
	}
	return out
}
