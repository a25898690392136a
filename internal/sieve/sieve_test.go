package sieve

import (
	"reflect"
	"testing"
)

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

func TestEratosthenesKnownValues(t *testing.T) {
	cases := map[int][]int{
		-5: {},
		0:  {},
		1:  {},
		2:  {2},
		3:  {2, 3},
		4:  {2, 3},
		10: {2, 3, 5, 7},
		30: {2, 3, 5, 7, 11, 13, 17, 19, 23, 29},
	}
	for n, want := range cases {
		got := Eratosthenes(n)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Eratosthenes(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestEratosthenesAgainstTrialDivision(t *testing.T) {
	for n := 0; n <= 500; n++ {
		primes := Eratosthenes(n)
		var want []int
		for i := 0; i <= n; i++ {
			if isPrime(i) {
				want = append(want, i)
			}
		}
		if len(primes) != len(want) {
			t.Fatalf("n=%d: got %d primes, want %d", n, len(primes), len(want))
		}
		for i, p := range primes {
			if p != want[i] {
				t.Fatalf("n=%d: index %d got %d want %d", n, i, p, want[i])
			}
			if i > 0 && primes[i-1] >= p {
				t.Fatalf("n=%d: not strictly ascending at %d", n, i)
			}
		}
	}
}

func TestEratosthenesCount(t *testing.T) {
	if got := len(Eratosthenes(100000)); got != 9592 {
		t.Fatalf("expected 9592 primes below 100000, got %d", got)
	}
}

func TestEratosthenesRepeatable(t *testing.T) {
	first := Eratosthenes(1000)
	for i := 0; i < 5; i++ {
		if !reflect.DeepEqual(first, Eratosthenes(1000)) {
			t.Fatal("results differ between calls")
		}
	}
}

func TestMarkOff(t *testing.T) {
	markers := []bool{true, true, true, true, true, true, true, true, true, true}
	markOff(markers, 3)
	want := []bool{true, true, true, true, true, true, false, true, true, false}
	if !reflect.DeepEqual(markers, want) {
		t.Fatalf("unexpected markers: %v", markers)
	}
}

func TestLargest(t *testing.T) {
	primes := Eratosthenes(30)
	if got := Largest(primes, 3); !reflect.DeepEqual(got, []int{29, 23, 19}) {
		t.Errorf("unexpected largest: %v", got)
	}
	if got := Largest(Eratosthenes(4), 3); !reflect.DeepEqual(got, []int{3, 2}) {
		t.Errorf("unexpected largest for short list: %v", got)
	}
	if got := Largest(nil, 3); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
	if got := Largest(primes, 0); len(got) != 0 {
		t.Errorf("expected empty, got %v", got)
	}
}

func BenchmarkEratosthenes(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Eratosthenes(1000000)
	}
}
