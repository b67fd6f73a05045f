package math

import (
	"math"
	"testing"
)

func TestAdd64(t *testing.T) {
	sum, overflow := Add64(math.MaxUint64, 1)
	if !overflow {
		t.Fatal("Expect overflow")
	}

	sum, overflow = Add64(math.MaxUint64-1, 1)
	if overflow {
		t.Fatal("Unexpected overflow")
	}

	if sum != math.MaxUint64 {
		t.Fatalf("Wrong sum %d", sum)
	}
}

func TestSub64(t *testing.T) {
	diff, borrow := Sub64(0, 1)
	if !borrow {
		t.Fatal("Expect borrow")
	}

	diff, borrow = Sub64(10, 4)
	if borrow {
		t.Fatal("Unexpected borrow")
	}

	if diff != 6 {
		t.Fatalf("Wrong diff %d", diff)
	}
}

func TestMul64(t *testing.T) {
	prod, overflow := Mul64(math.MaxUint64, 2)
	if !overflow {
		t.Fatal("Expect overflow")
	}

	prod, overflow = Mul64(1<<32, 1<<31)
	if overflow {
		t.Fatal("Unexpected overflow")
	}

	if prod != 1<<63 {
		t.Fatalf("Wrong product %d", prod)
	}
}
