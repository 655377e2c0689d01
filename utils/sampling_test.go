package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestSampleWithoutReplacement(t *testing.T) {
	idxs, err := SampleWithoutReplacement(50, 60, NewSource(1))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(idxs), test.ShouldEqual, 50)
	seen := map[int]bool{}
	for _, i := range idxs {
		test.That(t, i, test.ShouldBeBetweenOrEqual, 0, 59)
		test.That(t, seen[i], test.ShouldBeFalse)
		seen[i] = true
	}

	// sparse draw goes through the rejection path
	idxs, err = SampleWithoutReplacement(10, 100000, NewSource(2))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(idxs), test.ShouldEqual, 10)

	idxs, err = SampleWithoutReplacement(0, 10, NewSource(3))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, idxs, test.ShouldBeEmpty)

	_, err = SampleWithoutReplacement(11, 10, NewSource(4))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewRandDeterministic(t *testing.T) {
	a := NewRand(42)
	b := NewRand(42)
	for i := 0; i < 10; i++ {
		test.That(t, a.Float64(), test.ShouldEqual, b.Float64())
	}
	first, err := SampleWithoutReplacement(5, 100, NewSource(7))
	test.That(t, err, test.ShouldBeNil)
	second, err := SampleWithoutReplacement(5, 100, NewSource(7))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first, test.ShouldResemble, second)
}

func TestMath(t *testing.T) {
	test.That(t, RadToDeg(DegToRad(30)), test.ShouldAlmostEqual, 30)
	test.That(t, Square(3), test.ShouldEqual, 9)
	test.That(t, Clamp(1.5, 0, 1), test.ShouldEqual, 1)
	test.That(t, Clamp(-0.5, 0, 1), test.ShouldEqual, 0)
	test.That(t, IsFinite(1), test.ShouldBeTrue)
	test.That(t, AllFinite([]float64{1, 2}), test.ShouldBeTrue)
}
