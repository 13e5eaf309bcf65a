package testutil

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestAssertEqual(t *testing.T) {
	AssertEqual(t, 1, 1)
	AssertEqual(t, "a", "a")
}

func TestAssertNil(t *testing.T) {
	AssertNil(t, nil)
}

func TestAssertError(t *testing.T) {
	AssertError(t, errors.New("boom"))
}

func TestAssertErrorIs(t *testing.T) {
	base := errors.New("base")
	AssertErrorIs(t, fmt.Errorf("wrapped: %w", base), base)
}

func TestAssertContains(t *testing.T) {
	AssertContains(t, "Bucheggplatz", "egg")
	AssertContains(t, "anything", "")
}

func TestAssertNotContains(t *testing.T) {
	AssertNotContains(t, "Bucheggplatz", "Bahnhof")
}

func TestAssertTimeEqual(t *testing.T) {
	now := time.Now()
	AssertTimeEqual(t, now, now.Add(500*time.Millisecond), time.Second)
}

func TestAssertTrueFalse(t *testing.T) {
	AssertTrue(t, true)
	AssertFalse(t, false)
}

func TestAssertLen(t *testing.T) {
	AssertLen(t, []int{1, 2, 3}, 3)
	AssertLen(t, []string{}, 0)
}

func TestEventually(t *testing.T) {
	start := time.Now()
	Eventually(t, time.Second, func() bool {
		return time.Since(start) > 20*time.Millisecond
	})
}
