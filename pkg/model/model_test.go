package model

import (
	"testing"
	"time"
)

func TestValidRange(t *testing.T) {
	cases := []struct {
		start, end uint32
		want       bool
	}{
		{0, 1, true},
		{5, 10, true},
		{5, 5, false},
		{10, 5, false},
		{0, 0, false},
	}
	for _, c := range cases {
		if got := ValidRange(c.start, c.end); got != c.want {
			t.Errorf("ValidRange(%d, %d) = %v, want %v", c.start, c.end, got, c.want)
		}
	}
}

func TestMetadataActive(t *testing.T) {
	now := time.Now().UTC()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	noExpiry := Metadata{}
	if !noExpiry.Active(now) {
		t.Fatal("expected a nil expiration date to be active")
	}

	notYetExpired := Metadata{ExpirationDate: &future}
	if !notYetExpired.Active(now) {
		t.Fatal("expected a future expiration date to be active")
	}

	exactlyNow := Metadata{ExpirationDate: &now}
	if !exactlyNow.Active(now) {
		t.Fatal("expected an expiration date equal to now to still be active (inclusive)")
	}

	expired := Metadata{ExpirationDate: &past}
	if expired.Active(now) {
		t.Fatal("expected a past expiration date to be inactive")
	}
}
