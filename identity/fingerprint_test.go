package identity

import (
	"testing"

	"estatenexus/models"
)

func TestNormalizeAddress(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"123 Main Street", "123 main st"},
		{"123 main st.", "123 main st"},
		{"45 North Lake Avenue, Apartment 2", "45 n lake ave apt 2"},
		{"  78   Ocean  Boulevard ", "78 ocean blvd"},
	}
	for _, c := range cases {
		if got := NormalizeAddress(c.in); got != c.want {
			t.Errorf("NormalizeAddress(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFingerprint_SpellingVariantsCollide(t *testing.T) {
	a := models.Location{Address: "123 Main Street", City: "Austin", State: "TX", Zip: "78701"}
	b := models.Location{Address: "123 main st.", City: "austin", State: "tx", Zip: "78701-1234"}

	if Fingerprint(a, models.TypeHouse) != Fingerprint(b, models.TypeHouse) {
		t.Fatal("spelling variants of the same address must fingerprint identically")
	}
}

func TestFingerprint_TypeDistinguishesUnits(t *testing.T) {
	loc := models.Location{Address: "9 Harbor Pl", City: "Miami", State: "FL", Zip: "33101"}

	if Fingerprint(loc, models.TypeCondo) == Fingerprint(loc, models.TypeHouse) {
		t.Fatal("different listing categories at one address must not collide")
	}
}
