// Package identity derives a stable fingerprint for a listing's physical
// address, used to detect duplicate listings at creation time.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"estatenexus/models"
)

var (
	streetReplacements = map[string]string{
		"street":    "st",
		"avenue":    "ave",
		"drive":     "dr",
		"road":      "rd",
		"boulevard": "blvd",
		"lane":      "ln",
		"court":     "ct",
		"place":     "pl",
		"circle":    "cir",
		"terrace":   "ter",
		"highway":   "hwy",
		"parkway":   "pkwy",
		"square":    "sq",
		"north":     "n",
		"south":     "s",
		"east":      "e",
		"west":      "w",
		"apartment": "apt",
		"suite":     "ste",
		"floor":     "fl",
		"building":  "bldg",
	}
	multiSpaceRegex = regexp.MustCompile(`\s+`)
	nonAlnumRegex   = regexp.MustCompile(`[^a-z0-9\s]`)
)

// Fingerprint hashes the normalized address together with the listing
// category so two units at the same address with different types stay
// distinct.
func Fingerprint(loc models.Location, propType models.PropertyType) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%s",
		NormalizeAddress(loc.Address),
		strings.ToLower(strings.TrimSpace(loc.City)),
		strings.ToLower(strings.TrimSpace(loc.State)),
		normalizeZip(loc.Zip),
		strings.ToLower(string(propType)),
	)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:16])
}

// NormalizeAddress lowercases, strips punctuation and collapses common
// street-suffix spellings so "123 Main Street" and "123 main st." collide.
func NormalizeAddress(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	addr = nonAlnumRegex.ReplaceAllString(addr, " ")
	for full, abbrev := range streetReplacements {
		addr = strings.ReplaceAll(addr, full, abbrev)
	}
	addr = multiSpaceRegex.ReplaceAllString(addr, " ")
	return strings.TrimSpace(addr)
}

func normalizeZip(zip string) string {
	zip = strings.ToLower(strings.ReplaceAll(zip, " ", ""))
	// Keep only the primary 5-digit part of ZIP+4 codes.
	if idx := strings.IndexByte(zip, '-'); idx > 0 {
		zip = zip[:idx]
	}
	return zip
}
