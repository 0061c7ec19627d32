package service

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// randomCode returns n base32 characters from crypto/rand
func randomCode(n int) (string, error) {
	buf := make([]byte, (n*5+7)/8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return codeEncoding.EncodeToString(buf)[:n], nil
}

func idFragment(id uuid.UUID) string {
	return strings.ToUpper(hex.EncodeToString(id[:2]))
}

// affiliateCode builds AFF-<seller 4 hex><product 4 hex><10 random>
func affiliateCode(sellerID, productID uuid.UUID) (string, error) {
	suffix, err := randomCode(10)
	if err != nil {
		return "", err
	}
	return "AFF-" + idFragment(sellerID) + idFragment(productID) + suffix, nil
}

// orderNumber builds ORD-YYYYMMDD-<6 random>
func orderNumber(now time.Time) (string, error) {
	suffix, err := randomCode(6)
	if err != nil {
		return "", err
	}
	return "ORD-" + now.UTC().Format("20060102") + "-" + suffix, nil
}

// enquirySKU builds ENQ-<8 hex> for products created from approved enquiries
func enquirySKU() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return "ENQ-" + strings.ToUpper(hex.EncodeToString(buf)), nil
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
