package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// Terms-and-conditions types accepted in TERMS_AND_CONDITIONS TYPE.
const (
	TermsNone                 = "none"
	TermsLogionClassification = "logion_classification"
	TermsCreativeCommons      = "CC4.0"
	TermsSpecificLicense      = "specific_license"
)

// TermsTypes lists the types ValidateTerms accepts, scaffold choices included.
var TermsTypes = []string{TermsNone, TermsLogionClassification, TermsCreativeCommons, TermsSpecificLicense}

var creativeCommonsCodes = map[string]struct{}{
	"BY":       {},
	"BY-SA":    {},
	"BY-NC":    {},
	"BY-NC-SA": {},
	"BY-ND":    {},
	"BY-NC-ND": {},
}

// transferredRights maps logion classification codes to their description.
var transferredRights = map[string]string{
	"PER-PRIV":  "personal, private use",
	"PER-PUB":   "personal, public use",
	"COM-NOMOD": "commercial use without modification",
	"COM-MOD":   "commercial use with modification",
	"EX":        "exclusive",
	"NOEX":      "non-exclusive",
	"WW":        "worldwide",
	"REG":       "regional limit",
	"NOTIME":    "no time limit",
	"TIME":      "time limit",
	"NOSUB":     "no sublicensing",
	"SUB":       "sublicensing",
}

// LogionClassification is the JSON payload of logion_classification terms.
type LogionClassification struct {
	TransferredRights []string `json:"transferredRights"`
	RegionalLimit     []string `json:"regionalLimit,omitempty"`
	Expiration        string   `json:"expiration,omitempty"`
}

// ValidateTerms checks a (type, parameters) pair from the terms columns.
func ValidateTerms(termsType, parameters string) error {
	switch termsType {
	case TermsNone:
		return nil
	case TermsLogionClassification:
		_, err := ParseLogionClassification(parameters)
		return err
	case TermsCreativeCommons:
		if _, ok := creativeCommonsCodes[parameters]; !ok {
			return fmt.Errorf("CC4.0: invalid code: %s", parameters)
		}
		return nil
	case TermsSpecificLicense:
		if _, ok := ParseLocID(parameters); !ok {
			return fmt.Errorf("specific_license: invalid LOC ID: %s", parameters)
		}
		return nil
	default:
		return fmt.Errorf("Unknown T&C type: %s", termsType)
	}
}

// ParseLogionClassification decodes and validates logion_classification parameters.
func ParseLogionClassification(parameters string) (*LogionClassification, error) {
	var lc LogionClassification
	dec := json.NewDecoder(strings.NewReader(parameters))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&lc); err != nil {
		return nil, fmt.Errorf("logion_classification: invalid parameters: %w", err)
	}

	if len(lc.TransferredRights) == 0 {
		return nil, errors.New("logion_classification: at least one transferred right is required")
	}

	var regional, timed bool
	var unknown []string
	for _, code := range lc.TransferredRights {
		if _, ok := transferredRights[code]; !ok {
			unknown = append(unknown, code)
		}
		switch code {
		case "REG":
			regional = true
		case "TIME":
			timed = true
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("logion_classification: unknown transferred right(s): %s", strings.Join(unknown, ","))
	}

	if regional && len(lc.RegionalLimit) == 0 {
		return nil, errors.New("logion_classification: REG requires a regional limit")
	}
	unknown = unknown[:0]
	for _, country := range lc.RegionalLimit {
		if !IsCountryCode(country) {
			unknown = append(unknown, country)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("Unknown Country code(s): %s", strings.Join(unknown, ","))
	}

	if timed && lc.Expiration == "" {
		return nil, errors.New("logion_classification: TIME requires an expiration date")
	}
	if lc.Expiration != "" {
		if _, err := time.Parse(time.DateOnly, lc.Expiration); err != nil {
			return nil, fmt.Errorf("logion_classification: invalid expiration date: %s", lc.Expiration)
		}
	}

	return &lc, nil
}

// IsCountryCode reports whether s is an upper-case ISO 3166-1 alpha-2
// country code. Groupings such as EU and the unknown region ZZ are rejected.
func IsCountryCode(s string) bool {
	if len(s) != 2 || s != strings.ToUpper(s) {
		return false
	}
	r, err := language.ParseRegion(s)
	if err != nil {
		return false
	}
	return r.IsCountry() && r.String() == s
}

// ParseLocID accepts a LOC id in UUID form or as a decimal 128-bit integer.
func ParseLocID(s string) (uuid.UUID, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, false
	}
	if id, err := uuid.Parse(s); err == nil {
		return id, true
	}

	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 || n.BitLen() > 128 {
		return uuid.Nil, false
	}
	var id uuid.UUID
	n.FillBytes(id[:])
	return id, true
}
