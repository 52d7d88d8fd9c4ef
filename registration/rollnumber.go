// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package registration validates the student details submitted at sign-up.
package registration

import (
	"errors"
	"fmt"
	"strings"
)

// RollNumberLength is the fixed length of a roll number, e.g. "23BCE10045A01".
const RollNumberLength = 13

var (
	ErrRollNumberLength = fmt.Errorf("roll number must be %d characters", RollNumberLength)
	ErrRollNumberFormat = errors.New("roll number must be alphanumeric and start with a two digit batch")
	ErrYearMismatch     = errors.New("roll number batch does not match academic year")
	ErrInvalidYear      = errors.New("academic year must be between 1 and 4")
)

// batchYears maps the two digit admission batch at the start of a roll
// number to the academic year that batch is currently in.
var batchYears = map[string]int{
	"25": 1,
	"24": 2,
	"23": 3,
	"22": 4,
}

// YearForBatch returns the academic year for a roll number's batch prefix.
func YearForBatch(prefix string) (int, bool) {
	year, ok := batchYears[prefix]
	return year, ok
}

// ValidateRollNumber checks the roll number shape and that its batch prefix
// matches the declared academic year.
func ValidateRollNumber(rollNumber string, year int) error {
	if len(rollNumber) != RollNumberLength {
		return ErrRollNumberLength
	}
	if year < 1 || year > 4 {
		return ErrInvalidYear
	}
	for i, c := range rollNumber {
		isDigit := c >= '0' && c <= '9'
		isLetter := (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
		if i < 2 && !isDigit {
			return ErrRollNumberFormat
		}
		if !isDigit && !isLetter {
			return ErrRollNumberFormat
		}
	}

	batchYear, ok := YearForBatch(rollNumber[:2])
	if !ok || batchYear != year {
		return ErrYearMismatch
	}
	return nil
}

// NormalizeRollNumber upper-cases and trims a roll number.
func NormalizeRollNumber(rollNumber string) string {
	return strings.ToUpper(strings.TrimSpace(rollNumber))
}

// NormalizeSection upper-cases and trims a section code.
func NormalizeSection(section string) string {
	return strings.ToUpper(strings.TrimSpace(section))
}
