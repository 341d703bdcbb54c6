// Package validation checks person and organisation records before they are created in the ODS
package validation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/normalizers"
)

var (
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobileRegex   = regexp.MustCompile(`^(\+?61|0)4\d{8}$`)
	landlineRegex = regexp.MustCompile(`^(\+?61|0)[2-9]\d{8}$`)
	isoDateRegex  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	elevenDigits  = regexp.MustCompile(`^\d{11}$`)
	nineDigits    = regexp.MustCompile(`^\d{9}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("ods_email", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("au_phone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	})
	_ = v.RegisterValidation("abn", func(fl validator.FieldLevel) bool {
		return IsValidABN(fl.Field().String())
	})
	_ = v.RegisterValidation("acn", func(fl validator.FieldLevel) bool {
		return IsValidACN(fl.Field().String())
	})
	return v
}

// Validator returns the shared validator with the ods_email, au_phone, abn and acn tags registered.
func Validator() *validator.Validate {
	return validate
}

func IsValidEmail(email string) bool {
	return email != "" && emailRegex.MatchString(email)
}

// IsValidPhone accepts Australian mobile and landline numbers, with or without +61.
func IsValidPhone(phone string) bool {
	if phone == "" {
		return false
	}
	cleaned := normalizers.StripPhoneSeparators(phone)
	return mobileRegex.MatchString(cleaned) || landlineRegex.MatchString(cleaned)
}

// IsValidDate accepts YYYY-MM-DD strings (years 1900-2100) and PureDate numbers.
func IsValidDate(date any) bool {
	switch v := date.(type) {
	case float64:
		return v == float64(int(v)) && v >= 10000101 && v <= 99991231
	case int:
		return v >= 10000101 && v <= 99991231
	case string:
		if !isoDateRegex.MatchString(v) {
			return false
		}
		year, _ := strconv.Atoi(v[0:4])
		month, _ := strconv.Atoi(v[5:7])
		day, _ := strconv.Atoi(v[8:10])
		return year >= 1900 && year <= 2100 && month >= 1 && month <= 12 && day >= 1 && day <= 31
	}
	return false
}

var abnWeights = []int{10, 1, 3, 5, 7, 9, 11, 13, 15, 17, 19}

// IsValidABN applies the ATO modulus 89 check to an 11 digit ABN.
func IsValidABN(abn string) bool {
	cleaned := normalizers.RemoveWhitespace(abn)
	if !elevenDigits.MatchString(cleaned) {
		return false
	}

	sum := 0
	for i, w := range abnWeights {
		digit := int(cleaned[i] - '0')
		if i == 0 {
			digit--
		}
		sum += digit * w
	}
	return sum%89 == 0
}

// IsValidACN applies the ASIC modulus 10 check digit to a 9 digit ACN.
func IsValidACN(acn string) bool {
	cleaned := normalizers.RemoveWhitespace(acn)
	if !nineDigits.MatchString(cleaned) {
		return false
	}

	sum := 0
	for i := 0; i < 8; i++ {
		sum += int(cleaned[i]-'0') * (8 - i)
	}
	check := (10 - sum%10) % 10
	return check == int(cleaned[8]-'0')
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
