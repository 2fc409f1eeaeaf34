package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"farmfresh/internal/domain"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhone = regexp.MustCompile(`^\+?[0-9 ()-]{6,20}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// Email trims and lower-cases an address and checks its shape.
func Email(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Password enforces the length window bcrypt can handle.
func Password(s string) bool {
	return len(s) >= 8 && len(s) <= 72
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && rePhone.MatchString(s)
}

// ID validates a resource identifier (user/product/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > 100 {
		return "", false
	}
	return s, true
}

// Q normalises a search query. Input is matched literally, so only the
// length is bounded.
func Q(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > 100 {
		s = string([]rune(s)[:100])
	}
	return s
}

// Qty parses a whole number. It does not range-check.
func Qty(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

// Price parses a finite number. It does not range-check.
func Price(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Bool accepts the spellings strconv.ParseBool does (true/false, 1/0, t/f).
func Bool(s string) (bool, bool) {
	b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(s)))
	return b, err == nil
}

// PickupDate accepts a calendar date (2006-01-02) or a full RFC 3339 time.
func PickupDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// SortBy drops unknown sort keys, which means newest first.
func SortBy(s string) string {
	switch s = strings.TrimSpace(s); s {
	case domain.SortPriceAsc, domain.SortPriceDesc, domain.SortNameAsc, domain.SortNameDesc:
		return s
	}
	return ""
}

// Tags splits a comma separated list, lower-cases it and drops blanks and
// duplicates.
func Tags(s string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, t := range strings.Split(s, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// ProductForm reads product fields from form values. A blank value is
// treated as not supplied. Numbers that do not parse are a validation error;
// range checks are left to the catalog service.
func ProductForm(get func(key string) string) (domain.ProductInput, error) {
	const op = "validate.ProductForm"
	var in domain.ProductInput

	if v := strings.TrimSpace(get("name")); v != "" {
		in.Name = &v
	}
	if v := strings.TrimSpace(get("description")); v != "" {
		in.Description = &v
	}
	if v := strings.ToLower(strings.TrimSpace(get("category"))); v != "" {
		c := domain.Category(v)
		in.Category = &c
	}
	if v := strings.ToLower(strings.TrimSpace(get("unit"))); v != "" {
		u := domain.Unit(v)
		in.Unit = &u
	}
	if v := strings.TrimSpace(get("price")); v != "" {
		f, ok := Price(v)
		if !ok {
			return in, domain.Validation(op, "price must be a number")
		}
		in.Price = &f
	}
	if v := strings.TrimSpace(get("availableQuantity")); v != "" {
		n, ok := Qty(v)
		if !ok {
			return in, domain.Validation(op, "availableQuantity must be a whole number")
		}
		in.AvailableQuantity = &n
	}
	if v := strings.TrimSpace(get("minOrderQuantity")); v != "" {
		n, ok := Qty(v)
		if !ok {
			return in, domain.Validation(op, "minOrderQuantity must be a whole number")
		}
		in.MinOrderQuantity = &n
	}
	if v := strings.TrimSpace(get("isOrganicCertified")); v != "" {
		b, ok := Bool(v)
		if !ok {
			return in, domain.Validation(op, "isOrganicCertified must be true or false")
		}
		in.IsOrganicCertified = &b
	}
	if v := strings.TrimSpace(get("tags")); v != "" {
		tags := Tags(v)
		in.Tags = &tags
	}
	return in, nil
}
