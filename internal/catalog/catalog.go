// Package catalog ships the console's built-in form schemas and the named
// validators they reference.
package catalog

import (
	"embed"
	"io/fs"
	"regexp"
	"strings"
	"time"

	"github.com/goliatone/go-formengine/pkg/registry"
	"github.com/goliatone/go-formengine/pkg/schema"
)

//go:embed schemas/*.yaml
var files embed.FS

// FS exposes the embedded schema documents.
func FS() fs.FS {
	sub, err := fs.Sub(files, "schemas")
	if err != nil {
		panic(err)
	}
	return sub
}

// Load builds a registry holding every built-in schema with Validators bound.
// Extra options are applied after the built-in validators.
func Load(opts ...registry.Option) (*registry.Registry, error) {
	all := append([]registry.Option{registry.WithValidators(Validators())}, opts...)
	return registry.LoadFS(FS(), all...)
}

// Validators returns the named custom validators referenced by the built-in
// schemas.
func Validators() map[string]schema.CustomFunc {
	return map[string]schema.CustomFunc{
		"slug":            Slug,
		"phone-in":        IndianPhone,
		"pincode":         Pincode,
		"discount-window": DiscountWindow,
	}
}

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	phonePattern   = regexp.MustCompile(`^(?:\+91|0)?[6-9][0-9]{9}$`)
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

// Slug accepts lowercase words joined by single hyphens.
func Slug(value any) string {
	if blank(value) {
		return ""
	}
	s, ok := value.(string)
	if !ok {
		return "Slug must be text"
	}
	if !slugPattern.MatchString(s) {
		return "Use lowercase letters, digits and single hyphens"
	}
	return ""
}

// IndianPhone accepts ten digit mobile numbers with an optional +91 or 0
// prefix. Spaces and dashes are ignored.
func IndianPhone(value any) string {
	if blank(value) {
		return ""
	}
	s, ok := value.(string)
	if !ok {
		return "Phone number must be text"
	}
	normalized := strings.NewReplacer(" ", "", "-", "").Replace(s)
	if !phonePattern.MatchString(normalized) {
		return "Enter a valid Indian mobile number"
	}
	return ""
}

// Pincode accepts six digit postal codes.
func Pincode(value any) string {
	if blank(value) {
		return ""
	}
	s, ok := value.(string)
	if !ok || !pincodePattern.MatchString(strings.TrimSpace(s)) {
		return "Enter a six digit pincode"
	}
	return ""
}

// DiscountWindow checks a {start, end} object of ISO dates where end is not
// before start.
func DiscountWindow(value any) string {
	if blank(value) {
		return ""
	}
	window, ok := value.(map[string]any)
	if !ok {
		return "Discount window must be an object with start and end dates"
	}
	start, err := parseDay(window["start"])
	if err != nil {
		return "Discount window start must be a YYYY-MM-DD date"
	}
	end, err := parseDay(window["end"])
	if err != nil {
		return "Discount window end must be a YYYY-MM-DD date"
	}
	if end.Before(start) {
		return "Discount window ends before it starts"
	}
	return ""
}

// blank values are left to the required check.
func blank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case map[string]any:
		return len(v) == 0
	}
	return false
}

func parseDay(v any) (time.Time, error) {
	s, _ := v.(string)
	return time.Parse(time.DateOnly, strings.TrimSpace(s))
}
