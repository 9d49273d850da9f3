// Package validation holds the input rules shared by the delivery and use case layers.
package validation

import (
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TagAbsURL is the struct tag that applies IsValidURL to a string field.
const TagAbsURL = "abs_url"

var urlValidate = validator.New()

// New returns a validator that reports fields by their json names and
// knows the abs_url tag.
func New() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// The error is only returned for an empty tag or a nil function.
	_ = validate.RegisterValidation(TagAbsURL, func(fl validator.FieldLevel) bool {
		return IsValidURL(fl.Field().String())
	})

	return validate
}

// IsValidURL reports whether candidate is an absolute http or https URL with a
// well-formed host, an optional port in 1-65535 and no user info. Surrounding
// whitespace is not trimmed.
func IsValidURL(candidate string) bool {
	if candidate == "" || strings.ContainsAny(candidate, " \t\r\n") {
		return false
	}

	if err := urlValidate.Var(candidate, "http_url"); err != nil {
		return false
	}

	u, err := url.Parse(candidate)
	if err != nil || u.User != nil {
		return false
	}

	return isValidHost(u.Hostname()) && isValidPort(u.Port())
}

// isValidHost accepts localhost, an IP address or a domain name whose labels
// neither start nor end with a hyphen and whose top-level label is alphabetic.
func isValidHost(host string) bool {
	if host == "" {
		return false
	}

	if err := urlValidate.Var(host, "ip|eq=localhost"); err == nil {
		return true
	}

	if err := urlValidate.Var(host, "fqdn"); err != nil {
		return false
	}

	for _, label := range strings.Split(strings.TrimSuffix(host, "."), ".") {
		if strings.HasSuffix(label, "-") {
			return false
		}
	}

	return true
}

func isValidPort(port string) bool {
	if port == "" {
		return true
	}

	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}
