// Package model defines the core data types for the icon service.
// Struct tags tell serialization libraries how to map fields: `json` for the
// API and `binding` for gin's request validation.
package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when a company URL isn't an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid company url")

// Company is a company to find an icon for.
type Company struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// CompanyInput is a single entry of a batch request as it arrives on the wire.
// Name is a pointer so that a missing name fails `required` while an empty
// one is accepted. `http_url` is a go-playground/validator rule (gin's
// validator): it requires an http or https scheme and a host, so
// "not-a-url" fails the whole request.
type CompanyInput struct {
	Name *string `json:"name" binding:"required"`
	URL  string  `json:"url" binding:"required,http_url"`
}

// Company converts a validated input. A nil Name becomes "".
func (c CompanyInput) Company() Company {
	var name string
	if c.Name != nil {
		name = *c.Name
	}
	return Company{Name: name, URL: c.URL}
}

// CompanyList is the request body of POST /get_icons.
// `dive` makes the validator descend into each element of the slice.
type CompanyList struct {
	Companies []CompanyInput `json:"companies" binding:"required,dive"`
}

// NewCompanyList builds a request body for companies.
func NewCompanyList(companies []Company) CompanyList {
	inputs := make([]CompanyInput, len(companies))
	for i, c := range companies {
		name := c.Name
		inputs[i] = CompanyInput{Name: &name, URL: c.URL}
	}
	return CompanyList{Companies: inputs}
}

// ToCompanies returns the entries as Companies, in order.
func (l CompanyList) ToCompanies() []Company {
	companies := make([]Company, len(l.Companies))
	for i, in := range l.Companies {
		companies[i] = in.Company()
	}
	return companies
}

// CompanyWithIcon is a single entry of the batch response.
// IconURL is the empty string when no icon was found.
type CompanyWithIcon struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	IconURL string `json:"icon_url"`
}

// NormalizeURL renders a company URL in its canonical form. Scheme and host
// are lower-cased and a bare domain gets a trailing slash, so
// "https://Example.com" and "https://example.com/" yield the same string.
// The result is used as the cache key and echoed back in responses.
func NormalizeURL(raw string) (string, error) {
	u, err := ParseURL(raw)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// ParseURL parses and normalizes a company URL.
func ParseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q has no http(s) scheme", ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrInvalidURL, raw)
	}

	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}
