package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fleveque/company-icons/internal/model"
	"github.com/fleveque/company-icons/internal/storage"
)

// loadCompanies reads companies from a JSON file (either a bare list or a
// {"companies": [...]} request body) followed by name=url arguments.
func loadCompanies(path string, args []string) ([]model.Company, error) {
	var companies []model.Company

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		fromFile, err := decodeCompanies(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		companies = append(companies, fromFile...)
	}

	for _, arg := range args {
		c, err := parseCompanyArg(arg)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, nil
}

func decodeCompanies(data []byte) ([]model.Company, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []model.Company
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var body model.CompanyList
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, err
	}
	return body.ToCompanies(), nil
}

// parseCompanyArg splits "Name=https://example.com". Only the first '=' counts,
// so query strings in the URL survive.
func parseCompanyArg(arg string) (model.Company, error) {
	name, rawURL, ok := strings.Cut(arg, "=")
	name, rawURL = strings.TrimSpace(name), strings.TrimSpace(rawURL)
	if !ok || name == "" || rawURL == "" {
		return model.Company{}, fmt.Errorf("invalid company %q: want name=url", arg)
	}
	return model.Company{Name: name, URL: rawURL}, nil
}

// validateCompanies returns the first company whose URL is not an absolute
// http(s) URL.
func validateCompanies(companies []model.Company) error {
	for i, c := range companies {
		if _, err := model.ParseURL(c.URL); err != nil {
			return fmt.Errorf("company %d (%q): %w", i+1, c.Name, err)
		}
	}
	return nil
}

func printResults(w io.Writer, results []model.CompanyWithIcon, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "pretty":
		for _, r := range results {
			icon := r.IconURL
			if icon == "" {
				icon = "Not found"
			}
			fmt.Fprintf(w, "Company: %s\nURL: %s\nIcon URL: %s\n---\n", r.Name, r.URL, icon)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want pretty or json)", format)
	}
}

func printLLMUsage(ctx context.Context, w io.Writer, repo storage.LLMCallRepository, site string) error {
	if site == "" {
		total, err := repo.Count(ctx)
		if err != nil {
			return fmt.Errorf("counting llm calls: %w", err)
		}
		fmt.Fprintf(w, "LLM calls: %d\n", total)
		return nil
	}

	// Calls are recorded under the normalized URL.
	key, err := model.NormalizeURL(site)
	if err != nil {
		return err
	}

	count, err := repo.CountBySite(ctx, key)
	if err != nil {
		return fmt.Errorf("counting llm calls: %w", err)
	}
	fmt.Fprintf(w, "LLM calls for %s: %d\n", key, count)

	latest, err := repo.LatestBySite(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading latest llm call: %w", err)
	}

	result := "none"
	if latest.ResultURL != nil {
		result = *latest.ResultURL
	}
	fmt.Fprintf(w, "Latest: %s %s/%s success=%t result=%s\n",
		latest.CreatedAt.Format("2006-01-02 15:04:05"), latest.Provider, latest.Model, latest.Success, result)
	return nil
}
