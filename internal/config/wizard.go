package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

var currencies = []string{"€", "$", "£", "CHF", "(none)"}

// detectSiteDir returns the first directory near the working directory
// that already holds a menu.json.
func detectSiteDir() string {
	for _, dir := range []string{".", "public", "site", "www"} {
		if _, err := os.Stat(dir + "/menu.json"); err == nil {
			return dir
		}
	}
	return "."
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to mugo! Let's configure your menu site.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Restaurant name.
	namePrompt := promptui.Prompt{
		Label:   "Restaurant name",
		Default: cfg.RestaurantName,
	}
	name, err := namePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("restaurant name: %w", err)
	}
	cfg.RestaurantName = strings.TrimSpace(name)

	// 2. Site directory.
	sitePrompt := promptui.Prompt{
		Label:   "Directory holding menu.json and the site files",
		Default: detectSiteDir(),
	}
	if cfg.SiteDir, err = sitePrompt.Run(); err != nil {
		return nil, fmt.Errorf("site dir: %w", err)
	}

	// 3. Port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return errors.New("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)
	cfg.ServerURL = fmt.Sprintf("http://localhost:%d", cfg.Port)

	// 4. Admin credentials.
	userPrompt := promptui.Prompt{
		Label:   "Admin user",
		Default: cfg.AdminUser,
		Validate: func(s string) error {
			if s == "" || strings.Contains(s, ":") {
				return errors.New("user must be non-empty and contain no ':'")
			}
			return nil
		},
	}
	if cfg.AdminUser, err = userPrompt.Run(); err != nil {
		return nil, fmt.Errorf("admin user: %w", err)
	}

	passPrompt := promptui.Prompt{
		Label: "Admin password",
		Mask:  '*',
		Validate: func(s string) error {
			if len(s) < 8 {
				return errors.New("use at least 8 characters")
			}
			return nil
		},
	}
	if cfg.AdminPass, err = passPrompt.Run(); err != nil {
		return nil, fmt.Errorf("admin password: %w", err)
	}

	// 5. Currency.
	currencyPrompt := promptui.Select{
		Label: "Currency shown next to prices",
		Items: currencies,
	}
	_, currency, err := currencyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("currency: %w", err)
	}
	if currency != "(none)" {
		cfg.Currency = currency
	}

	// 6. Markdown descriptions.
	mdPrompt := promptui.Prompt{
		Label:     "Render item descriptions as Markdown",
		IsConfirm: true,
	}
	if _, err := mdPrompt.Run(); err == nil {
		cfg.MarkdownDescriptions = true
	} else if !errors.Is(err, promptui.ErrAbort) {
		return nil, fmt.Errorf("markdown: %w", err)
	}

	// 7. Extra static deny patterns.
	denyPrompt := promptui.Prompt{
		Label:   "Extra paths never served (comma-separated globs, blank for none)",
		Default: "",
	}
	denyStr, err := denyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("deny patterns: %w", err)
	}
	if extra := splitAndTrim(denyStr); len(extra) > 0 {
		cfg.StaticDeny = extra
		fmt.Println("Note: static_deny replaces the built-in list; add **/*.bak and **/.* back if you still want them hidden.")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
