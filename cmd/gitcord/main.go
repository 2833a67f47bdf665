package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

type client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type subscriptionResp struct {
	ChannelID string   `json:"channelId"`
	Repos     []string `json:"repos"`
	Events    []string `json:"events"`
}

type listResp struct {
	Subscriptions map[string]subscriptionResp `json:"subscriptions"`
	Count         int                         `json:"count"`
}

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

type profile struct {
	BaseURL string `yaml:"baseUrl"`
	APIKey  string `yaml:"apiKey"`
}

type cliConfig struct {
	CurrentProfile string             `yaml:"currentProfile"`
	Profiles       map[string]profile `yaml:"profiles"`
}

// importFile is the bulk-subscription YAML shape consumed by `gitcord import`.
type importFile struct {
	Subscriptions []struct {
		ChannelID string   `yaml:"channelId"`
		Repos     []string `yaml:"repos"`
		Events    []string `yaml:"events"`
	} `yaml:"subscriptions"`
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

func (c *client) request(method, path string, body any) (int, []byte, error) {
	var buf *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		buf = bytes.NewReader(b)
	} else {
		buf = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.baseURL+path, buf)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, out.Bytes(), nil
}

func main() {
	baseURL := getenv("GITCORD_BASE_URL", "http://localhost:8080")
	apiKey := getenv("GITCORD_API_KEY", "")
	profileName := getenv("GITCORD_PROFILE", "")
	ui := newUI()

	root := &cobra.Command{
		Use:   "gitcord",
		Short: "GitCord CLI",
		Long:  "GitCord CLI for managing channel subscriptions on a relay instance.",
	}
	root.SilenceUsage = true

	root.PersistentFlags().StringVar(&baseURL, "base-url", baseURL, "Base URL for the relay")
	root.PersistentFlags().StringVar(&apiKey, "api-key", apiKey, "Admin API key")
	root.PersistentFlags().StringVar(&profileName, "profile", profileName, "Config profile")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, _, _ := loadConfig()
		active := resolveProfileName(profileName, cfg)
		prof := cfg.Profiles[active]

		flags := cmd.Flags()
		if !flags.Changed("base-url") {
			if v := strings.TrimSpace(os.Getenv("GITCORD_BASE_URL")); v != "" {
				baseURL = v
			} else if prof.BaseURL != "" {
				baseURL = prof.BaseURL
			}
		}
		if !flags.Changed("api-key") {
			if v := strings.TrimSpace(os.Getenv("GITCORD_API_KEY")); v != "" {
				apiKey = v
			} else if prof.APIKey != "" {
				apiKey = prof.APIKey
			}
		}
		if !flags.Changed("profile") && profileName == "" && active != "" {
			profileName = active
		}
		return nil
	}

	root.AddCommand(authCmd(&profileName, &baseURL, ui))
	root.AddCommand(subCmd(&baseURL, &apiKey, ui))
	root.AddCommand(statusCmd(&baseURL, &apiKey, ui))
	root.AddCommand(importCmd(&baseURL, &apiKey, ui))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err.Error())
		os.Exit(1)
	}
}

func authCmd(profileName *string, baseURL *string, ui *ui) *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored credentials",
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Store the admin API key for a profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := promptSecret("Admin API key")
			if err != nil {
				return err
			}
			cfg, path, _ := loadConfig()
			if cfg.Profiles == nil {
				cfg.Profiles = map[string]profile{}
			}
			name := resolveProfileName(*profileName, cfg)
			if name == "" {
				name = "default"
			}
			prof := cfg.Profiles[name]
			prof.APIKey = key
			if prof.BaseURL == "" {
				prof.BaseURL = *baseURL
			}
			cfg.Profiles[name] = prof
			cfg.CurrentProfile = name
			if err := saveConfig(cfg, path); err != nil {
				return err
			}
			fmt.Println(ui.ok("Saved"), "profile", ui.info(name))
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the active profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _ := loadConfig()
			name := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[name]
			fmt.Println(ui.title("Profile:"), name)
			fmt.Println(ui.dim("  baseUrl:"), emptyOr(prof.BaseURL, "-"))
			fmt.Println(ui.dim("  apiKey: "), maskToken(prof.APIKey))
			return nil
		},
	}

	auth.AddCommand(set, show)
	return auth
}

func subCmd(baseURL, apiKey *string, ui *ui) *cobra.Command {
	sub := &cobra.Command{
		Use:   "sub",
		Short: "Manage channel subscriptions",
	}

	var channel, repo, events string

	add := &cobra.Command{
		Use:   "add",
		Short: "Subscribe a channel to a repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			if channel == "" || repo == "" {
				return fmt.Errorf("--channel and --repo are required")
			}
			c := newClient(*baseURL, *apiKey)
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " subscribing..."
			spin.Start()
			body := map[string]any{"channelId": channel, "repo": repo}
			if events != "" {
				body["events"] = splitList(events)
			}
			status, out, err := c.request(http.MethodPost, "/v1/gitcord/admin/subscriptions", body)
			spin.Stop()
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("HTTP %d: %s", status, string(out))
			}
			var s subscriptionResp
			_ = json.Unmarshal(out, &s)
			fmt.Println(ui.ok("Subscribed"), ui.info(channel), "→", repo, ui.dim("events: "+strings.Join(s.Events, ",")))
			return nil
		},
	}
	add.Flags().StringVar(&channel, "channel", "", "Discord channel ID")
	add.Flags().StringVar(&repo, "repo", "", "Repository (owner/name or *)")
	add.Flags().StringVar(&events, "events", "", "Comma-separated event types")

	var rmChannel, rmRepo string
	remove := &cobra.Command{
		Use:   "remove",
		Short: "Remove a repository filter, or the whole subscription",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rmChannel == "" {
				return fmt.Errorf("--channel is required")
			}
			c := newClient(*baseURL, *apiKey)
			path := "/v1/gitcord/admin/subscriptions/" + rmChannel
			if rmRepo != "" {
				path += "?repo=" + rmRepo
			}
			status, out, err := c.request(http.MethodDelete, path, nil)
			if err != nil {
				return err
			}
			switch status {
			case http.StatusOK:
				if rmRepo != "" {
					fmt.Println(ui.ok("Removed"), rmRepo, "from", ui.info(rmChannel))
				} else {
					fmt.Println(ui.ok("Unsubscribed"), ui.info(rmChannel))
				}
				return nil
			case http.StatusNotFound:
				return fmt.Errorf("no subscription for channel %s", rmChannel)
			default:
				return fmt.Errorf("HTTP %d: %s", status, string(out))
			}
		},
	}
	remove.Flags().StringVar(&rmChannel, "channel", "", "Discord channel ID")
	remove.Flags().StringVar(&rmRepo, "repo", "", "Repository to remove (omit for full unsubscribe)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(*baseURL, *apiKey)
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " loading..."
			spin.Start()
			status, out, err := c.request(http.MethodGet, "/v1/gitcord/admin/subscriptions", nil)
			spin.Stop()
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("HTTP %d: %s", status, string(out))
			}
			var resp listResp
			if err := json.Unmarshal(out, &resp); err != nil {
				return err
			}
			if resp.Count == 0 {
				fmt.Println(ui.dim("No subscriptions."))
				return nil
			}
			fmt.Println(ui.title(fmt.Sprintf("%d subscription(s)", resp.Count)))
			for ch, s := range resp.Subscriptions {
				repos := strings.Join(s.Repos, ", ")
				if repos == "" {
					repos = "* (all repositories)"
				}
				evs := strings.Join(s.Events, ", ")
				if evs == "" {
					evs = "all events"
				}
				fmt.Printf("  %s  %s  %s\n", ui.info(ch), repos, ui.dim(evs))
			}
			return nil
		},
	}

	sub.AddCommand(add, remove, list)
	return sub
}

func statusCmd(baseURL, apiKey *string, ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check relay health",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient(*baseURL, *apiKey)
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " checking..."
			spin.Start()
			status, out, err := c.request(http.MethodGet, "/healthz", nil)
			spin.Stop()
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("relay unhealthy: HTTP %d: %s", status, string(out))
			}
			var h struct {
				Status        string `json:"status"`
				Subscriptions int    `json:"subscriptions"`
			}
			_ = json.Unmarshal(out, &h)
			fmt.Println(ui.ok("OK"), ui.dim(fmt.Sprintf("%d subscription(s)", h.Subscriptions)))
			return nil
		},
	}
}

func importCmd(baseURL, apiKey *string, ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Bulk-import subscriptions from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var f importFile
			if err := yaml.Unmarshal(data, &f); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			total := 0
			for _, s := range f.Subscriptions {
				total += len(s.Repos)
			}
			if total == 0 {
				fmt.Println(ui.dim("Nothing to import."))
				return nil
			}

			c := newClient(*baseURL, *apiKey)
			bar := progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Importing subscriptions"),
				progressbar.OptionSetWidth(18),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			failed := 0
			for _, s := range f.Subscriptions {
				for _, repo := range s.Repos {
					body := map[string]any{"channelId": s.ChannelID, "repo": repo}
					if len(s.Events) > 0 {
						body["events"] = s.Events
					}
					status, out, err := c.request(http.MethodPost, "/v1/gitcord/admin/subscriptions", body)
					if err != nil || status != http.StatusOK {
						failed++
						fmt.Fprintln(os.Stderr, ui.warn("[WARN]"), s.ChannelID, repo, summarize(status, out, err))
					}
					_ = bar.Add(1)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d imports failed", failed, total)
			}
			fmt.Println(ui.ok("Imported"), total, "subscription(s)")
			return nil
		},
	}
}

func newClient(baseURL, apiKey string) *client {
	return &client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func summarize(status int, body []byte, err error) string {
	if err != nil {
		return err.Error()
	}
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return fmt.Sprintf("HTTP %d: %s", status, s)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func promptSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	var v string
	if _, err := fmt.Scanln(&v); err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

func configPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gitcord.yaml"
	}
	return filepath.Join(home, ".gitcord.yaml")
}

func loadConfig() (cliConfig, string, error) {
	path := configPath()
	var cfg cliConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, path, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cliConfig{}, path, err
	}
	return cfg, path, nil
}

func saveConfig(cfg cliConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func resolveProfileName(flag string, cfg cliConfig) string {
	if flag != "" {
		return flag
	}
	if cfg.CurrentProfile != "" {
		return cfg.CurrentProfile
	}
	return "default"
}

func maskToken(v string) string {
	if v == "" {
		return "-"
	}
	if len(v) <= 6 {
		return "******"
	}
	return v[:3] + "..." + v[len(v)-3:]
}

func emptyOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
