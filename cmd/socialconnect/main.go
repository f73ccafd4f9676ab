// Command socialconnect exercises the account service against a backend.
//
// Commands run in order within one process so the session cookie carries over:
//
//	socialconnect -username ada -password secret -email ada@example.com register login me logout
//	socialconnect -provider facebook -profile '{"id":"42","name":"X"}' link me
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/tendant/socialconnect/pkg/account"
	"github.com/tendant/socialconnect/pkg/config"
	"github.com/tendant/socialconnect/pkg/provider"
)

func main() {
	configFile := flag.String("config", "", "Config file (yaml, json, toml or env); environment is used when empty")
	serverURL := flag.String("server", "", "Backend server URL (overrides ACCOUNT_SERVER_URL)")
	timeout := flag.Duration("timeout", 0, "Per-request timeout (overrides ACCOUNT_TIMEOUT)")
	username := flag.String("username", "", "Username for register and login")
	password := flag.String("password", "", "Password for register and login")
	email := flag.String("email", "", "Email for register")
	providerName := flag.String("provider", "facebook", "Provider name for link")
	accountType := flag.String("type", "", "Account type for link (defaults to provider)")
	profileJSON := flag.String("profile", "{}", "Provider profile JSON for link")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	// Upper bound on waiting for a callback, on top of the request timeout.
	grace := config.GetEnvDuration("SOCIALCONNECT_WAIT_GRACE", 5*time.Second)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	svc := account.NewService(cfg.Account,
		account.WithServerURL(*serverURL),
		account.WithTimeout(*timeout),
		account.WithLogger(logger),
	)

	commands := flag.Args()
	if len(commands) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: socialconnect [flags] register|login|me|link|logout ...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	for _, command := range commands {
		results := make(chan account.Result, 1)
		done := func(r account.Result) { results <- r }

		var dispatched bool
		switch command {
		case "register":
			dispatched = svc.Register(account.RegisterParams{Username: *username, Password: *password, Email: *email, Callback: done})
		case "login":
			dispatched = svc.Login(account.LoginParams{Username: *username, Password: *password, Callback: done})
		case "me":
			dispatched = svc.IsLoggedIn(done)
		case "link":
			var profile provider.Profile
			if err := json.Unmarshal([]byte(*profileJSON), &profile); err != nil {
				fmt.Fprintf(os.Stderr, "Error: invalid -profile JSON: %v\n", err)
				os.Exit(1)
			}
			dispatched = svc.LinkExternalAccount(account.LinkParams{Provider: *providerName, Type: *accountType, Profile: profile, Callback: done})
		case "logout":
			dispatched = svc.Logout(done)
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", command)
			os.Exit(2)
		}

		var r account.Result
		select {
		case r = <-results:
		default:
			if !dispatched {
				fmt.Fprintf(os.Stderr, "%s: not dispatched\n", command)
				os.Exit(1)
			}
			select {
			case r = <-results:
			case <-time.After(cfgTimeout(cfg, *timeout) + grace):
				fmt.Fprintf(os.Stderr, "%s: no response\n", command)
				os.Exit(1)
			}
		}

		if !printResult(command, r) {
			os.Exit(1)
		}
	}
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func cfgTimeout(cfg config.Config, override time.Duration) time.Duration {
	if override > 0 {
		return override
	}
	if cfg.Account.Timeout > 0 {
		return cfg.Account.Timeout
	}
	return 30 * time.Second
}

func printResult(command string, r account.Result) bool {
	if !r.OK {
		fmt.Printf("%s: failed: %s\n", command, r.Reason)
		if r.Err != nil {
			slog.Debug("failure detail", "command", command, "error", r.Err)
		}
		return false
	}
	out, err := json.MarshalIndent(r.Data, "", "  ")
	if err != nil {
		fmt.Printf("%s: ok\n", command)
		return true
	}
	fmt.Printf("%s: ok\n%s\n", command, out)
	return true
}
