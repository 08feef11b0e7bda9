// main.go - Admin control tool for Ackee
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"ackee/internal"
	"ackee/internal/config"
	"ackee/internal/domains"
	"ackee/internal/seeder"
	"ackee/internal/tokens"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// The set of available commands
var commands = []Command{
	&MigrateCommand{},
	&CreateDomainCommand{},
	&ListDomainsCommand{},
	&DeleteDomainCommand{},
	&ImportDomainsCommand{},
	&CreateTokenCommand{},
	&SeedCommand{},
	&StatusCommand{},
	&HelpCommand{},
}

func main() {
	flag.Parse()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	var app *internal.Application
	if cmd.Name() != "help" {
		var err error
		app, err = internal.NewApp()
		if err != nil {
			log.Fatalf("Failed to initialize app: %v", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
			defer cancel()
			if err := app.Shutdown(shutdownCtx); err != nil {
				log.Printf("Warning: Cleanup error: %v", err)
			}
		}()
	}

	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}

	log.Printf("Command %s completed successfully", cmd.Name())
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("Migrations completed successfully")
	return nil
}

// CreateDomainCommand adds a domain and prints its id for the tracker snippet
type CreateDomainCommand struct{}

func (c *CreateDomainCommand) Name() string        { return "create-domain" }
func (c *CreateDomainCommand) Description() string { return "Creates a domain: create-domain <title>" }

func (c *CreateDomainCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <title>", c.Name())
	}

	domain, err := domains.Create(app.DBManager.GetConnection(), slog.Default(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("failed to create domain: %w", err)
	}

	fmt.Printf("Created %s with id %s\n", domain.Title, domain.ID)
	return nil
}

// ListDomainsCommand prints every domain
type ListDomainsCommand struct{}

func (c *ListDomainsCommand) Name() string        { return "list-domains" }
func (c *ListDomainsCommand) Description() string { return "Lists all domains" }

func (c *ListDomainsCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	list, err := domains.List(app.DBManager.GetConnection())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No domains yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCREATED")
	for _, d := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Title, d.Created.Format(time.RFC3339))
	}
	return w.Flush()
}

// DeleteDomainCommand removes a domain with all its records
type DeleteDomainCommand struct{}

func (c *DeleteDomainCommand) Name() string { return "delete-domain" }
func (c *DeleteDomainCommand) Description() string {
	return "Deletes a domain and its records: delete-domain <id>"
}

func (c *DeleteDomainCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <id>", c.Name())
	}

	db := app.DBManager.GetConnection()
	domain, err := domains.Get(db, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Delete %s and all of its records? [y/N]: ", domain.Title)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	if !strings.EqualFold(strings.TrimSpace(answer), "y") {
		fmt.Println("Aborted")
		return nil
	}

	return domains.Delete(db, slog.Default(), domain.ID)
}

// ImportDomainsCommand creates domains from a YAML file
type ImportDomainsCommand struct{}

func (c *ImportDomainsCommand) Name() string { return "import-domains" }
func (c *ImportDomainsCommand) Description() string {
	return "Creates the domains listed in a YAML file: import-domains <file.yml>"
}

func (c *ImportDomainsCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <file.yml>", c.Name())
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer f.Close()

	created, err := domains.Import(app.DBManager.GetConnection(), slog.Default(), f)
	for _, d := range created {
		fmt.Printf("Created %s with id %s\n", d.Title, d.ID)
	}
	return err
}

// CreateTokenCommand issues a token for scripts that call the API
type CreateTokenCommand struct{}

func (c *CreateTokenCommand) Name() string { return "create-token" }
func (c *CreateTokenCommand) Description() string {
	return "Creates an API token with the configured login: create-token [username]"
}

func (c *CreateTokenCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	cfg := config.GetConfig()

	creds, err := tokens.NewCredentials(cfg.Username, cfg.Password)
	if err != nil {
		return fmt.Errorf("login is not configured: %w", err)
	}

	username := cfg.Username
	if len(args) >= 1 {
		username = args[0]
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	token, err := tokens.Create(app.DBManager.GetConnection(), slog.Default(), creds, username, password, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Token: %s (valid for %s after its last use)\n", token.ID, cfg.TokenTTL())
	return nil
}

// readPassword reads from the terminal without echo, or a line from stdin when it is piped
func readPassword(prompt string) (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Print(prompt)
	passwordBytes, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(passwordBytes)), nil
}

// SeedCommand populates the DB with sample visits
type SeedCommand struct{}

func (c *SeedCommand) Name() string        { return "seed" }
func (c *SeedCommand) Description() string { return "Seeds the database with sample visits" }

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	count := fs.Int("records", 1000, "number of records to generate per domain")
	domainID := fs.String("domain", "", "id of the domain to seed (seeds the default domains if empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	se := seeder.NewSeeder(app.DBManager, slog.Default(), *count, config.GetConfig().PrivateKey)

	if *domainID != "" {
		return se.SeedDomain(ctx, *domainID)
	}
	return se.Run(ctx)
}

// StatusCommand implements a command to check the system status
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	db := app.DBManager.GetConnection()

	list, err := domains.List(db)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	var recordCount int64
	if err := db.Table("records").Count(&recordCount).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	log.Println("System Status:")
	log.Println("- Database: Connected")
	log.Printf("- Domains: %d", len(list))
	log.Printf("- Records: %d", recordCount)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}
	stats := sqlDB.Stats()
	log.Printf("- Max Open Connections: %d", stats.MaxOpenConnections)
	log.Printf("- Open Connections: %d", stats.OpenConnections)
	log.Printf("- In Use: %d", stats.InUse)
	log.Printf("- Idle: %d", stats.Idle)
	return nil
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	printUsage()
	return nil
}

// parseArgs parses the command name and arguments
func parseArgs() (string, []string) {
	args := flag.Args()
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

// findCommand finds a command by name
func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: ackeectl [command] [args...]")
	fmt.Println("Available commands:")
	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}
}

// showUsageAndExit shows usage information and exits
func showUsageAndExit() {
	printUsage()
	os.Exit(1)
}
