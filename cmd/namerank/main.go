// Package main provides the command-line interface for the namerank name
// tournament application. It implements subcommands for starting tournaments,
// resuming saved sessions, exporting standings, and listing stored sessions,
// with both an interactive TUI and a plain stdin/stdout mode.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/guitarbeat/namerank/pkg/tournament"
	"github.com/guitarbeat/namerank/pkg/tui"
)

// Version information - set by build process
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// GlobalOptions defines global CLI flags
type GlobalOptions struct {
	Config  string `long:"config" short:"c" description:"Configuration file path" default:"namerank.yaml"`
	Verbose bool   `long:"verbose" short:"v" description:"Enable verbose logging"`
	Version bool   `long:"version" description:"Show version information"`
}

// StartCommand handles 'namerank start'
type StartCommand struct {
	Input         string        `long:"input" short:"i" description:"Path to file containing candidate names (text or CSV)" required:"true"`
	SessionName   string        `long:"session-name" description:"Name for the tournament session"`
	InitialRating float64       `long:"initial-rating" description:"Starting Elo rating"`
	KFactor       float64       `long:"k-factor" description:"Base K-factor for rating updates"`
	Timeout       time.Duration `long:"timeout" description:"Wall-clock limit for the run"`
	Plain         bool          `long:"plain" description:"Use plain stdin/stdout prompts instead of the TUI"`

	Global *GlobalOptions `no-flag:"y"`
}

// ResumeCommand handles 'namerank resume'
type ResumeCommand struct {
	SessionID string `long:"session-id" description:"Identifier of the session to resume" required:"true"`
	Plain     bool   `long:"plain" description:"Use plain stdin/stdout prompts instead of the TUI"`

	Global *GlobalOptions `no-flag:"y"`
}

// ExportCommand handles 'namerank export'
type ExportCommand struct {
	SessionID string `long:"session-id" description:"Session to export standings from" required:"true"`
	Output    string `long:"output" short:"o" description:"Output file path"`
	Format    string `long:"format" description:"Export format (csv/json/table)" default:"csv"`
	Decimals  int    `long:"decimals" description:"Decimal places for exported ratings" default:"0"`

	Global *GlobalOptions `no-flag:"y"`
}

// ListCommand handles 'namerank list'
type ListCommand struct {
	Format string `long:"format" description:"Output format (table/json)" default:"table"`
	Status string `long:"status" description:"Filter by status (active/complete/aborted/all)" default:"all"`

	Global *GlobalOptions `no-flag:"y"`
}

// ErrorCode represents CLI exit codes
type ErrorCode int

const (
	ExitSuccess ErrorCode = iota
	ExitFileError
	ExitConfigError
	ExitSessionError
	ExitExportError
)

// CLIError represents a CLI error with exit code
type CLIError struct {
	Code        ErrorCode
	Message     string
	Details     map[string]interface{}
	Suggestions []string
}

func (e *CLIError) Error() string {
	return e.Message
}

// formatErrorJSON formats an error as JSON for structured output
func formatErrorJSON(err *CLIError) string {
	inner := map[string]interface{}{
		"code":    err.Code,
		"message": err.Message,
	}
	if err.Details != nil {
		inner["details"] = err.Details
	}
	if err.Suggestions != nil {
		inner["suggestions"] = err.Suggestions
	}

	jsonBytes, _ := json.MarshalIndent(map[string]interface{}{"error": inner}, "", "  ")
	return string(jsonBytes)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		var cliErr *CLIError
		if errors.As(err, &cliErr) {
			fmt.Fprintln(os.Stderr, formatErrorJSON(cliErr))
			os.Exit(int(cliErr.Code))
		}
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := &GlobalOptions{}

	parser := flags.NewParser(global, flags.Default)
	parser.Usage = "[OPTIONS] COMMAND [COMMAND-OPTIONS]"

	startCmd := &StartCommand{Global: global}
	resumeCmd := &ResumeCommand{Global: global}
	exportCmd := &ExportCommand{Global: global}
	listCmd := &ListCommand{Global: global}

	parser.AddCommand("start", "Start a new name tournament", "", startCmd)
	parser.AddCommand("resume", "Resume a saved session", "", resumeCmd)
	parser.AddCommand("export", "Export session standings", "", exportCmd)
	parser.AddCommand("list", "List stored sessions", "", listCmd)

	_, err := parser.ParseArgs(args)
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) {
			switch flagsErr.Type {
			case flags.ErrHelp:
				return nil
			case flags.ErrCommandRequired:
				parser.WriteHelp(os.Stderr)
				return &CLIError{
					Code:    ExitConfigError,
					Message: "No command specified",
					Suggestions: []string{
						"Use 'namerank start --input names.txt' to begin a tournament",
						"Use 'namerank --help' to see all available commands",
					},
				}
			default:
				return &CLIError{
					Code:    ExitConfigError,
					Message: fmt.Sprintf("Invalid arguments: %v", err),
				}
			}
		}
		return err
	}

	return nil
}

// Execute implements the go-flags command interface for StartCommand
func (c *StartCommand) Execute(args []string) error {
	if c.Global.Version {
		return showVersion()
	}

	config, err := loadConfiguration(c.Global.Config, c.Global.Verbose)
	if err != nil {
		return &CLIError{
			Code:    ExitConfigError,
			Message: fmt.Sprintf("Failed to load configuration: %v", err),
			Suggestions: []string{
				"Check configuration file syntax",
				"Use --config flag to specify a different config file",
			},
		}
	}
	applyStartOverrides(config, c)
	if err := config.Validate(); err != nil {
		return &CLIError{
			Code:    ExitConfigError,
			Message: fmt.Sprintf("Invalid configuration: %v", err),
		}
	}

	names, err := tournament.LoadNames(c.Input)
	if err != nil {
		return &CLIError{
			Code:    ExitFileError,
			Message: fmt.Sprintf("Failed to load names: %v", err),
			Details: map[string]interface{}{"file": c.Input},
			Suggestions: []string{
				"Check file path and name",
				"Provide one name per line, or a CSV with a 'name' column",
			},
		}
	}

	session, err := tournament.NewSession(c.SessionName, names, *config)
	if err != nil {
		return &CLIError{
			Code:    ExitSessionError,
			Message: fmt.Sprintf("Failed to create session: %v", err),
			Suggestions: []string{
				"A tournament needs at least two distinct names",
			},
		}
	}

	store := tournament.NewFileStore(config.Run.SessionDir)
	path, err := store.SaveSession(session)
	if err != nil {
		return &CLIError{
			Code:    ExitSessionError,
			Message: fmt.Sprintf("Failed to save session: %v", err),
		}
	}
	session.SetSavePath(path)

	fmt.Printf("Created session: %s (%d names)\n", session.ID, len(names))

	return runSession(session, config, c.Plain || config.UI.Plain)
}

// Execute implements the go-flags command interface for ResumeCommand
func (c *ResumeCommand) Execute(args []string) error {
	if c.Global.Version {
		return showVersion()
	}

	config, err := loadConfiguration(c.Global.Config, c.Global.Verbose)
	if err != nil {
		return &CLIError{
			Code:    ExitConfigError,
			Message: fmt.Sprintf("Failed to load configuration: %v", err),
		}
	}

	store := tournament.NewFileStore(config.Run.SessionDir)
	session, err := store.LoadSession(c.SessionID)
	if err != nil {
		return &CLIError{
			Code:    ExitSessionError,
			Message: fmt.Sprintf("Failed to load session '%s': %v", c.SessionID, err),
			Details: map[string]interface{}{"session_id": c.SessionID},
			Suggestions: []string{
				"Use 'namerank list' to see stored sessions",
				"Check the session ID spelling",
			},
		}
	}
	session.SetSavePath(store.SessionPath(session.ID))

	if standings, done := session.FinalStandings(); done {
		fmt.Printf("Session %s is already complete.\n\n", session.ID)
		fmt.Print(tournament.FormatStandingsTable(standings))
		return nil
	}

	fmt.Printf("Resuming session: %s (%s)\n", session.Name, session.ID)

	sessionConfig := session.Config()
	return runSession(session, &sessionConfig, c.Plain || sessionConfig.UI.Plain)
}

// Execute implements the go-flags command interface for ExportCommand
func (c *ExportCommand) Execute(args []string) error {
	if c.Global.Version {
		return showVersion()
	}

	config, err := loadConfiguration(c.Global.Config, c.Global.Verbose)
	if err != nil {
		defaults := tournament.DefaultConfig()
		config = &defaults
	}

	store := tournament.NewFileStore(config.Run.SessionDir)
	session, err := store.LoadSession(c.SessionID)
	if err != nil {
		return &CLIError{
			Code:    ExitSessionError,
			Message: fmt.Sprintf("Session not found: %s", c.SessionID),
			Details: map[string]interface{}{"session_id": c.SessionID},
			Suggestions: []string{
				"Use 'namerank list' to see stored sessions",
			},
		}
	}

	if c.Format == "table" {
		fmt.Print(tournament.FormatStandingsTable(session.Standings()))
		return nil
	}

	output := c.Output
	if output == "" {
		output = fmt.Sprintf("standings_%s.%s", c.SessionID, c.Format)
	}

	exportConfig := tournament.ExportConfig{
		Format:        c.Format,
		RoundDecimals: c.Decimals,
	}
	if err := tournament.ExportSession(session, output, exportConfig); err != nil {
		return &CLIError{
			Code:    ExitExportError,
			Message: fmt.Sprintf("Export failed: %v", err),
			Details: map[string]interface{}{
				"output_file": output,
				"format":      c.Format,
			},
			Suggestions: []string{
				"Supported formats are csv, json and table",
				"Check output directory permissions",
			},
		}
	}

	fmt.Printf("Exported standings to: %s\n", output)
	return nil
}

// Execute implements the go-flags command interface for ListCommand
func (c *ListCommand) Execute(args []string) error {
	if c.Global.Version {
		return showVersion()
	}

	config, err := loadConfiguration(c.Global.Config, c.Global.Verbose)
	if err != nil {
		defaults := tournament.DefaultConfig()
		config = &defaults
	}

	store := tournament.NewFileStore(config.Run.SessionDir)
	infos, err := store.ListSessions()
	if err != nil {
		return &CLIError{
			Code:    ExitSessionError,
			Message: fmt.Sprintf("Failed to list sessions: %v", err),
		}
	}

	if c.Status != "all" {
		filtered := infos[:0]
		for _, info := range infos {
			if string(info.Status) == c.Status {
				filtered = append(filtered, info)
			}
		}
		infos = filtered
	}

	if c.Format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(infos)
	}

	printSessionTable(os.Stdout, infos)
	return nil
}

// runSession drives a session to its end in either plain or TUI mode and
// prints the resulting standings
func runSession(session *tournament.Session, config *tournament.Config, plain bool) error {
	ctx := context.Background()

	var standings []tournament.Standing
	var err error
	if plain {
		voter := newPlainVoter(os.Stdin, os.Stdout)
		standings, err = session.Run(ctx, voter)
	} else {
		app, appErr := tui.NewApp(session, config.Export, config.Run.SessionDir)
		if appErr != nil {
			return &CLIError{
				Code:    ExitSessionError,
				Message: fmt.Sprintf("Failed to start TUI: %v", appErr),
			}
		}
		if runErr := app.Run(ctx); runErr != nil {
			err = runErr
		}
		standings = session.Standings()
	}

	switch {
	case err == nil:
	case errors.Is(err, tournament.ErrAborted):
		fmt.Println("\nTournament aborted; standings so far:")
	case errors.Is(err, tournament.ErrTournamentTimeout):
		fmt.Println("\nTournament timed out; standings so far:")
		standings = session.Standings()
	default:
		return &CLIError{
			Code:    ExitSessionError,
			Message: fmt.Sprintf("Tournament failed: %v", err),
		}
	}

	if path := session.SavePath(); path != "" {
		if saveErr := session.Save(path); saveErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save session: %v\n", saveErr)
		}
	}

	fmt.Println()
	fmt.Print(tournament.FormatStandingsTable(standings))
	fmt.Printf("\nResume with:  namerank resume --session-id %s\n", session.ID)
	fmt.Printf("Export with:  namerank export --session-id %s\n", session.ID)
	return nil
}

// plainVoter prompts on an io.Writer and reads choices line by line
type plainVoter struct {
	reader *bufio.Reader
	out    io.Writer
}

func newPlainVoter(in io.Reader, out io.Writer) *plainVoter {
	return &plainVoter{reader: bufio.NewReader(in), out: out}
}

// Pick implements tournament.Voter. Unrecognized input re-prompts.
func (v *plainVoter) Pick(ctx context.Context, pairing tournament.Pairing) (tournament.Choice, error) {
	fmt.Fprintf(v.out, "\n[%d/%d]  %s  vs  %s\n",
		pairing.Completed+1, pairing.Estimated, pairing.First, pairing.Second)
	fmt.Fprintf(v.out, "  1) %s  2) %s  b) both  n) neither  s) skip  u) undo  q) quit\n",
		pairing.First, pairing.Second)

	for {
		if err := ctx.Err(); err != nil {
			return tournament.ChoiceQuit, err
		}

		fmt.Fprint(v.out, "> ")
		line, err := v.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return tournament.ChoiceQuit, nil
			}
			return tournament.ChoiceQuit, fmt.Errorf("failed to read choice: %w", err)
		}

		if choice, ok := parseChoice(line); ok {
			return choice, nil
		}
		fmt.Fprintln(v.out, "Please answer 1, 2, b, n, s, u or q.")
	}
}

// parseChoice maps a line of input to a judging choice
func parseChoice(line string) (tournament.Choice, bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "1":
		return tournament.ChoiceFirst, true
	case "2":
		return tournament.ChoiceSecond, true
	case "b", "both":
		return tournament.ChoiceBoth, true
	case "n", "none", "neither":
		return tournament.ChoiceNone, true
	case "s", "skip":
		return tournament.ChoiceSkip, true
	case "u", "undo":
		return tournament.ChoiceUndo, true
	case "q", "quit":
		return tournament.ChoiceQuit, true
	}
	return 0, false
}

// Helper functions

func showVersion() error {
	fmt.Printf("namerank version %s\n", Version)
	fmt.Printf("Build date: %s\n", BuildDate)
	fmt.Printf("Git commit: %s\n", GitCommit)
	return nil
}

func loadConfiguration(configPath string, verbose bool) (*tournament.Config, error) {
	if configPath == "" {
		configPath = "namerank.yaml"
	}

	config, err := tournament.LoadWithEnvironment(configPath)
	if err != nil {
		if errors.Is(err, tournament.ErrConfigNotFound) {
			defaults := tournament.DefaultConfig()
			return &defaults, nil
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		}
		return nil, err
	}

	return config, nil
}

func applyStartOverrides(config *tournament.Config, cmd *StartCommand) {
	if cmd.InitialRating != 0 {
		config.Rating.InitialRating = cmd.InitialRating
	}
	if cmd.KFactor != 0 {
		config.Rating.KFactor = cmd.KFactor
	}
	if cmd.Timeout != 0 {
		config.Run.Timeout = cmd.Timeout
	}
	if cmd.Plain {
		config.UI.Plain = true
	}
}

func printSessionTable(w io.Writer, infos []tournament.SessionInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(w, "No sessions found")
		return
	}

	fmt.Fprintf(w, "%-34s %-20s %-10s %-6s %-8s %s\n",
		"SESSION ID", "NAME", "STATUS", "NAMES", "MATCHES", "UPDATED")
	fmt.Fprintln(w, strings.Repeat("-", 95))

	for _, info := range infos {
		name := info.Name
		if len(name) > 20 {
			name = name[:17] + "..."
		}
		fmt.Fprintf(w, "%-34s %-20s %-10s %-6d %-8d %s\n",
			info.ID, name, info.Status, info.Items, info.Matches,
			info.UpdatedAt.Format("2006-01-02 15:04"))
	}
}
