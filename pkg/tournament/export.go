package tournament

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// exportDocument is the JSON shape of an exported ranking
type exportDocument struct {
	SessionID   string           `json:"session_id"`
	SessionName string           `json:"session_name"`
	Status      SessionStatus    `json:"status"`
	ExportedAt  time.Time        `json:"exported_at"`
	Standings   []Standing       `json:"standings"`
	Statistics  exportStatistics `json:"statistics"`
}

type exportStatistics struct {
	Names    int  `json:"names"`
	Matches  int  `json:"matches"`
	Complete bool `json:"complete"`
}

// ExportSession writes a session's standings to path in the configured
// format. Incomplete tournaments export their snapshot standings.
func ExportSession(session *Session, path string, config ExportConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer
	var err error
	switch config.Format {
	case "json":
		err = WriteStandingsJSON(&buf, session)
	default:
		err = WriteStandingsCSV(&buf, session.Standings(), config.RoundDecimals)
	}
	if err != nil {
		return fmt.Errorf("failed to render export: %w", err)
	}

	if err := atomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write export to %s: %w", path, err)
	}
	return nil
}

// WriteStandingsCSV renders standings as CSV with a header row
func WriteStandingsCSV(w io.Writer, standings []Standing, decimals int) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"rank", "name", "rating", "wins", "losses", "games"}); err != nil {
		return err
	}
	for _, standing := range standings {
		record := []string{
			strconv.Itoa(standing.Rank),
			standing.Name,
			strconv.FormatFloat(standing.Rating, 'f', decimals, 64),
			strconv.Itoa(standing.Wins),
			strconv.Itoa(standing.Losses),
			strconv.Itoa(standing.Games),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteStandingsJSON renders a session's standings with metadata
func WriteStandingsJSON(w io.Writer, session *Session) error {
	_, complete := session.FinalStandings()

	doc := exportDocument{
		SessionID:   session.ID,
		SessionName: session.Name,
		Status:      session.CurrentStatus(),
		ExportedAt:  time.Now(),
		Standings:   session.Standings(),
		Statistics: exportStatistics{
			Names:    len(session.Items()),
			Matches:  len(session.Matches()),
			Complete: complete,
		},
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// FormatStandingsTable renders standings as an aligned text table for
// terminal display
func FormatStandingsTable(standings []Standing) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("%-5s %-24s %8s %6s %8s %7s\n",
		"RANK", "NAME", "RATING", "WINS", "LOSSES", "GAMES"))
	builder.WriteString(strings.Repeat("-", 64))
	builder.WriteString("\n")

	for _, standing := range standings {
		name := standing.Name
		if len(name) > 24 {
			name = name[:21] + "..."
		}
		builder.WriteString(fmt.Sprintf("%-5d %-24s %8.0f %6d %8d %7d\n",
			standing.Rank, name, standing.Rating,
			standing.Wins, standing.Losses, standing.Games))
	}

	return builder.String()
}
