// package formatter provides functions to export user records to various formats (CSV, Markdown)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/benjamesfleming/smarterplaylists/internal/models"
)

// ExportToCSV converts user records to CSV format with columns: ID, Username, Email, HasCredential
func ExportToCSV(users []*models.User) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Username", "Email", "HasCredential"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, user := range users {
		_, hasToken := user.AccessToken()
		record := []string{
			user.ID(),
			user.Username(),
			user.Email(),
			fmt.Sprintf("%t", hasToken),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts user records to a Markdown table
func ExportToMarkdown(users []*models.User) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Users\n\n")
	buf.WriteString(fmt.Sprintf("Total: %d\n\n", len(users)))
	buf.WriteString("| ID | Username | Email | Credential |\n")
	buf.WriteString("|----|----------|-------|------------|\n")

	for _, user := range users {
		credential := "absent"
		if _, ok := user.AccessToken(); ok {
			credential = "present"
		}
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			user.ID(), user.Username(), user.Email(), credential))
	}

	return buf.Bytes(), nil
}
