// Package report renders an ImportResponse for CLI consumption.
package report

import (
	"bytes"
	"fmt"

	"github.com/caixinha-dev/caixinha/pkg/models"
)

// CSV renders the issue list as a small CSV, one row per issue, prefixed
// by a summary row. Useful for piping a batch run into a spreadsheet.
func CSV(resp *models.ImportResponse) []byte {
	var buf bytes.Buffer
	buf.WriteString("total,created,duplicates,issues\n")
	buf.WriteString(fmt.Sprintf("%d,%d,%d,%d\n", resp.TotalEntries, resp.Created, resp.Duplicates, len(resp.Issues)))
	if len(resp.Issues) == 0 {
		return buf.Bytes()
	}
	buf.WriteString("\ntype,line,description,message\n")
	for _, issue := range resp.Issues {
		buf.WriteString(fmt.Sprintf("%s,%d,%q,%q\n", issue.Type, issue.Line, issue.Description, issue.Message))
	}
	return buf.Bytes()
}

// Summary is the one-line human rendering used after every CLI import.
func Summary(file string, resp *models.ImportResponse) string {
	return fmt.Sprintf("%s: %d entries, %d created, %d duplicates, %d issues",
		file, resp.TotalEntries, resp.Created, resp.Duplicates, len(resp.Issues))
}
