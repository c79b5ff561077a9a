package ledger

import (
	"database/sql"
	"strings"
	"time"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const entryColumns = "path, status, outcome, clips, error_message, run_id, attempts, created_at, updated_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry      Entry
		status     string
		outcome    sql.NullString
		errMsg     sql.NullString
		runID      sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&entry.Path,
		&status,
		&outcome,
		&entry.Clips,
		&errMsg,
		&runID,
		&entry.Attempts,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	entry.Status = Status(status)
	entry.Outcome = outcome.String
	entry.ErrorMessage = errMsg.String
	entry.RunID = runID.String
	entry.CreatedAt = parseTime(createdRaw)
	entry.UpdatedAt = parseTime(updatedRaw)
	return &entry, nil
}

func statusFilter(statuses []Status) (string, []any) {
	if len(statuses) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		placeholders[i] = "?"
		args[i] = string(status)
	}
	return " WHERE status IN (" + strings.Join(placeholders, ",") + ")", args
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func timestamp() string {
	return time.Now().UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
