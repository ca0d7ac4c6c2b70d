package duckdb

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"
)

// MaxQueryRows caps the rows returned by ExecuteQuery.
const MaxQueryRows = 1000

// ErrQueryRejected is wrapped by errors for statements ExecuteQuery refuses
// to run.
var ErrQueryRejected = errors.New("query rejected")

// dangerousKeywordPattern matches dangerous SQL keywords at word boundaries.
// This avoids false positives like "RESET" matching "SET".
var dangerousKeywordPattern = regexp.MustCompile(
	`(?i)\b(INSERT|UPDATE|DELETE|DROP|CREATE|ALTER|TRUNCATE|COPY|ATTACH|DETACH|LOAD|EXPORT|IMPORT|INSTALL|CALL|EXECUTE|PRAGMA|SET)\b`,
)

// blockCommentPattern matches C-style block comments (/* ... */).
var blockCommentPattern = regexp.MustCompile(`/\*[\s\S]*?\*/`)

// stripSQLComments removes -- line comments and /* */ block comments from a query.
func stripSQLComments(query string) string {
	cleaned := blockCommentPattern.ReplaceAllString(query, " ")
	var result strings.Builder
	for _, line := range strings.Split(cleaned, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		result.WriteString(line)
		result.WriteByte('\n')
	}
	return result.String()
}

// checkReadOnly accepts a single SELECT or WITH statement.
func checkReadOnly(query string) error {
	if strings.Contains(query, ";") {
		return fmt.Errorf("%w: must not contain semicolons", ErrQueryRejected)
	}
	stripped := strings.TrimSpace(stripSQLComments(query))
	upper := strings.ToUpper(stripped)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return fmt.Errorf("%w: only SELECT/WITH queries are allowed", ErrQueryRejected)
	}
	if match := dangerousKeywordPattern.FindString(stripped); match != "" {
		return fmt.Errorf("%w: disallowed keyword %s", ErrQueryRejected, strings.ToUpper(match))
	}
	return nil
}

// ExecuteQuery runs a read-only SQL query and returns at most MaxQueryRows
// rows as column maps.
func (s *Store) ExecuteQuery(ctx context.Context, query string) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(query)
	if err := checkReadOnly(trimmed); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("duckdb: query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0)
	for rows.Next() && len(results) < MaxQueryRows {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			log.Printf("duckdb: scan error (ExecuteQuery): %v", err)
			continue
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// SchemaDescription documents the queryable tables for API clients.
func SchemaDescription() string {
	return `Table 'matches': match_position (BIGINT), record_index (BIGINT), timestamp (TIMESTAMPTZ), ` +
		`hostname, rule, label, interface, reason (VARCHAR), action (VARCHAR: pass/block/reject), ` +
		`direction (VARCHAR: in/out), ip_version (INTEGER), protocol (VARCHAR), protocol_id (INTEGER), ` +
		`src_addr, dst_addr (VARCHAR), src_port, dst_port (INTEGER, NULL without ports), length (INTEGER), ` +
		`tcp_flags (VARCHAR), source (VARCHAR: tcp/stdin/file), raw_line (VARCHAR). ` +
		`View 'matches_by_minute': minute, pass, block, reject.`
}

// MatchCount returns the number of mirrored rows.
func (s *Store) MatchCount(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM matches").Scan(&n); err != nil {
		return 0, fmt.Errorf("duckdb: count matches: %w", err)
	}
	return n, nil
}

// DimensionCount is a value with its number of occurrences.
type DimensionCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// allowedDimensions maps API names to columns that TopValues may group by.
var allowedDimensions = map[string]string{
	"src":       "src_addr",
	"dst":       "dst_addr",
	"interface": "interface",
	"action":    "action",
	"protocol":  "protocol",
	"dst_port":  "CAST(dst_port AS VARCHAR)",
	"rule":      "rule",
}

// TopValues returns the most frequent values of a dimension among mirrored
// matches, optionally limited to the last window.
func (s *Store) TopValues(ctx context.Context, dimension string, limit int, window time.Duration) ([]DimensionCount, error) {
	column, ok := allowedDimensions[dimension]
	if !ok {
		return nil, fmt.Errorf("%w: unknown dimension %q", ErrQueryRejected, dimension)
	}
	if limit <= 0 {
		limit = 10
	}

	where := "WHERE " + column + " IS NOT NULL"
	args := []any{}
	if window > 0 {
		where += " AND timestamp >= ?"
		args = append(args, time.Now().Add(-window))
	}
	args = append(args, limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()
	// column comes from allowedDimensions, never from user input.
	q := fmt.Sprintf("SELECT %s AS v, COUNT(*) AS n FROM matches %s GROUP BY v ORDER BY n DESC, v LIMIT ?", column, where)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("duckdb: top %s: %w", dimension, err)
	}
	defer rows.Close()

	var out []DimensionCount
	for rows.Next() {
		var dc DimensionCount
		if err := rows.Scan(&dc.Value, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}
