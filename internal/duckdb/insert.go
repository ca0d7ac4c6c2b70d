package duckdb

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

// MatchRow is one matched record with its positions in the match index
// and the record store.
type MatchRow struct {
	Position    int
	RecordIndex int
	Record      *model.LogRecord
}

const insertMatchSQL = `INSERT INTO matches (
	match_position, record_index, timestamp, hostname, rule, label, interface, reason,
	action, direction, ip_version, protocol, protocol_id, src_addr, dst_addr,
	src_port, dst_port, length, tcp_flags, source, raw_line
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertMatches appends rows in a single transaction. Either every row is
// written or none is.
func (s *Store) InsertMatches(ctx context.Context, rows []MatchRow) error {
	if len(rows) == 0 {
		return nil
	}

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("duckdb: begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertMatchSQL)
	if err != nil {
		return fmt.Errorf("duckdb: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, matchArgs(row)...); err != nil {
			return fmt.Errorf("duckdb: insert match %d: %w", row.Position, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("duckdb: commit insert: %w", err)
	}
	return nil
}

func matchArgs(row MatchRow) []any {
	r := row.Record
	var srcPort, dstPort any
	if ports, ok := model.PortsOf(r.Payload); ok {
		srcPort, dstPort = int(ports.Src), int(ports.Dst)
	}
	var flags any
	if tcp, ok := r.Payload.(model.TCPInfo); ok {
		flags = tcp.Flags
	}
	var protoID any
	if r.Protocol.ID > 0 {
		protoID = r.Protocol.ID
	}
	return []any{
		row.Position, row.RecordIndex, r.Timestamp,
		nullable(r.Hostname), nullable(r.RuleNumber), nullable(r.Label),
		r.Interface, nullable(r.Reason),
		r.Action.String(), r.Direction.String(), r.IPVersion,
		r.Protocol.Name, protoID,
		r.Src.String(), r.Dst.String(),
		srcPort, dstPort, r.Length, flags,
		nullable(r.Source), nullable(strings.TrimSpace(r.RawLine)),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// logDropped reports a batch that could not be mirrored.
func logDropped(from, to int, err error) {
	log.Printf("duckdb: mirror flush of matches [%d, %d) failed, will retry: %v", from, to, err)
}
