package httpserver

import (
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tinytelemetry/pfwatch/internal/duckdb"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

func (s *Server) logf(format string, args ...any) {
	log.Printf("httpserver: "+format, args...)
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":  "ok",
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
		"records": s.deps.Records.Len(),
		"matches": s.deps.Matches.Len(),
	}
	if s.deps.Metrics != nil {
		body["stats"] = s.deps.Metrics.Stats()
	}
	if s.deps.Mirror != nil {
		n, err := s.deps.Mirror.MatchCount(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read mirror row count"})
			return
		}
		body["mirrored"] = n
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleRecord(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be a non-negative integer"})
		return
	}
	rec, ok := s.deps.Records.At(idx)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no record at index " + strconv.Itoa(idx)})
		return
	}
	c.JSON(http.StatusOK, newRecordView(idx, rec))
}

func (s *Server) handleMatches(c *gin.Context) {
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
		return
	}
	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	total := s.deps.Matches.Len()
	indices := s.deps.Matches.Range(offset, limit)
	items := make([]recordView, 0, len(indices))
	for _, idx := range indices {
		if rec, ok := s.deps.Records.At(idx); ok {
			items = append(items, newRecordView(idx, rec))
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"offset":  offset,
		"limit":   limit,
		"total":   total,
		"matches": items,
	})
}

func (s *Server) handleFilter(c *gin.Context) {
	if c.Query("format") == "yaml" {
		out, err := s.deps.Filter.YAML()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "application/yaml; charset=utf-8", out)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"active":   s.deps.Filter.Active(),
		"criteria": s.deps.Filter.Summary(),
		"summary":  s.deps.Filter.String(),
	})
}

func (s *Server) handleSchema(c *gin.Context) {
	if !s.requireMirror(c) {
		return
	}
	rows, err := s.deps.Mirror.ExecuteQuery(c.Request.Context(),
		"SELECT table_name, column_name, data_type FROM information_schema.columns WHERE table_schema = 'main' ORDER BY table_name, ordinal_position",
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read schema metadata"})
		return
	}

	tables := make(map[string][]gin.H)
	for _, row := range rows {
		name, _ := row["table_name"].(string)
		tables[name] = append(tables[name], gin.H{"column": row["column_name"], "type": row["data_type"]})
	}
	c.JSON(http.StatusOK, gin.H{
		"description": duckdb.SchemaDescription(),
		"tables":      tables,
	})
}

func (s *Server) handleTop(c *gin.Context) {
	if !s.requireMirror(c) {
		return
	}
	limit, err := queryInt(c, "limit", 10)
	if err != nil || limit <= 0 || limit > maxPageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
		return
	}
	var window time.Duration
	if w := c.Query("window"); w != "" {
		if window, err = time.ParseDuration(w); err != nil || window < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window must be a positive duration such as 15m"})
			return
		}
	}

	values, err := s.deps.Mirror.TopValues(c.Request.Context(), c.Param("dimension"), limit, window)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, duckdb.ErrQueryRejected) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if values == nil {
		values = []duckdb.DimensionCount{}
	}
	c.JSON(http.StatusOK, gin.H{"dimension": c.Param("dimension"), "values": values})
}

func (s *Server) handleQuery(c *gin.Context) {
	if !s.requireMirror(c) {
		return
	}
	var req struct {
		SQL string `json:"sql" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing sql field"})
		return
	}

	results, err := s.deps.Mirror.ExecuteQuery(c.Request.Context(), req.SQL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var columns []string
	if len(results) > 0 {
		for col := range results[0] {
			columns = append(columns, col)
		}
		sort.Strings(columns)
	}

	c.JSON(http.StatusOK, gin.H{
		"columns":   columns,
		"rows":      results,
		"row_count": len(results),
	})
}

func (s *Server) requireMirror(c *gin.Context) bool {
	if s.deps.Mirror == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sql mirror is disabled"})
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
