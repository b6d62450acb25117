package ginserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"erent/internal/domain/shared/paging"
)

const idempotencyHeader = "Idempotency-Key"

var errTimeFormat = errors.New("expected RFC 3339 or YYYY-MM-DD")

func newID() string {
	return uuid.NewString()
}

func idempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(idempotencyHeader))
}

// bindJSON decodes the body into dst, reporting failures as ErrBadRequest.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return fmt.Errorf("%w: %s", ErrBadRequest, err.Error())
	}
	return nil
}

// queryReader parses optional query parameters and keeps the first error.
type queryReader struct {
	c   *gin.Context
	err error
}

func readQuery(c *gin.Context) *queryReader {
	return &queryReader{c: c}
}

func (r *queryReader) fail(name, raw string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: query parameter %s=%q: %v", ErrBadRequest, name, raw, err)
	}
}

func (r *queryReader) str(name string) string {
	return strings.TrimSpace(r.c.Query(name))
}

func (r *queryReader) intPtr(name string) *int {
	raw := r.str(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(name, raw, err)
		return nil
	}
	return &v
}

func (r *queryReader) int64Ptr(name string) *int64 {
	raw := r.str(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		r.fail(name, raw, err)
		return nil
	}
	return &v
}

func (r *queryReader) boolPtr(name string) *bool {
	raw := r.str(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(name, raw, err)
		return nil
	}
	return &v
}

func (r *queryReader) flag(name string) bool {
	v := r.boolPtr(name)
	return v != nil && *v
}

func (r *queryReader) timePtr(name string) *time.Time {
	raw := r.str(name)
	if raw == "" {
		return nil
	}
	v, err := parseTime(raw)
	if err != nil {
		r.fail(name, raw, err)
		return nil
	}
	return &v
}

func (r *queryReader) list(name string) []string {
	var out []string
	for _, raw := range r.c.QueryArray(name) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// paging reads page, page_size, include_total_count and retrieve_all.
func (r *queryReader) paging() paging.Params {
	return paging.Params{
		Page:              r.intPtr("page"),
		PageSize:          r.intPtr("page_size"),
		IncludeTotalCount: r.flag("include_total_count"),
		RetrieveAll:       r.flag("retrieve_all"),
	}
}

// parseTime accepts RFC 3339 timestamps and plain dates, read as UTC midnight.
func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, errTimeFormat
	}
	return t, nil
}

// timestamp is a JSON time that also accepts plain dates.
type timestamp struct {
	time.Time
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := parseTime(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
