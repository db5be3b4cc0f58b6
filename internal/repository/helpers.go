package repository

import (
	"strconv"

	"github.com/lib/pq"

	"github.com/unclebandit/outreach-backend/internal/model"
)

func itoa(n int) string {
	if n < 1 {
		n = 100
	}
	return strconv.Itoa(n)
}

// nullableJSON maps an empty RawMessage to SQL NULL.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

func statusArray(statuses []model.EmailStatus) any {
	raw := make([]string, len(statuses))
	for i, s := range statuses {
		raw[i] = string(s)
	}
	return pq.Array(raw)
}
