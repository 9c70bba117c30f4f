package internal

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"

	"studio-live/observability"
)

// InspectRow is one decoded badger entry for the debug UI.
type InspectRow struct {
	Key       string `json:"key"`
	Recipient string `json:"recipient"`
	Timestamp string `json:"timestamp"`
	EntityID  string `json:"entity_id"`
	Size      int    `json:"size"`
}

// DebugRoutes exposes process stats and a badger key inspector. Mounted only
// when the debug toggle is on; never in front of users.
func DebugRoutes(db *badger.DB, stats *observability.Stats) chi.Router {
	r := chi.NewRouter()

	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats.Snapshot())
	})

	r.Get("/keys", func(w http.ResponseWriter, req *http.Request) {
		prefix := req.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "ntf:"
		}

		var rows []InspectRow
		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				size := 0
				_ = item.Value(func(val []byte) error {
					size = len(val)
					return nil
				})
				rows = append(rows, mapRow(string(item.Key()), size))
			}
			return nil
		})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)
	})

	return r
}

func mapRow(key string, size int) InspectRow {
	row := InspectRow{
		Key:       key,
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Size:      size,
	}
	parts := strings.Split(key, ":")
	if len(parts) >= 4 {
		row.Recipient = parts[1]
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).UTC().Format("15:04:05")
		}
		row.EntityID = parts[3]
		if len(row.EntityID) > 8 {
			row.EntityID = row.EntityID[:8]
		}
	}
	return row
}
