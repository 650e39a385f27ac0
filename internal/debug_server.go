package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"os"
	goruntime "runtime"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/shirou/gopsutil/process"
)

//go:embed inspect.html
var templatesFS embed.FS

var (
	resumeChan  = make(chan struct{}, 1)
	currentPort int
)

type InspectRow struct {
	Key       string
	Kind      string
	Timestamp string
	EntityID  string
	Segment   string
	Detail    string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

func Inspect(db *badger.DB, port int, endpoint string, mapper RowMapper, statsProvider StatsProvider, prefix string, fn func()) {
	StartDebugServer(db, port, endpoint, mapper, statsProvider)

	if fn != nil {
		fn()
	}

	Wait(prefix)
}

func StartDebugServer(db *badger.DB, port int, endpoint string, mapper RowMapper, statsProvider StatsProvider) {
	currentPort = port
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	if mapper == nil {
		mapper = DefaultMapper
	}

	mux.HandleFunc(endpoint, func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}

		data := PageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}

		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	mux.HandleFunc("/resume", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-resumeChan:
		default:
		}
		resumeChan <- struct{}{}
		fmt.Fprint(w, "RESUMED")
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

func Wait(prefix string) {
	url := fmt.Sprintf("http://localhost:%d/inspect?prefix=%s", currentPort, prefix)
	fmt.Printf("\n--- PAUSED ---\n\n%s\n\n--------------\n", url)
	<-resumeChan
}

// ProcessStats reports the process vitals shown on the inspect dashboard.
func ProcessStats() StatsProvider {
	p, err := process.NewProcess(int32(os.Getpid()))
	return func() map[string]any {
		stats := map[string]any{
			"pid":        os.Getpid(),
			"goroutines": goruntime.NumGoroutine(),
		}
		if err != nil {
			return stats
		}
		if mem, err := p.MemoryInfo(); err == nil {
			stats["rss_mb"] = mem.RSS / (1024 * 1024)
		}
		if cpu, err := p.CPUPercent(); err == nil {
			stats["cpu_percent"] = fmt.Sprintf("%.1f", cpu)
		}
		if status, err := p.Status(); err == nil {
			stats["status"] = status
		}
		return stats
	}
}

// DefaultMapper understands the message key scheme
// msg:{segment}:{unixnano}:{uuid} and falls back to raw display for
// everything else.
func DefaultMapper(key string, val []byte) InspectRow {
	parts := strings.Split(key, ":")
	row := InspectRow{
		Key:       key,
		Kind:      "RAW",
		Timestamp: "--:--:--",
		EntityID:  "--------",
		Segment:   "default",
		Detail:    "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	if len(parts) >= 4 && parts[0] == "msg" {
		row.Kind = "MESSAGE"
		row.Segment = parts[1]
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).Format("15:04:05")
		}
		row.EntityID = shorten(parts[3])

		var body struct {
			Sender  string `json:"senderUsername"`
			Content string `json:"content"`
			Status  string `json:"status"`
		}
		if err := json.Unmarshal(val, &body); err == nil {
			row.Detail = fmt.Sprintf("[%s] %s: %s", body.Status, body.Sender, snippet(body.Content, 60))
		}
		return row
	}

	if len(parts) >= 2 {
		row.Kind = strings.ToUpper(parts[0])
		row.EntityID = shorten(parts[1])
	}
	return row
}

func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func snippet(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
