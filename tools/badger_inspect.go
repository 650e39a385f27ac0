package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"talkify/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

// Dumps the content of the store as a flat table. Records are JSON, so the
// tool stays independent from the server process and its lock.
func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg:, user:, room:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Timestamp", "Entity ID", "Segment", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			// Secondary indexes carry no payload worth showing
			if strings.HasPrefix(key, "roompair:") || strings.HasPrefix(key, "roomuser:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				table.Append(toRow(key, v))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error while scanning: ", err)
	}

	table.Render()
}

func toRow(key string, val []byte) []string {
	parts := strings.Split(key, ":")

	switch parts[0] {
	case "msg":
		var message domain.Message
		if err := json.Unmarshal(val, &message); err != nil {
			return rawRow(key, val)
		}
		timestamp := "--:--:--"
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			timestamp = time.Unix(0, tsNano).Format("15:04:05")
		}
		detail := fmt.Sprintf("[%s/%s] %s: %s",
			message.Type, message.Status, message.Sender, snippet(message.Content, 50))
		return []string{key, "MESSAGE", timestamp, shorten(message.ID.String()), parts[1], detail}

	case "user":
		var user domain.User
		if err := json.Unmarshal(val, &user); err != nil {
			return rawRow(key, val)
		}
		presence := "offline"
		if user.Online {
			presence = "online"
		}
		if user.LastSeen != nil {
			presence += " (last seen " + user.LastSeen.Format("15:04:05") + ")"
		}
		return []string{key, "USER", "-", shorten(user.ID.String()), "-", user.Username + " " + presence}

	case "room":
		var room domain.Room
		if err := json.Unmarshal(val, &room); err != nil {
			return rawRow(key, val)
		}
		kind := "1on1"
		if room.GroupChat {
			kind = "group"
		}
		detail := fmt.Sprintf("%s [%s] %s", room.Name, kind, strings.Join(room.Participants, ", "))
		return []string{key, "ROOM", room.CreatedAt.Format("15:04:05"), shorten(room.ID.String()), "-", detail}
	}

	return rawRow(key, val)
}

func rawRow(key string, val []byte) []string {
	return []string{key, "RAW", "-", "-", "-", fmt.Sprintf("%d bytes", len(val))}
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

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.ERROR)
	return badger.Open(opts)
}
