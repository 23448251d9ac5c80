package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"

	"heartline/domain"
)

// Config of the read-only viewer.
type Config struct {
	BadgerFilepath string `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
	// VIEWER_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"VIEWER_COLOURS" default:"true"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// Par défaut on scanne toutes les conversations, --group limite à un seul fil
	group := flag.String("group", "", "Conversation group key (e.g. alice-bob)")
	flag.Parse()

	// Open Badger in Read-Only mode
	// Note: BypassLockGuard allows opening if another process (the hub) holds the lock
	opts := badger.DefaultOptions(cfg.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	header := fmt.Sprintf(" Conversations (%s) ", cfg.BadgerFilepath)
	if cfg.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	fmt.Println(header)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Group", "Time", "From", "To", "Read", "Content"})
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

	prefix := "msg:"
	if *group != "" {
		prefix = "msg:" + *group + ":"
	}

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()

			err := item.Value(func(v []byte) error {
				var m domain.Message
				if err := json.Unmarshal(v, &m); err != nil {
					// Au lieu de stopper tout le script, on log l'erreur et on continue
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}

				table.Append([]string{
					groupOf(string(item.Key())),
					m.SentAt.Format(time.DateTime),
					m.SenderUsername,
					m.RecipientUsername,
					readState(m, cfg.Colours),
					m.Content,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func groupOf(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return "?"
	}
	return parts[1]
}

func readState(m domain.Message, colours bool) string {
	if m.ReadAt == nil {
		if colours {
			return color.FgYellow.Render("unread")
		}
		return "unread"
	}
	state := m.ReadAt.Format("15:04:05")
	if colours {
		return color.FgGreen.Render(state)
	}
	return state
}
