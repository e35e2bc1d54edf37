package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lox/blackjack/internal/audit"
	"github.com/lox/blackjack/internal/audit/sqlite"
	"github.com/lox/blackjack/internal/client"
)

// AuditCmd prints recorded rounds, newest first.
type AuditCmd struct {
	DB    string `arg:"" optional:"" help:"Path to the SQLite audit database"`
	URL   string `short:"u" help:"Fetch from a running server instead of a database"`
	Table string `short:"t" help:"Table id (default: list tables)"`
	Page  int    `short:"p" default:"0" help:"Page number, 0 is the newest"`
	Size  int    `short:"n" default:"10" help:"Rounds per page (max 50)"`
}

func (c *AuditCmd) Run(g *Globals) error {
	if c.URL != "" {
		return c.remote(g)
	}
	if c.DB == "" {
		return errors.New("audit needs a database path or --url")
	}
	if _, err := os.Stat(c.DB); err != nil {
		return fmt.Errorf("audit database: %w", err)
	}
	store, err := sqlite.Open(c.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if c.Table == "" {
		return c.listTables(ctx, store)
	}

	resp, err := store.Page(ctx, c.Table, c.Page, c.Size)
	if err != nil {
		return err
	}
	printPage(resp)
	return nil
}

func (c *AuditCmd) listTables(ctx context.Context, store *sqlite.Store) error {
	tables, err := store.Tables(ctx)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		fmt.Println("No rounds recorded")
		return nil
	}
	for _, id := range tables {
		n, err := store.Count(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("%-20s %d rounds\n", id, n)
	}
	return nil
}

func (c *AuditCmd) remote(g *Globals) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := client.Dial(ctx, c.URL, g.Logger())
	if err != nil {
		return err
	}
	defer conn.Close()

	if c.Table == "" {
		tables, err := conn.Tables(ctx)
		if err != nil {
			return err
		}
		for _, t := range tables {
			fmt.Printf("%-20s %d rounds (%s)\n", t.ID, t.Rounds, t.Phase)
		}
		return nil
	}

	resp, err := conn.AuditPage(ctx, c.Table, c.Page, c.Size)
	if err != nil {
		return err
	}
	printPage(resp)
	return nil
}

func printPage(resp audit.PageResponse) {
	fmt.Printf("Table %s: page %d of %d (%d rounds)\n\n",
		resp.PositionID, resp.Page+1, max(1, resp.Pages()), resp.Total)
	if len(resp.Records) == 0 {
		return
	}
	fmt.Printf("%-19s %-8s %6s %6s %6s %-6s %s\n", "ended", "result", "bet", "payout", "dealer", "flags", "player")
	for _, r := range resp.Records {
		var flags []string
		if r.DoubledDown {
			flags = append(flags, "D")
		}
		if r.Split {
			flags = append(flags, "S")
		}
		scores := make([]string, len(r.PlayerScores))
		for i, s := range r.PlayerScores {
			scores[i] = fmt.Sprint(s)
		}
		fmt.Printf("%-19s %-8s %6d %6d %6d %-6s %s\n",
			r.End().Format(time.DateTime),
			r.Result,
			r.Bet,
			r.Payout,
			r.DealerScore,
			strings.Join(flags, ""),
			strings.Join(scores, "/"))
	}
}
