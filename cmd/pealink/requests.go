package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/revittco/pealink/internal/store"
)

func cmdRequests(args []string) error {
	pos := positional(args)
	sub := "list"
	if len(pos) > 0 {
		sub = pos[0]
	}

	ctx := context.Background()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cfg, args)

	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	switch sub {
	case "list":
		f := store.RequestFilter{}
		if v, ok := flagValue(args, "command"); ok {
			f.Command = &v
		}
		if v, ok := flagValue(args, "status"); ok {
			f.Status = &v
		}
		if v, ok := flagValue(args, "limit"); ok {
			if f.Limit, err = strconv.Atoi(v); err != nil {
				return fmt.Errorf("--limit: %w", err)
			}
		}
		records, total, err := db.QueryRequestRecords(ctx, f)
		if err != nil {
			return fmt.Errorf("query requests: %w", err)
		}
		for _, r := range records {
			fmt.Printf("%s  %-20s %-9s %5dms %3d payloads %8d bytes  %s\n",
				r.Timestamp.Local().Format("2006-01-02 15:04:05"),
				r.Command, r.Status, r.LatencyMs, r.Payloads, r.ResponseSize, r.ErrorMessage)
		}
		fmt.Printf("%d of %d requests\n", len(records), total)

	case "stats":
		window := 24 * time.Hour
		if v, ok := flagValue(args, "since"); ok {
			if window, err = time.ParseDuration(v); err != nil {
				return fmt.Errorf("--since: %w", err)
			}
		}
		now := time.Now().UTC()
		s, err := db.GetRequestStats(ctx, now.Add(-window), now)
		if err != nil {
			return err
		}
		fmt.Printf("Requests (last %s, db: %s)\n", window, cfg.DBPath)
		fmt.Printf("  Total:      %d\n", s.TotalRequests)
		fmt.Printf("  Success:    %d\n", s.SuccessCount)
		fmt.Printf("  Errors:     %d\n", s.ErrorCount)
		fmt.Printf("  Abandoned:  %d\n", s.AbandonedCount)
		fmt.Printf("  Avg latency: %.1fms\n", s.AvgLatencyMs)
		fmt.Printf("  Received:   %d bytes\n", s.BytesReceived)

	default:
		return fmt.Errorf("usage: pealink requests [list|stats] [flags]")
	}
	return nil
}
