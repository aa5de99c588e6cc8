package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/revittco/pealink/internal/store"
)

func cmdExports(args []string) error {
	pos := positional(args)
	if len(pos) < 1 {
		return fmt.Errorf("usage: pealink exports <list|get|delete> [args...]")
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

	sub := pos[0]
	rest := pos[1:]

	switch sub {
	case "list":
		f := store.ExportFilter{}
		if v, ok := flagValue(args, "workflow"); ok {
			f.Workflow = &v
		}
		if v, ok := flagValue(args, "limit"); ok {
			if f.Limit, err = strconv.Atoi(v); err != nil {
				return fmt.Errorf("--limit: %w", err)
			}
		}
		list, err := db.ListExports(ctx, f)
		if err != nil {
			return fmt.Errorf("list exports: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No exports")
			return nil
		}
		for _, e := range list {
			sealed := ""
			if e.Sealed {
				sealed = " (sealed)"
			}
			fmt.Printf("%s  %s  %-18s %-20s %dx%d %d bytes%s\n",
				e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				e.Workflow, e.Target, e.Width, e.Height, e.Size, sealed)
		}

	case "get":
		if len(rest) < 1 {
			return fmt.Errorf("usage: pealink exports get <id> [--out=PATH]")
		}
		e, err := db.GetExport(ctx, rest[0])
		if err != nil {
			return fmt.Errorf("get export: %w", err)
		}
		out, ok := flagValue(args, "out")
		if !ok {
			out = e.Name
		}
		if err := os.WriteFile(out, e.Data, 0o644); err != nil {
			return err
		}
		fmt.Printf("Export %s written to %s (%s, %d bytes)\n", e.ID, out, e.MIME, len(e.Data))

	case "delete":
		if len(rest) < 1 {
			return fmt.Errorf("usage: pealink exports delete <id>")
		}
		if err := db.DeleteExport(ctx, rest[0]); err != nil {
			return fmt.Errorf("delete export: %w", err)
		}
		fmt.Printf("Export %s deleted\n", rest[0])

	default:
		return fmt.Errorf("unknown exports subcommand: %s", sub)
	}
	return nil
}
