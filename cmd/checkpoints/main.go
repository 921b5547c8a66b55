package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"jobsight/internal/checkpoint"
	"jobsight/internal/config"
)

func main() {
	dir := flag.String("dir", "", "checkpoint directory (defaults to the configured checkpoints dir)")
	list := flag.Bool("list", false, "list stored checkpoints")
	clear := flag.String("clear", "", "remove one checkpoint by name")
	clearAll := flag.Bool("clear-all", false, "remove every checkpoint")
	flag.Parse()

	if !*list && *clear == "" && !*clearAll {
		fmt.Fprintln(os.Stderr, "usage: checkpoints [-dir <dir>] -list | -clear <name> | -clear-all")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *dir == "" {
		cfg, err := config.Load("")
		if err != nil {
			slog.Error("Failed to load config", "error", err)
			os.Exit(1)
		}
		*dir = cfg.Paths.CheckpointsDir
	}

	manager, err := checkpoint.NewManager(*dir)
	if err != nil {
		slog.Error("Failed to open checkpoint directory", "error", err, "dir", *dir)
		os.Exit(1)
	}

	switch {
	case *clearAll:
		if err := manager.ClearAll(); err != nil {
			slog.Error("Failed to clear checkpoints", "error", err)
			os.Exit(1)
		}
		fmt.Println("All checkpoints cleared.")
	case *clear != "":
		if err := manager.Clear(*clear); err != nil {
			slog.Error("Failed to clear checkpoint", "error", err, "name", *clear)
			os.Exit(1)
		}
		fmt.Printf("Checkpoint %s cleared.\n", *clear)
	case *list:
		infos, err := manager.List()
		if err != nil {
			slog.Error("Failed to list checkpoints", "error", err)
			os.Exit(1)
		}
		if len(infos) == 0 {
			fmt.Printf("No checkpoints in %s.\n", *dir)
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tCREATED")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%d\t%s\n", info.Name, info.Size, info.CreatedAt.Format(time.RFC3339))
		}
		w.Flush()
	}
}
