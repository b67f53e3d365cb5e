package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"taskpilot/internal/config"
	"taskpilot/internal/db"
	"taskpilot/pkg/oracle"
	"taskpilot/pkg/rank"
	"taskpilot/pkg/runlog"
	"taskpilot/pkg/task"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Read()
	if err != nil {
		fatal("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal("connect: %v", err)
	}
	defer pool.Close()

	tasks := task.NewPgStore(pool)
	runs := runlog.NewPgStore(pool)

	switch os.Args[1] {
	case "task":
		handleTask(ctx, tasks, os.Args[2:])
	case "rank":
		handleRank(ctx, cfg, tasks, runs, os.Args[2:])
	case "runs":
		handleRuns(ctx, runs, os.Args[2:])
	case "init":
		handleInit(ctx, tasks, runs)
	default:
		usage()
		os.Exit(1)
	}
}

func handleTask(ctx context.Context, store task.Store, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: tp task <list|get|preview> --owner=ID [--format=short]")
		os.Exit(1)
	}
	flags := parseFlags(args[1:])
	owner := requireOwner(flags)

	switch args[0] {
	case "list":
		list, err := store.List(ctx, owner, task.Filter{Category: flags["category"]})
		if err != nil {
			fatal("list tasks: %v", err)
		}
		if flags["format"] == "short" {
			printShortTasks(list)
		} else {
			printJSON(list)
		}

	case "get":
		t, err := store.Get(ctx, owner, requireID(args))
		if err != nil {
			fatal("get task: %v", err)
		}
		printJSON(t)

	// preview prints what fallback scoring would assign, without writing.
	case "preview":
		list, err := store.List(ctx, owner, task.Filter{Order: task.ByCreated})
		if err != nil {
			fatal("list tasks: %v", err)
		}
		now := time.Now()
		for _, t := range list {
			rec := rank.Fallback(t, now)
			fmt.Printf("%-6d  %3d  %-40s  %s\n", t.ID, rec.Score, truncStr(t.Title, 40), rec.Reason)
		}

	default:
		fatal("unknown task command: %s", args[0])
	}
}

func handleRank(ctx context.Context, cfg *config.Config, tasks task.Store, runs runlog.Store, args []string) {
	flags := parseFlags(args)
	owner := requireOwner(flags)

	var scorer rank.Scorer
	if _, offline := flags["offline"]; !offline {
		gen, err := oracle.NewGemini(ctx, cfg.Oracle)
		if err != nil {
			fatal("oracle: %v", err)
		}
		scorer = oracle.New(gen, cfg.Oracle.Timeout)
	}

	res, err := rank.New(tasks, scorer, runs).Rank(ctx, owner)
	if err != nil {
		fatal("rank: %v", err)
	}
	if flags["format"] == "short" {
		fmt.Printf("run %s: %s, %d updated\n", res.RunID, res.Strategy, res.Updated)
		printShortTasks(res.Tasks)
		return
	}
	printJSON(res)
}

func handleRuns(ctx context.Context, store runlog.Store, args []string) {
	flags := parseFlags(args)
	list, err := store.Recent(ctx, requireOwner(flags), intFlag(flags, "limit", 20))
	if err != nil {
		fatal("list runs: %v", err)
	}
	printJSON(list)
}

func handleInit(ctx context.Context, tasks task.Store, runs runlog.Store) {
	if err := tasks.EnsureTable(ctx); err != nil {
		fatal("ensure tasks table: %v", err)
	}
	if err := runs.EnsureTable(ctx); err != nil {
		fatal("ensure rank_runs table: %v", err)
	}
	fmt.Println("tables ready")
}

func parseFlags(args []string) map[string]string {
	flags := make(map[string]string)
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		arg = strings.TrimPrefix(arg, "--")
		if idx := strings.Index(arg, "="); idx >= 0 {
			flags[arg[:idx]] = arg[idx+1:]
		} else {
			flags[arg] = ""
		}
	}
	return flags
}

func intFlag(flags map[string]string, key string, defaultVal int) int {
	if v, ok := flags[key]; ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func requireOwner(flags map[string]string) string {
	owner := flags["owner"]
	if owner == "" {
		fatal("--owner is required")
	}
	return owner
}

// requireID reads the first positional argument after the subcommand.
func requireID(args []string) int64 {
	for _, a := range args[1:] {
		if strings.HasPrefix(a, "--") {
			continue
		}
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			fatal("invalid task id %q", a)
		}
		return id
	}
	fatal("task id is required")
	return 0
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal("encode JSON: %v", err)
	}
}

func truncStr(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func printShortTasks(tasks []task.Task) {
	for _, t := range tasks {
		fmt.Printf("%-6d  %4s  %-12s  %s\n", t.ID, t.PriorityScore, truncStr(t.Category, 12), truncStr(t.Title, 60))
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "tp: "+format+"\n", args...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: tp <command>

Commands:
  task   Task operations (list, get <id>, preview) --owner=ID
  rank   Run a ranking for --owner=ID [--offline] [--format=short]
  runs   Show recent ranking runs for --owner=ID [--limit=N]
  init   Create database tables`)
}
