package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/marco/filmfinder/internal/config"
)

var (
	configPath   = flag.String("config", config.DefaultPath, "Path to configuration file")
	forceRefresh = flag.Bool("force-refresh", false, "Ignore cached TMDB/OMDb responses")
	verbose      = flag.Bool("verbose", false, "Show detailed logging")
)

// errUsage marks command line mistakes; main prints usage for them
var errUsage = errors.New("usage")

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: filmfinder [flags] <command> [args]\n\n")
	fmt.Fprintf(out, "Commands:\n")
	fmt.Fprintf(out, "  trending [-window day|week]       Trending movies\n")
	fmt.Fprintf(out, "  search <query>                    Search by title\n")
	fmt.Fprintf(out, "  suggest <query>                   Up to five quick matches\n")
	fmt.Fprintf(out, "  movie <id>                        Full details (records the view)\n")
	fmt.Fprintf(out, "  genres                            List genres\n")
	fmt.Fprintf(out, "  browse -genres 28,12 [filters]    Discover by genre\n")
	fmt.Fprintf(out, "  surprise [filters]                Random pick\n")
	fmt.Fprintf(out, "  watchlist [list|add|remove|watched|unwatched] [id] [-filter all|unwatched|watched]\n")
	fmt.Fprintf(out, "  watchlist import <dir>            Add movies described by Kodi/Jellyfin .nfo files\n")
	fmt.Fprintf(out, "  recent                            Recently viewed\n")
	fmt.Fprintf(out, "  refresh [-every 6h]               Update saved watchlist entries from TMDB\n")
	fmt.Fprintf(out, "  follow                            Print the watchlist whenever it changes on disk\n\n")
	fmt.Fprintf(out, "Flags:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	slog.Debug("configuration loaded", "path", *configPath, "storage", cfg.Storage.Backend, "cache", cfg.Cache.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := newEnv(cfg, *forceRefresh)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = run(ctx, env, flag.Arg(0), flag.Args()[1:])
	env.Close()

	if errors.Is(err, errUsage) {
		fmt.Fprintf(os.Stderr, "%v\n\n", err)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, env *env, command string, args []string) error {
	switch command {
	case "trending":
		return cmdTrending(ctx, env, args)
	case "search":
		return cmdSearch(ctx, env, args, false)
	case "suggest":
		return cmdSearch(ctx, env, args, true)
	case "movie":
		return cmdMovie(ctx, env, args)
	case "genres":
		return cmdGenres(ctx, env)
	case "browse":
		return cmdBrowse(ctx, env, args)
	case "surprise":
		return cmdSurprise(ctx, env, args)
	case "watchlist":
		return cmdWatchlist(ctx, env, args)
	case "recent":
		return cmdRecent(env)
	case "refresh":
		return cmdRefresh(ctx, env, args)
	case "follow":
		return cmdFollow(ctx, env)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}
