package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/Songle/internal/config"
	"github.com/himanishpuri/Songle/pkg/logger"
	"github.com/himanishpuri/Songle/pkg/models"
	"github.com/himanishpuri/Songle/pkg/songle"
	"github.com/himanishpuri/Songle/pkg/songle/audio"
	"github.com/himanishpuri/Songle/pkg/songle/catalog"
	"github.com/himanishpuri/Songle/pkg/utils"
)

// Global flags
var configFile string

func init() {
	flag.StringVar(&configFile, "config", "", "Path to config file (default: ./config.yaml if present)")
}

// loadConfig reads the shared config or exits.
func loadConfig() *config.Config {
	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Printf("❌ Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// createService creates a Songle service from the shared config
func createService(cfg *config.Config) songle.Service {
	log := logger.GetLogger()

	opts, err := cfg.ServiceOptions()
	if err != nil {
		fmt.Printf("❌ Invalid config: %v\n", err)
		os.Exit(1)
	}
	svc, err := songle.NewService(opts...)
	if err != nil {
		fmt.Printf("❌ Failed to create service: %v\n", err)
		log.Errorf("Service initialization failed: %v", err)
		os.Exit(1)
	}
	return svc
}

func main() {
	flag.Usage = printUsage
	flag.Parse()
	log := logger.GetLogger()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "durations":
		handleDurations()
	case "resolve":
		handleResolve(args)
	case "clip":
		handleClip(args)
	case "add":
		handleAdd(args)
	case "tidy":
		handleTidy(args)
	case "stats":
		handleStats()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// splitArgs separates leading positional arguments from flags.
func splitArgs(args []string) (positional, flags []string) {
	for i, arg := range args {
		if strings.HasPrefix(arg, "-") {
			return positional, args[i:]
		}
		positional = append(positional, arg)
	}
	return positional, nil
}

// dayKey turns an optional YYYY-MM-DD flag into a validated date key.
func dayKey(svc songle.Service, cfg *config.Config, day string) int64 {
	if day == "" {
		return svc.CurrentDate()
	}
	loc, err := cfg.Location()
	if err != nil {
		fmt.Printf("❌ Invalid timezone: %v\n", err)
		os.Exit(1)
	}
	key, err := utils.ParseDay(day, loc)
	if err != nil {
		fmt.Printf("❌ Invalid date %q, expected YYYY-MM-DD\n", day)
		os.Exit(1)
	}
	if key, err = svc.NormalizeDate(key); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	return key
}

func formatDuration(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func handleDurations() {
	cfg := loadConfig()
	svc := createService(cfg)
	defer svc.Close()

	songs := svc.Catalog().Songs()
	fmt.Printf("\n📚 %d song(s), in selection order:\n\n", len(songs))
	for i, song := range songs {
		fmt.Printf("%3d. %-40s %8.3fs (%s)\n", i, song.ID, song.Duration, formatDuration(song.Duration))
	}
}

func handleResolve(args []string) {
	cmd := flag.NewFlagSet("resolve", flag.ExitOnError)
	day := cmd.String("date", "", "Day to resolve as YYYY-MM-DD (default: today)")
	cmd.Parse(args)

	cfg := loadConfig()
	svc := createService(cfg)
	defer svc.Close()

	key := dayKey(svc, cfg, *day)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a, err := svc.ResolveDaily(ctx, key)
	if err != nil {
		fmt.Printf("❌ Failed to resolve day: %v\n", err)
		os.Exit(1)
	}

	loc, _ := cfg.Location()
	fmt.Printf("\n🎵 Songs of %s (key %d):\n\n", utils.FormatDay(key, loc), key)
	cat := svc.Catalog()
	for i, pick := range a.Songs {
		name := pick.SongID
		if song, err := cat.Get(pick.SongID); err == nil {
			name = song.DisplayName(pick.SongID)
		}
		fmt.Printf("%d. %s\n", i+1, name)
		fmt.Printf("   Clue 1: %ss  Clue 2: %ss  Clue 3: 0s\n",
			strconv.FormatFloat(pick.Clue1Start, 'f', -1, 64),
			strconv.FormatFloat(pick.Clue2Start, 'f', -1, 64))
	}
}

func handleClip(args []string) {
	positional, flagArgs := splitArgs(args)
	if len(positional) != 2 {
		fmt.Println("Usage: songle clip <song> <clue> [-date YYYY-MM-DD] -out <file>")
		os.Exit(1)
	}
	n, err := strconv.Atoi(positional[1])
	clue := models.ClueIndex(n)
	if err != nil || !clue.Valid() {
		fmt.Printf("❌ Clue must be 1, 2 or 3, got %q\n", positional[1])
		os.Exit(1)
	}

	cmd := flag.NewFlagSet("clip", flag.ExitOnError)
	day := cmd.String("date", "", "Day of the clip as YYYY-MM-DD (default: today)")
	out := cmd.String("out", "", "Output file (required)")
	cmd.Parse(flagArgs)
	if *out == "" {
		fmt.Println("Error: -out is required")
		os.Exit(1)
	}

	cfg := loadConfig()
	svc := createService(cfg)
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	clip, err := svc.GetClip(ctx, positional[0], clue, dayKey(svc, cfg, *day))
	if err != nil {
		fmt.Printf("❌ Failed to extract clip: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, clip, 0o644); err != nil {
		fmt.Printf("❌ Failed to write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("✅ Wrote %d bytes (%s) to %s\n", len(clip), svc.ClipContentType(), *out)
}

func handleAdd(args []string) {
	log := logger.GetLogger()

	positional, flagArgs := splitArgs(args)
	if len(positional) != 1 {
		fmt.Println("Usage: songle add <song_id> -name <name> -artists <a,b> [-cover <id>] [-link <url>] [-acronyms <x,y>] [-aliases <n,m>] [-tags]")
		os.Exit(1)
	}
	id := positional[0]

	cmd := flag.NewFlagSet("add", flag.ExitOnError)
	name := cmd.String("name", "", "Display name (required)")
	artists := cmd.String("artists", "", "Comma separated artists (required)")
	aliases := cmd.String("aliases", "", "Comma separated alternative names")
	acronyms := cmd.String("acronyms", "", "Comma separated accepted acronyms")
	cover := cmd.String("cover", "", "Cover id (default: the song id)")
	link := cmd.String("link", "", "External link to the song")
	fromTags := cmd.Bool("tags", false, "Fill missing -name and -artists from the audio file tags")
	cmd.Parse(flagArgs)

	cfg := loadConfig()
	if *fromTags {
		path := filepath.Join(cfg.Paths.Songs, id+"."+cfg.Audio.Format)
		tags, err := audio.ReadTags(path)
		if err != nil {
			log.Warnf("No usable tags in %s: %v", path, err)
		}
		if *name == "" {
			*name = tags.Title
		}
		if *artists == "" {
			*artists = tags.Artist
		}
	}

	if *name == "" || *artists == "" {
		fmt.Println("Error: -name and -artists are required")
		os.Exit(1)
	}

	meta := models.SongMetadata{
		Cover:    *cover,
		Artists:  utils.SplitList(*artists),
		Acronyms: utils.SplitList(*acronyms),
		Names:    append([]string{*name}, utils.SplitList(*aliases)...),
	}
	if meta.Cover == "" {
		meta.Cover = id
	}
	if meta.Acronyms == nil {
		meta.Acronyms = []string{}
	}
	if *link != "" {
		normalized, err := utils.NormalizeLink(*link)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		meta.Link = normalized
	}

	if err := catalog.NewFileMetadataSource(cfg.Paths.Metadata).Put(id, meta); err != nil {
		fmt.Printf("❌ Failed to update %s: %v\n", cfg.Paths.Metadata, err)
		log.Errorf("Metadata update failed: %v", err)
		os.Exit(1)
	}

	fmt.Println("\n✅ Song added to metadata!")
	fmt.Printf("   ID:      %s\n", id)
	fmt.Printf("   Name:    %s\n", meta.DisplayName(id))
	fmt.Printf("   Artists: %s\n", strings.Join(meta.Artists, ", "))
	fmt.Printf("   Cover:   %s\n", meta.Cover)
	if meta.Link != "" {
		fmt.Printf("   Link:    %s\n", meta.Link)
	}
	fmt.Println("\nThe running server picks it up at the next day rollover.")
}

func handleTidy(args []string) {
	cmd := flag.NewFlagSet("tidy", flag.ExitOnError)
	prefix := cmd.String("prefix", "", `Artist prefix to strip, e.g. "Artist - "`)
	dryRun := cmd.Bool("n", false, "Only print what would be renamed")
	cmd.Parse(args)

	cfg := loadConfig()
	dir := cfg.Paths.Songs
	ext := "." + cfg.Audio.Format

	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Printf("❌ Failed to read %s: %v\n", dir, err)
		os.Exit(1)
	}

	renamed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ext {
			continue
		}
		tidy := utils.TidySongFileName(e.Name(), *prefix)
		if tidy == e.Name() {
			continue
		}
		fmt.Printf("%s -> %s\n", e.Name(), tidy)
		if *dryRun {
			continue
		}
		if err := utils.MoveFile(filepath.Join(dir, e.Name()), filepath.Join(dir, tidy)); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		renamed++
	}
	fmt.Printf("\n✅ Renamed %d file(s)\n", renamed)
}

func handleStats() {
	cfg := loadConfig()
	svc := createService(cfg)
	defer svc.Close()

	totals, err := svc.Stats().Totals()
	if err != nil {
		fmt.Printf("❌ Failed to read stats: %v\n", err)
		os.Exit(1)
	}
	info := svc.StartInfo()
	fmt.Println("\n📊 Songle statistics")
	fmt.Printf("   Days played:   %d\n", info.Days)
	fmt.Printf("   Home views:    %d\n", totals.HomepageViews)
	fmt.Printf("   Days finished: %d\n", totals.DaysFinished)
}

func printUsage() {
	fmt.Println("Songle - daily song guessing game tools")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --config <path>    Config file (env SONGLE_* overrides, default: ./config.yaml)")
	fmt.Println("\nUsage:")
	fmt.Println("  songle [global-options] durations")
	fmt.Println("  songle [global-options] resolve [-date YYYY-MM-DD]")
	fmt.Println("  songle [global-options] clip <song> <clue> [-date YYYY-MM-DD] -out <file>")
	fmt.Println("  songle [global-options] add <song_id> -name <name> -artists <a,b> [-cover <id>] [-link <url>] [-tags]")
	fmt.Println("  songle [global-options] tidy -prefix <prefix> [-n]")
	fmt.Println("  songle [global-options] stats")
	fmt.Println("\nExamples:")
	fmt.Println("  # Serve yesterday's third clue of a song")
	fmt.Println("  songle clip \"Some Song\" 3 -date 2024-03-01 -out clue.mp3")
	fmt.Println()
	fmt.Println("  # Strip the artist prefix and download tags from file names")
	fmt.Println("  songle tidy -prefix \"Artist - \"")
}
