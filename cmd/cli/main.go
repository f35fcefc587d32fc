package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"phillysafe/internal/app"
	"phillysafe/internal/crime"
	"phillysafe/internal/export"
	"phillysafe/internal/httpclient"
	"phillysafe/internal/normalize"
	"phillysafe/pkg/models"
	"phillysafe/pkg/utils"
)

func main() {
	cfg := utils.LoadConfig()

	global := flag.NewFlagSet("phillysafe", flag.ExitOnError)
	global.StringVar(&cfg.CrimeBaseURL, "crime", cfg.CrimeBaseURL, "primary crime data API base URL")
	global.StringVar(&cfg.SimulatedBaseURL, "sim", cfg.SimulatedBaseURL, "simulated crime data API base URL")
	global.StringVar(&cfg.AuthBaseURL, "auth", cfg.AuthBaseURL, "auth service base URL")
	global.StringVar(&cfg.MirrorPath, "mirror", cfg.MirrorPath, "local incident fixture used as last fallback")
	global.StringVar(&cfg.SessionStore, "store", cfg.SessionStore, "session store: file, sqlite, redis or memory")
	global.StringVar(&cfg.SessionPath, "session", cfg.SessionPath, "session file or database path")
	global.BoolVar(&cfg.AutoRegisterOnLogin, "auto-register", cfg.AutoRegisterOnLogin, "register unknown users on login")
	verbose := global.Bool("v", false, "log HTTP failures and fallbacks")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)
	if !*verbose {
		logger.SetOutput(io.Discard)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("start: %v", err)
	}
	defer a.Close()

	cmd := args[0]
	sub := ""
	if len(args) > 1 {
		sub = args[1]
	}
	rest := []string{}
	if len(args) > 2 {
		rest = args[2:]
	}

	switch cmd {
	case "auth":
		handleAuth(ctx, a, sub, rest)
	case "crime":
		handleCrime(ctx, a, sub, rest)
	case "reports":
		handleReports(ctx, a, sub, rest)
	case "stats":
		handleStats(ctx, a, sub, rest)
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, a *app.App, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		username := fs.String("username", "", "username")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *username == "" || *password == "" {
			log.Fatal("username and password are required")
		}
		user, err := a.Auth.Login(ctx, *username, *password)
		if err != nil {
			fatal("login failed", err)
		}
		fmt.Printf("✅ logged in as %s\n", user.Username)
	case "register":
		fs := flag.NewFlagSet("auth register", flag.ExitOnError)
		username := fs.String("username", "", "username")
		password := fs.String("password", "", "password")
		displayName := fs.String("display-name", "", "display name (defaults to username)")
		_ = fs.Parse(args)

		if *username == "" || *password == "" {
			log.Fatal("username and password are required")
		}
		user, err := a.Auth.Register(ctx, *username, *password, *displayName)
		if err != nil {
			fatal("register failed", err)
		}
		if a.Session.HasToken() {
			fmt.Printf("✅ registered and logged in as %s\n", user.Username)
		} else {
			fmt.Printf("✅ registered as %s (login failed, run auth login to get a token)\n", user.Username)
		}
	case "logout":
		if err := a.Auth.Logout(ctx); err != nil {
			log.Printf("warning: stored session not fully removed: %v", err)
		}
		fmt.Println("✅ logged out")
	case "whoami":
		user := a.Auth.User()
		if user == nil {
			fmt.Println("not logged in")
			return
		}
		printJSON(user)
	default:
		log.Fatal("usage: phillysafe auth <login|register|logout|whoami>")
	}
}

func handleCrime(ctx context.Context, a *app.App, sub string, args []string) {
	switch sub {
	case "list":
		fs := flag.NewFlagSet("crime list", flag.ExitOnError)
		limit := fs.Int("limit", 20, "max incidents to print (0 for all)")
		raw := fs.Bool("raw", false, "print records as received")
		_ = fs.Parse(args)

		if *raw {
			raws, err := a.Crime.GetIncidents(ctx)
			if err != nil {
				fatal("fetch incidents", err)
			}
			printJSON(head(raws, *limit))
			return
		}

		f := a.NewFeed()
		defer f.Close()
		if err := f.Load(ctx); err != nil {
			log.Fatal(f.State().Error)
		}
		incidents := f.State().Incidents
		fmt.Printf("%d incidents\n", len(incidents))
		printIncidents(head(incidents, *limit))
	case "filter":
		fs := flag.NewFlagSet("crime filter", flag.ExitOnError)
		crimeType := fs.String("type", "", "crime type, e.g. Theft")
		minSev := fs.Int("min", 0, "minimum severity 1-5")
		maxSev := fs.Int("max", 0, "maximum severity 1-5")
		days := fs.Int("days", -1, "only the last N days")
		_ = fs.Parse(args)

		filter := crime.Filter{Category: *crimeType}
		if *minSev != 0 {
			filter.MinSeverity = crime.Int(*minSev)
		}
		if *maxSev != 0 {
			filter.MaxSeverity = crime.Int(*maxSev)
		}
		if *days >= 0 {
			filter.DaysBack = crime.Int(*days)
		}
		raws, err := a.Crime.GetFilteredIncidents(ctx, filter)
		if err != nil {
			fatal("filter failed", err)
		}
		printIncidents(normalize.Normalize(raws))
	case "show":
		fs := flag.NewFlagSet("crime show", flag.ExitOnError)
		id := fs.String("id", "", "incident id")
		_ = fs.Parse(args)

		raw, err := a.Crime.GetIncident(ctx, *id)
		if err != nil {
			fatal("show failed", err)
		}
		printJSON(normalize.ToCanonical(raw))
	case "export":
		handleExport(ctx, a, args)
	default:
		log.Fatal("usage: phillysafe crime <list|filter|show|export>")
	}
}

func handleExport(ctx context.Context, a *app.App, args []string) {
	if len(args) == 0 {
		log.Fatal("usage: phillysafe crime export <json|csv> [-out path]")
	}
	format := args[0]

	fs := flag.NewFlagSet("crime export", flag.ExitOnError)
	out := fs.String("out", "data/incidents."+format, "output path")
	_ = fs.Parse(args[1:])

	raws, err := a.Crime.GetIncidents(ctx)
	if err != nil {
		fatal("export failed", err)
	}
	items := normalize.Normalize(raws)

	var write func(io.Writer, []models.CanonicalIncident) error
	switch format {
	case "json":
		write = export.WriteJSON
	case "csv":
		write = export.WriteCSV
	default:
		log.Fatal("usage: phillysafe crime export <json|csv>")
	}
	err = export.ToFile(*out, func(w io.Writer) error { return write(w, items) })
	if err != nil {
		log.Fatalf("write %s failed: %v", format, err)
	}
	log.Printf("✅ exported %d incidents to %s", len(items), *out)
}

func handleReports(ctx context.Context, a *app.App, sub string, args []string) {
	switch sub {
	case "list":
		list, err := a.Reports.List(ctx)
		if err != nil {
			fatal("list failed", err)
		}
		printJSON(list)
	case "show":
		fs := flag.NewFlagSet("reports show", flag.ExitOnError)
		id := fs.String("id", "", "report id")
		_ = fs.Parse(args)

		r, err := a.Reports.Get(ctx, *id)
		if err != nil {
			fatal("show failed", err)
		}
		printJSON(r)
	case "create":
		fs := flag.NewFlagSet("reports create", flag.ExitOnError)
		typ := fs.String("type", "", "incident type")
		location := fs.String("location", "", "address or block, e.g. 100 BLOCK N 2ND ST")
		description := fs.String("description", "", "what happened")
		severity := fs.String("severity", "medium", "low, medium or high")
		anonymous := fs.Bool("anonymous", false, "hide reporter identity")
		contact := fs.String("contact", "", "optional contact")
		lat := fs.Float64("lat", 0, "latitude")
		lng := fs.Float64("lng", 0, "longitude")
		photos := fs.String("photos", "", "comma-separated photo URLs")
		_ = fs.Parse(args)

		in := models.CreateReportRequest{
			Type:        *typ,
			Location:    *location,
			Description: *description,
			Severity:    *severity,
			Anonymous:   *anonymous,
			Contact:     *contact,
			Photos:      splitList(*photos),
		}
		if *lat != 0 || *lng != 0 {
			in.Lat, in.Lng = lat, lng
			in.UseCurrentLocation = *location == ""
		}
		if u := a.Auth.User(); u != nil && !*anonymous {
			in.UserID = u.ID.String()
		}
		r, err := a.Reports.Create(ctx, in)
		if err != nil {
			fatal("create failed", err)
		}
		fmt.Printf("✅ report %s submitted\n", r.Key())
	case "status":
		fs := flag.NewFlagSet("reports status", flag.ExitOnError)
		id := fs.String("id", "", "report id")
		status := fs.String("status", "", "pending, reviewed or resolved")
		_ = fs.Parse(args)

		if err := a.Reports.UpdateStatus(ctx, *id, *status); err != nil {
			fatal("status update failed", err)
		}
		fmt.Println("✅ status updated")
	case "user":
		fs := flag.NewFlagSet("reports user", flag.ExitOnError)
		username := fs.String("username", "", "username (defaults to the logged-in user)")
		all := fs.Bool("all", false, "list every report instead of the count")
		_ = fs.Parse(args)

		name := *username
		if name == "" {
			if u := a.Auth.User(); u != nil {
				name = u.Username
			}
		}
		if *all {
			list, err := a.Reports.UserReports(ctx, name)
			if err != nil {
				fatal("user reports failed", err)
			}
			printJSON(list)
			return
		}
		sum, err := a.Reports.UserSummary(ctx, name)
		if err != nil {
			fatal("user summary failed", err)
		}
		fmt.Printf("%s: %d reports\n", sum.Username, sum.TotalReports)
	default:
		log.Fatal("usage: phillysafe reports <list|show|create|status|user>")
	}
}

func handleStats(ctx context.Context, a *app.App, sub string, args []string) {
	switch sub {
	case "show":
		fs := flag.NewFlagSet("stats show", flag.ExitOnError)
		userID := fs.String("user", "", "user id (defaults to the logged-in user)")
		_ = fs.Parse(args)

		id := *userID
		if id == "" {
			if u := a.Auth.User(); u != nil {
				id = u.ID.String()
			}
		}
		stats, ok, err := a.UserData.Lookup(ctx, id)
		if err != nil {
			fatal("stats failed", err)
		}
		if !ok {
			fmt.Println("no stats available yet")
			return
		}
		printJSON(stats)
	case "leaderboard":
		fs := flag.NewFlagSet("stats leaderboard", flag.ExitOnError)
		limit := fs.Int("limit", 10, "rows to print (0 for all)")
		_ = fs.Parse(args)

		board, err := a.UserData.Leaderboard(ctx)
		if err != nil {
			fatal("leaderboard failed", err)
		}
		for i, s := range head(board, *limit) {
			fmt.Printf("%3d. %-20s %4d submissions  level %d\n", i+1, s.UserID, s.TotalSubmissions, s.Level)
		}
	default:
		log.Fatal("usage: phillysafe stats <show|leaderboard>")
	}
}

func printIncidents(items []models.CanonicalIncident) {
	for _, it := range items {
		loc := fmt.Sprintf("%.5f,%.5f", it.Latitude, it.Longitude)
		if !it.HasLocation() {
			loc = "unknown location"
		}
		fmt.Printf("%s  %-9s sev %d  %-24s %-22s %s\n", it.Date, it.Category, it.Severity, it.Type, it.Neighborhood, loc)
	}
}

// fatal exits with a message that separates transport failures from
// server answers.
func fatal(what string, err error) {
	switch {
	case httpclient.IsNetwork(err):
		log.Fatalf("%s: service unreachable: %v", what, err)
	case httpclient.StatusCode(err) != 0:
		log.Fatalf("%s (HTTP %d): %v", what, httpclient.StatusCode(err), err)
	default:
		log.Fatalf("%s: %v", what, err)
	}
}

func head[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("encode output: %v", err)
	}
	fmt.Println(string(b))
}

func printUsage() {
	fmt.Println("phillysafe [flags] <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|register|logout|whoami")
	fmt.Println("  crime list|filter|show|export json|csv")
	fmt.Println("  reports list|show|create|status|user")
	fmt.Println("  stats show|leaderboard")
}
