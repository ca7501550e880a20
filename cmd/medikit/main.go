package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/rushteam/medikit"
	"github.com/rushteam/medikit/core"
	"github.com/rushteam/medikit/dataset"
	"github.com/rushteam/medikit/filter"
	"github.com/rushteam/medikit/recall"
	"github.com/rushteam/medikit/store"
)

func main() {
	app := &cli.App{
		Name:  "medikit",
		Usage: "Hospital recommender over CSV hospital/user tables",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML app config (flags override config values)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "recommend",
				Usage:  "Recommend hospitals for a location and medical condition",
				Action: recommendCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "hospitals",
						Aliases: []string{"H"},
						Usage:   "Path to hospital table CSV",
					},
					&cli.StringFlag{
						Name:    "users",
						Aliases: []string{"U"},
						Usage:   "Path to user table CSV (for --user lookups)",
					},
					&cli.Int64Flag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "User ID for repeat visits; profile supplies missing location/condition",
					},
					&cli.StringFlag{
						Name:  "location",
						Usage: "Query location (matched as substring of hospital address)",
					},
					&cli.StringFlag{
						Name:  "condition",
						Usage: "Medical condition / symptom description",
					},
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"n"},
						Usage:   "Number of hospitals to return",
						Value:   core.DefaultTopN,
					},
					&cli.Float64Flag{
						Name:  "weight-location",
						Usage: "Weight of the location match signal",
						Value: 0.4,
					},
					&cli.Float64Flag{
						Name:  "weight-disease",
						Usage: "Weight of the condition similarity signal",
						Value: 0.4,
					},
					&cli.Float64Flag{
						Name:  "weight-rating",
						Usage: "Weight of the normalized rating signal",
						Value: 0.2,
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Print per-result labels (recall source, rank model)",
					},
					&cli.BoolFlag{
						Name:  "diversity",
						Usage: "Deduplicate results by specialization",
					},
					&cli.BoolFlag{
						Name:  "skip-visited",
						Usage: "Filter out hospitals the user already visited (profile + store record)",
					},
				},
			},
			{
				Name:   "toprated",
				Usage:  "List top-rated hospitals (store-backed leaderboard, catalog fallback)",
				Action: topRatedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "hospitals",
						Aliases: []string{"H"},
						Usage:   "Path to hospital table CSV",
					},
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"n"},
						Usage:   "Number of hospitals to list",
						Value:   core.DefaultTopN,
					},
				},
			},
			{
				Name:   "visit",
				Usage:  "Record a hospital visit for a user (read back by recommend --skip-visited)",
				Action: visitCommand,
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "User ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "hospital",
						Usage:    "Hospital ID",
						Required: true,
					},
				},
			},
			{
				Name:   "register",
				Usage:  "Register a new user and persist the user table",
				Action: registerCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "users",
						Aliases:  []string{"U"},
						Usage:    "Path to user table CSV",
						Required: true,
					},
					&cli.StringFlag{Name: "name", Usage: "User name", Required: true},
					&cli.StringFlag{Name: "location", Usage: "Home location"},
					&cli.StringFlag{Name: "condition", Usage: "Current medical condition"},
					&cli.StringFlag{Name: "gender", Usage: "Gender"},
					&cli.IntFlag{Name: "age", Usage: "Age"},
				},
			},
			{
				Name:   "users",
				Usage:  "List registered users",
				Action: usersCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "users",
						Aliases:  []string{"U"},
						Usage:    "Path to user table CSV",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func recommendCommand(c *cli.Context) error {
	ctx := context.Background()
	logger := slog.Default()

	cfg, err := loadAppConfig(c.String("config"))
	if err != nil {
		return err
	}

	hospitalsPath := firstNonEmpty(c.String("hospitals"), cfg.Hospitals)
	if hospitalsPath == "" {
		return fmt.Errorf("hospital table path is required (--hospitals or config)")
	}

	catalog, err := dataset.LoadHospitals(hospitalsPath, dataset.WithLogger(logger))
	if err != nil {
		return err
	}

	location := c.String("location")
	condition := c.String("condition")

	// 复诊用户：按 ID 查画像，缺省查询字段从画像补齐
	var table *dataset.UserTable
	var profile *core.UserProfile
	usersPath := firstNonEmpty(c.String("users"), cfg.Users)
	if userID := c.Int64("user"); userID > 0 {
		if usersPath == "" {
			return fmt.Errorf("user table path is required with --user (--users or config)")
		}
		table, err = dataset.LoadUsers(usersPath, dataset.WithLogger(logger))
		if err != nil {
			return err
		}
		profile, err = table.Lookup(userID)
		if core.IsNotFound(err) {
			return fmt.Errorf("user %d not found; run `medikit register` first", userID)
		}
		if err != nil {
			return err
		}
	}

	weights := core.ScoreWeights{
		Location: c.Float64("weight-location"),
		Disease:  c.Float64("weight-disease"),
		Rating:   c.Float64("weight-rating"),
	}
	if cfg.Weights != nil && !c.IsSet("weight-location") && !c.IsSet("weight-disease") && !c.IsSet("weight-rating") {
		weights = *cfg.Weights
	}

	opts := []medikit.Option{medikit.WithWeights(weights)}
	if c.Bool("diversity") {
		opts = append(opts, medikit.WithDiversity())
	}
	if c.Bool("skip-visited") {
		// 画像 Visited 始终生效；配了存储时叠加 `medikit visit` 记录的名单
		kv, err := openConfiguredStore(cfg)
		if err != nil {
			return err
		}
		var adapter *filter.StoreAdapter
		if kv != nil {
			defer kv.Close()
			adapter = filter.NewStoreAdapter(kv)
		}
		opts = append(opts, medikit.WithFilters(filter.NewVisitedFilter(adapter, "")))
	}
	recommender := medikit.New(catalog, opts...)

	query := medikit.NewQuery(location, condition)
	query.User = profile
	topN := c.Int("top")
	if !c.IsSet("top") && cfg.TopN > 0 {
		topN = cfg.TopN
	}
	query.TopN = topN

	results, err := recommender.Recommend(ctx, query)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("no hospitals matched the query")
		return nil
	}
	for i, rec := range results {
		fmt.Printf("%d. %s | %s | rating %.1f | score %.2f\n",
			i+1, rec.Hospital.Name, rec.Hospital.Address, rec.Rating, rec.Score)
		if c.Bool("explain") {
			keys := make([]string, 0, len(rec.Labels))
			for k := range rec.Labels {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("   %s = %s (%s)\n", k, rec.Labels[k].Value, rec.Labels[k].Source)
			}
		}
	}

	// 会话落盘：复诊用户回写最近病情并整表重写
	if profile != nil && condition != "" {
		profile.UpdateCondition(strings.ToLower(strings.TrimSpace(condition)))
		if err := table.Save(usersPath); err != nil {
			return fmt.Errorf("persist user table: %w", err)
		}
	}
	return nil
}

func topRatedCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadAppConfig(c.String("config"))
	if err != nil {
		return err
	}
	hospitalsPath := firstNonEmpty(c.String("hospitals"), cfg.Hospitals)
	if hospitalsPath == "" {
		return fmt.Errorf("hospital table path is required (--hospitals or config)")
	}
	catalog, err := dataset.LoadHospitals(hospitalsPath, dataset.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	source := &recall.TopRated{Catalog: catalog, Limit: c.Int("top")}

	kv, err := openConfiguredStore(cfg)
	if err != nil {
		return err
	}
	if kv != nil {
		defer kv.Close()
		key := cfg.Store.TopRatedKey
		if key == "" {
			key = store.DefaultTopRatedKey
		}
		// 每次按目录重新播种，目录更新后榜单跟着变；
		// 后端不支持有序集合（Badger）时退回目录排序
		if err := store.SeedTopRated(ctx, kv, key, catalog); err != nil && !core.IsStoreNotSupported(err) {
			return fmt.Errorf("seed leaderboard: %w", err)
		}
		source.Store = kv
		source.Key = key
	}

	items, err := source.Recall(ctx, nil)
	if err != nil {
		return err
	}
	for i, it := range items {
		h, ok := catalog.ByID(it.ID)
		if !ok {
			continue
		}
		fmt.Printf("%d. %s | %s | rating %.1f\n", i+1, h.Name, h.Address, h.RatingValue())
	}
	return nil
}

func visitCommand(c *cli.Context) error {
	cfg, err := loadAppConfig(c.String("config"))
	if err != nil {
		return err
	}
	kv, err := openConfiguredStore(cfg)
	if err != nil {
		return err
	}
	if kv == nil {
		return fmt.Errorf("a store backend is required (set store.backend in the config file)")
	}
	defer kv.Close()

	userID := strconv.FormatInt(c.Int64("user"), 10)
	hospitalID := c.String("hospital")
	if err := store.AppendVisited(context.Background(), kv, "", userID, hospitalID); err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	fmt.Printf("recorded visit: user %s -> hospital %s\n", userID, hospitalID)
	return nil
}

func registerCommand(c *cli.Context) error {
	logger := slog.Default()
	usersPath := c.String("users")

	table, err := dataset.LoadUsers(usersPath, dataset.WithLogger(logger))
	if err != nil {
		return err
	}

	p := core.NewUserProfile(0)
	p.Name = c.String("name")
	p.Location = strings.ToLower(strings.TrimSpace(c.String("location")))
	p.MedicalCondition = strings.ToLower(strings.TrimSpace(c.String("condition")))
	p.Gender = c.String("gender")
	p.Age = c.Int("age")

	registered := table.Register(p)
	if err := table.Save(usersPath); err != nil {
		return fmt.Errorf("persist user table: %w", err)
	}

	fmt.Printf("registered user %d (%s)\n", registered.UserID, registered.Name)
	return nil
}

func usersCommand(c *cli.Context) error {
	table, err := dataset.LoadUsers(c.String("users"), dataset.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	for _, p := range table.Users() {
		fmt.Printf("%d | %s | %s | %s | %s | %d\n",
			p.UserID, p.Name, p.Location, p.MedicalCondition, p.Gender, p.Age)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
