package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"contentapi/internal/assets"
	"contentapi/internal/config"
	"contentapi/internal/db"
	"contentapi/internal/domain"
	"contentapi/internal/migrate"
	"contentapi/internal/render"
	"contentapi/internal/repo"
	"contentapi/internal/search"
	"contentapi/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "contentapi",
	Short: "Read-only content API",
	Long: `contentapi serves published content as JSON: single artefacts,
tag listings, tag queries with legacy redirects, and mapped search
results.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CONTENTAPI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (YAML)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(tagsCmd())
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if listen := viper.GetString("listen"); listen != "" {
		cfg.Listen = listen
	}
	if path := viper.GetString("store-path"); path != "" {
		cfg.Store.Path = path
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var out = os.Stderr
	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if cfg.Log.Pretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out})
	}
	return logger
}

func openStore(cfg *config.Config) (*sql.DB, error) {
	conn, err := db.Open(db.Config{Path: cfg.Store.Path})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			conn, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			logger := newLogger(cfg)
			handler, err := server.New(server.Config{
				Repo:   repo.Repo{DB: conn},
				Search: search.New(cfg.Search.URL, time.Duration(cfg.Search.TimeoutMS)*time.Millisecond),
				Assets: assets.New(cfg.Assets.URL, time.Duration(cfg.Assets.TimeoutMS)*time.Millisecond),
				Site:   render.Site{WebURL: cfg.Site.WebURL, APIURL: cfg.Site.APIURL},
				Logger: logger,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: cfg.Listen, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			logger.Info().Str("listen", cfg.Listen).Msg("serving content API")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the content store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			conn, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer conn.Close()
			fmt.Println("schema up to date")
			return nil
		},
	}
}

// seedFile is the YAML fixture format consumed by `contentapi seed`.
type seedFile struct {
	Tags []struct {
		ID          string `yaml:"id"`
		Type        string `yaml:"type"`
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		Parent      string `yaml:"parent"`
	} `yaml:"tags"`
	Artefacts []struct {
		Slug        string   `yaml:"slug"`
		Name        string   `yaml:"name"`
		Kind        string   `yaml:"kind"`
		OwningApp   string   `yaml:"owning_app"`
		State       string   `yaml:"state"`
		Description string   `yaml:"description"`
		Tags        []string `yaml:"tags"`
		CreatedAt   string   `yaml:"created_at"`
	} `yaml:"artefacts"`
	Editions []struct {
		ID      string         `yaml:"id"`
		Slug    string         `yaml:"slug"`
		Kind    string         `yaml:"kind"`
		State   string         `yaml:"state"`
		Title   string         `yaml:"title"`
		Payload map[string]any `yaml:"payload"`
	} `yaml:"editions"`
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <fixtures.yaml>",
		Short: "Load tags, artefacts and editions from a YAML fixture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var seed seedFile
			if err := yaml.Unmarshal(data, &seed); err != nil {
				return fmt.Errorf("parse fixtures: %w", err)
			}
			conn, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer conn.Close()
			r := repo.Repo{DB: conn}
			ctx := cmd.Context()
			now := time.Now().UTC().Format(time.RFC3339)

			for _, t := range seed.Tags {
				if !domain.IsTagType(t.Type) {
					return fmt.Errorf("tag %q: unknown type %q", t.ID, t.Type)
				}
				err := r.InsertTag(ctx, domain.Tag{
					TagID:       t.ID,
					TagType:     t.Type,
					Title:       t.Title,
					Description: t.Description,
					ParentID:    t.Parent,
				})
				if err != nil {
					return fmt.Errorf("tag %q: %w", t.ID, err)
				}
			}
			for _, a := range seed.Artefacts {
				if !domain.IsKind(a.Kind) {
					return fmt.Errorf("artefact %q: unknown kind %q", a.Slug, a.Kind)
				}
				state := a.State
				if state == "" {
					state = domain.StateLive
				}
				createdAt := a.CreatedAt
				if createdAt == "" {
					createdAt = now
				}
				err := r.InsertArtefact(ctx, domain.Artefact{
					Slug:        a.Slug,
					Name:        a.Name,
					Kind:        a.Kind,
					OwningApp:   a.OwningApp,
					State:       state,
					Description: a.Description,
					TagIDs:      a.Tags,
					CreatedAt:   createdAt,
					UpdatedAt:   createdAt,
				})
				if err != nil {
					return fmt.Errorf("artefact %q: %w", a.Slug, err)
				}
			}
			for _, e := range seed.Editions {
				id := e.ID
				if id == "" {
					id = uuid.NewString()
				}
				state := e.State
				if state == "" {
					state = domain.EditionPublished
				}
				var payloadJSON string
				if e.Payload != nil {
					b, err := json.Marshal(e.Payload)
					if err != nil {
						return fmt.Errorf("edition %q: payload: %w", e.Slug, err)
					}
					payloadJSON = string(b)
				}
				err := r.InsertEdition(ctx, domain.Edition{
					ID:          id,
					Slug:        e.Slug,
					Kind:        e.Kind,
					State:       state,
					Title:       e.Title,
					PayloadJSON: payloadJSON,
					CreatedAt:   now,
					UpdatedAt:   now,
				})
				if err != nil {
					return fmt.Errorf("edition %q: %w", e.Slug, err)
				}
			}
			fmt.Printf("seeded %d tags, %d artefacts, %d editions\n",
				len(seed.Tags), len(seed.Artefacts), len(seed.Editions))
			return nil
		},
	}
	return cmd
}

func tagsCmd() *cobra.Command {
	tags := &cobra.Command{Use: "tags", Short: "Inspect stored tags"}
	tags.AddCommand(tagsListCmd())
	return tags
}

func tagsListCmd() *cobra.Command {
	var tagType string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			conn, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer conn.Close()
			r := repo.Repo{DB: conn}
			items, err := r.ListTags(cmd.Context(), tagType)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Type", "Title", "Parent"})
			for _, t := range items {
				tw.AppendRow(table.Row{t.TagID, t.TagType, t.Title, t.ParentID})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&tagType, "type", "", "tag type filter")
	return cmd
}
