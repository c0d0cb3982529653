// Command bidfoundry drives the swarm document-generation service from the
// terminal: submit runs, follow their lifecycle, and manage the document
// registry in either remote or fallback mode.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MichaelBlackwell/bidfoundry/internal/api/swarmhq"
	"github.com/MichaelBlackwell/bidfoundry/internal/config"
	"github.com/MichaelBlackwell/bidfoundry/internal/domain"
	"github.com/MichaelBlackwell/bidfoundry/internal/export"
	"github.com/MichaelBlackwell/bidfoundry/internal/generation"
	"github.com/MichaelBlackwell/bidfoundry/internal/registry"
	"github.com/MichaelBlackwell/bidfoundry/internal/swarm"
	"github.com/MichaelBlackwell/bidfoundry/internal/telemetry"
)

// app wires the shared components once per invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *swarmhq.Client
	tracker *generation.Tracker
	store   registry.Store
	gateway *export.Gateway
}

var (
	flagConfig string
	flagTrace  bool
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "bidfoundry",
		Short:         "Adversarial document generation client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagConfig, "config", "", "path to YAML config file")
	root.PersistentFlags().BoolVar(&flagTrace, "trace", false, "emit OpenTelemetry traces to stdout")

	root.AddCommand(
		generateCmd(),
		statusCmd(),
		regenerateCmd(),
		docsCmd(),
		exportCmd(),
		shareCmd(),
		settingsCmd(),
		profilesCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(ctx context.Context) (*app, func(), error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	if flagTrace || cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init("bidfoundry", logger)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() {
			if err := shutdown(ctx); err != nil {
				logger.Error("tracer shutdown", slog.String("error", err.Error()))
			}
		}
	}

	clientOpts := []swarmhq.ClientOption{swarmhq.WithLogger(logger)}
	if cfg.Service.APIKey != "" {
		clientOpts = append(clientOpts, swarmhq.WithAPIKey(cfg.Service.APIKey))
	}
	if flagTrace || cfg.Telemetry.Enabled {
		clientOpts = append(clientOpts, swarmhq.WithTracing())
	}
	client := swarmhq.NewClient(cfg.Service.BaseURL, clientOpts...)

	store, err := registry.Open(registry.Options{
		Fallback:  cfg.Registry.Fallback,
		StorePath: cfg.Registry.StorePath,
		Logger:    logger,
	}, client)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		tracker: generation.NewTracker(client, generation.WithLogger(logger)),
		store:   store,
		gateway: export.New(store, logger),
	}, cleanup, nil
}

func generateCmd() *cobra.Command {
	var (
		docType      string
		profileID    string
		opportunity  string
		rounds       int
		intensity    string
		consensus    string
		risk         string
		enableRoles  []string
		disableRoles []string
		wait         bool
		pollInterval time.Duration
		push         bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Submit a generation request",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			toggles := map[string]bool{}
			for _, r := range enableRoles {
				toggles[r] = true
			}
			for _, r := range disableRoles {
				toggles[r] = false
			}

			// Role keys are team-scoped, so one toggle map serves both;
			// the transcoder ignores keys that belong to the other team.
			userCfg := swarm.UserConfig{
				Intensity:     domain.Intensity(intensity),
				Rounds:        rounds,
				Consensus:     domain.ConsensusStrategy(consensus),
				RiskTolerance: domain.RiskTolerance(risk),
				BlueTeam:      toggles,
				RedTeam:       toggles,
			}

			req := domain.GenerationRequest{
				DocumentType:       domain.DocumentType(docType),
				CompanyProfileID:   profileID,
				OpportunityContext: opportunity,
				Config:             swarm.Encode(userCfg),
			}

			channelID := ""
			if push {
				channelID = generation.NewChannelID()
			}

			res, err := a.tracker.Start(cmd.Context(), req, channelID)
			if err != nil {
				return err
			}
			fmt.Printf("request %s %s", res.RequestID, res.Status)
			if res.EstimatedDurationSeconds > 0 {
				fmt.Printf(" (est. %ds)", res.EstimatedDurationSeconds)
			}
			fmt.Println()

			if !wait {
				return nil
			}
			return followRequest(cmd.Context(), a, res.RequestID, channelID, pollInterval)
		},
	}

	cmd.Flags().StringVar(&docType, "type", string(domain.DocumentProposal), "document type")
	cmd.Flags().StringVar(&profileID, "profile", "", "company profile id")
	cmd.Flags().StringVar(&opportunity, "context", "", "opportunity context")
	cmd.Flags().IntVar(&rounds, "rounds", 3, "max debate rounds")
	cmd.Flags().StringVar(&intensity, "intensity", string(domain.IntensityStandard), "debate intensity (quick|standard|deep)")
	cmd.Flags().StringVar(&consensus, "consensus", string(domain.ConsensusMajority), "consensus strategy")
	cmd.Flags().StringVar(&risk, "risk", string(domain.RiskBalanced), "risk tolerance")
	cmd.Flags().StringSliceVar(&enableRoles, "enable-role", nil, "enable a reviewer role (e.g. market-analyst)")
	cmd.Flags().StringSliceVar(&disableRoles, "disable-role", nil, "disable a reviewer role")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the run finishes")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 3*time.Second, "poll interval when waiting")
	cmd.Flags().BoolVar(&push, "push", false, "subscribe to the push channel while waiting")
	return cmd
}

// followRequest drives the poll loop (and optionally the push channel)
// until the request reaches a terminal state.
func followRequest(ctx context.Context, a *app, requestID, channelID string, interval time.Duration) error {
	if channelID != "" {
		updates, err := a.tracker.Watch(ctx, channelID, requestID)
		if err != nil {
			// Push is best-effort; polling carries on regardless.
			a.logger.Warn("push channel unavailable", slog.String("error", err.Error()))
		} else {
			go func() {
				for st := range updates {
					printStatus(&st)
				}
			}()
		}
	}

	last, err := a.tracker.PollUntil(ctx, requestID, interval, generation.Done)
	if err != nil {
		return err
	}
	printStatus(last)

	if last.Result != nil {
		a.tracker.Release(requestID)
		fmt.Printf("document %s ready", last.Result.DocumentID)
		if last.Result.RequiresHumanReview {
			fmt.Print(" (requires human review)")
		}
		fmt.Println()
	}
	return nil
}

func printStatus(st *domain.GenerationStatus) {
	line := fmt.Sprintf("%s: %s", st.RequestID, st.Status)
	if st.Progress != nil {
		line += fmt.Sprintf(" round %d/%d %s", st.Progress.CurrentRound, st.Progress.TotalRounds, st.Progress.Phase)
	}
	if st.Error != "" {
		line += ": " + st.Error
	}
	fmt.Println(line)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <request-id>",
		Short: "Fetch the status of a generation request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := a.tracker.Poll(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printStatus(st)
			return nil
		},
	}
}

func regenerateCmd() *cobra.Command {
	var (
		sameConfig   bool
		higherRounds bool
		rounds       int
	)

	cmd := &cobra.Command{
		Use:   "regenerate <document-id>",
		Short: "Re-run generation for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			opts := domain.RegenerationOptions{
				RetryWithSameConfig:   sameConfig,
				RetryWithHigherRounds: higherRounds,
			}
			if rounds > 0 {
				opts.NewConfig = &domain.SwarmConfig{Rounds: rounds}
			}

			res, err := a.tracker.Regenerate(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			fmt.Printf("request %s %s\n", res.RequestID, res.Status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&sameConfig, "same-config", false, "retry with the prior configuration")
	cmd.Flags().BoolVar(&higherRounds, "higher-rounds", false, "retry with more debate rounds")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "override the round count")
	return cmd
}

func docsCmd() *cobra.Command {
	docs := &cobra.Command{Use: "docs", Short: "Manage the document registry"}
	docs.AddCommand(
		docsListCmd(),
		docsShowCmd(),
		docsDecisionCmd("approve", domain.StatusApproved),
		docsDecisionCmd("reject", domain.StatusRejected),
		docsDuplicateCmd(),
		docsDeleteCmd(),
	)
	return docs
}

func docsListCmd() *cobra.Command {
	var (
		status    string
		docType   string
		search    string
		sortBy    string
		sortOrder string
		limit     int
		offset    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			page, err := a.store.List(cmd.Context(), registry.Query{
				Status:    domain.DocumentStatus(status),
				Type:      domain.DocumentType(docType),
				Search:    search,
				SortBy:    registry.SortField(sortBy),
				SortOrder: registry.SortOrder(sortOrder),
				Limit:     limit,
				Offset:    offset,
			})
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Type", "Title", "Status", "Conf", "Updated"})
			for _, d := range page.Documents {
				tw.AppendRow(table.Row{
					d.ID, d.Type, d.Title, d.Status,
					fmt.Sprintf("%.0f", d.Confidence),
					d.UpdatedAt.Format("2006-01-02 15:04"),
				})
			}
			tw.Render()
			fmt.Printf("%d of %d document(s)", len(page.Documents), page.Total)
			if page.HasMore {
				fmt.Print(", more available")
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (draft|approved|rejected)")
	cmd.Flags().StringVar(&docType, "type", "", "filter by document type")
	cmd.Flags().StringVar(&search, "search", "", "substring match over title and type")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort key (createdAt|updatedAt|title|confidence)")
	cmd.Flags().StringVar(&sortOrder, "order", "", "sort direction (asc|desc)")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func docsShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show the full output for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := a.store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out == nil {
				fmt.Printf("document %s not found\n", args[0])
				return nil
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			fmt.Printf("document %s (confidence %.0f)\n", out.DocumentID, out.Confidence.Overall)
			for _, s := range out.Content.Sections {
				fmt.Printf("\n## %s [%.0f]\n%s\n", s.Title, s.Confidence, s.Content)
				for _, c := range s.UnresolvedCritiques {
					fmt.Printf("  ! unresolved: %s\n", c)
				}
			}
			m := out.Metrics
			fmt.Printf("\nrounds %d, critiques %d (crit %d / major %d / minor %d), elapsed %s\n",
				m.RoundsCompleted, m.TotalCritiques, m.CriticalCount, m.MajorCount, m.MinorCount,
				time.Duration(m.ElapsedMs)*time.Millisecond)
			if out.RequiresHumanReview {
				fmt.Println("requires human review")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw output as JSON")
	return cmd
}

func docsDecisionCmd(use string, status domain.DocumentStatus) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: "Mark a document " + string(status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			doc, err := a.store.UpdateStatus(cmd.Context(), args[0], status, notes)
			if err != nil {
				return err
			}
			fmt.Printf("%s is now %s\n", doc.ID, doc.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "review notes")
	return cmd
}

func docsDuplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Clone a document into a fresh draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			doc, err := a.store.Duplicate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("created %s: %s\n", doc.ID, doc.Title)
			return nil
		},
	}
}

func docsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a rendered document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := a.gateway.Export(cmd.Context(), args[0], format)
			if err != nil {
				return err
			}

			if res.URL != "" {
				fmt.Println(res.URL)
				return nil
			}
			if out == "" {
				out = args[0] + "." + format
			}
			if err := os.WriteFile(out, res.Payload, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Printf("wrote %s (%d bytes)\n", out, len(res.Payload))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "pdf", "export format (pdf|docx|markdown|json|share)")
	cmd.Flags().StringVar(&out, "out", "", "output file for rendered formats")
	return cmd
}

func shareCmd() *cobra.Command {
	var (
		expires  int
		password string
	)

	cmd := &cobra.Command{
		Use:   "share <id>",
		Short: "Create a shareable link for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			link, err := a.gateway.Share(cmd.Context(), args[0], registry.ShareOptions{
				ExpiresInHours: expires,
				Password:       password,
			})
			if err != nil {
				return err
			}
			fmt.Printf("%s (expires %s)\n", link.URL, link.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().IntVar(&expires, "expires-hours", 0, "link lifetime in hours")
	cmd.Flags().StringVar(&password, "password", "", "protect the link with a password")
	return cmd
}

func settingsCmd() *cobra.Command {
	var (
		provider string
		model    string
	)

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or update the provider/model selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			var s *domain.Settings
			if provider != "" && model != "" {
				s, err = a.client.UpdateSettings(cmd.Context(), provider, model)
			} else {
				s, err = a.client.GetSettings(cmd.Context())
			}
			if err != nil {
				return err
			}

			fmt.Printf("active: %s / %s\n", s.Provider, s.Model)
			for _, p := range s.Available {
				state := "not configured"
				if p.Configured {
					state = "configured"
				}
				fmt.Printf("  %s (%s): %s\n", p.Name, state, strings.Join(p.Models, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "select a provider")
	cmd.Flags().StringVar(&model, "model", "", "select a model")
	return cmd
}

func profilesCmd() *cobra.Command {
	profiles := &cobra.Command{Use: "profiles", Short: "Manage company profiles"}

	profiles.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List company profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			list, err := a.client.ListProfiles(cmd.Context())
			if err != nil {
				return err
			}
			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Name", "Summary"})
			for _, p := range list {
				tw.AppendRow(table.Row{p.ID, p.Name, p.Summary})
			}
			tw.Render()
			return nil
		},
	})

	var (
		name    string
		summary string
		caps    []string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a company profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			p, err := a.client.CreateProfile(cmd.Context(), swarmhq.ProfileInput{
				Name:         name,
				Summary:      summary,
				Capabilities: caps,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created profile %s\n", p.ID)
			return nil
		},
	}
	create.Flags().StringVar(&name, "name", "", "company name")
	create.Flags().StringVar(&summary, "summary", "", "short description")
	create.Flags().StringSliceVar(&caps, "capability", nil, "capability tag")
	create.MarkFlagRequired("name")
	profiles.AddCommand(create)

	profiles.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a company profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()
			if err := a.client.DeleteProfile(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted profile %s\n", args[0])
			return nil
		},
	})

	return profiles
}
