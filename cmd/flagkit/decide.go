package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/flagkit/pkg/client"
	"github.com/dmitrymomot/flagkit/pkg/datafile"
	"github.com/dmitrymomot/flagkit/pkg/decide"
	"github.com/dmitrymomot/flagkit/pkg/logger"
)

type decideFlags struct {
	datafile string
	userID   string
	attrs    []string
	options  []string
	store    string
	events   string
}

// decisionView is the printed form of a client.Decision.
type decisionView struct {
	FlagKey      string         `json:"flag_key"`
	VariationKey string         `json:"variation_key"`
	Enabled      bool           `json:"enabled"`
	RuleKey      string         `json:"rule_key"`
	Variables    map[string]any `json:"variables"`
	Reasons      []string       `json:"reasons"`
}

func newDecideCmd() *cobra.Command {
	f := &decideFlags{}
	cmd := &cobra.Command{
		Use:   "decide [flag...]",
		Short: "Decide flags for a user; all flags when none are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecide(cmd, f, args)
		},
	}
	cmd.Flags().StringVarP(&f.datafile, "datafile", "d", "datafile.json", "Path to a JSON or YAML datafile.")
	cmd.Flags().StringVarP(&f.userID, "user", "u", "", "User id to decide for.")
	cmd.Flags().StringArrayVarP(&f.attrs, "attr", "a", nil, "User attribute as key=value. Repeatable.")
	cmd.Flags().StringSliceVarP(&f.options, "option", "o", nil, "Decide option such as INCLUDE_REASONS. Repeatable.")
	cmd.Flags().StringVar(&f.store, "store", "", "Profile store: memory, redis, postgres or mongo.")
	cmd.Flags().StringVar(&f.events, "events", "", "Impression sink: log or opensearch.")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func runDecide(cmd *cobra.Command, f *decideFlags, keys []string) error {
	ctx := cmd.Context()

	cfg, err := client.LoadConfig()
	if err != nil {
		return err
	}
	log := logger.New(
		logger.WithEnvironment(cfg.Env, "flagkit"),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithOutput(cmd.ErrOrStderr()),
	)

	attrs, err := parseAttributes(f.attrs)
	if err != nil {
		return err
	}
	opts := make([]decide.Option, 0, len(f.options))
	for _, o := range f.options {
		opts = append(opts, decide.Option(strings.ToUpper(strings.TrimSpace(o))))
	}

	snapshot, err := datafile.Load(f.datafile)
	if err != nil {
		return err
	}

	stores, err := openStores(ctx, f.store, cfg.CmabCacheTTL, log)
	if err != nil {
		return err
	}
	defer stores.close()

	clientOpts := []client.Option{client.WithConfig(cfg), client.WithLogger(log)}
	if stores.profiles != nil {
		clientOpts = append(clientOpts, client.WithProfileStore(stores.profiles))
	}
	if stores.cmabCache != nil {
		clientOpts = append(clientOpts, client.WithCmabCache(stores.cmabCache))
	}
	sink, err := openSink(ctx, f.events, log)
	if err != nil {
		return err
	}
	if sink != nil {
		clientOpts = append(clientOpts, client.WithEventSink(sink))
	}

	c, err := client.New(datafile.NewStaticProvider(snapshot), clientOpts...)
	if err != nil {
		return err
	}

	user := c.CreateUserContext(f.userID, attrs)
	var decisions map[string]client.Decision
	if len(keys) == 0 {
		decisions = user.DecideAll(ctx, opts...)
	} else {
		decisions = user.DecideForKeys(ctx, keys, opts...)
	}

	return printDecisions(cmd, decisions)
}

func printDecisions(cmd *cobra.Command, decisions map[string]client.Decision) error {
	keys := make([]string, 0, len(decisions))
	for k := range decisions {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	views := make([]decisionView, 0, len(keys))
	for _, k := range keys {
		d := decisions[k]
		views = append(views, decisionView{
			FlagKey:      d.FlagKey,
			VariationKey: d.VariationKey,
			Enabled:      d.Enabled,
			RuleKey:      d.RuleKey,
			Variables:    d.Variables,
			Reasons:      d.Reasons,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(views)
}

// parseAttributes turns key=value pairs into attributes. Values that parse
// as numbers or booleans are typed accordingly.
func parseAttributes(pairs []string) (map[string]any, error) {
	attrs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid attribute %q: want key=value", pair)
		}
		attrs[key] = typedAttribute(value)
	}
	return attrs, nil
}

func typedAttribute(s string) any {
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}
