package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/talenthub-app/hubtalk/internal/bus"
	"github.com/talenthub-app/hubtalk/internal/config"
	"github.com/talenthub-app/hubtalk/internal/engine"
	"github.com/talenthub-app/hubtalk/internal/identity"
	"github.com/talenthub-app/hubtalk/internal/logging"
	"github.com/talenthub-app/hubtalk/internal/portal"
	"github.com/talenthub-app/hubtalk/internal/profile"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	agg, closeFn, err := buildAggregator(profileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "conversations":
		cmdConversations(ctx, agg, *jsonFlag)
	case "unread":
		cmdUnread(ctx, agg)
	case "send":
		cmdSend(ctx, agg, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: hubctl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  conversations              List aggregated conversations")
	fmt.Fprintln(os.Stderr, "  unread                     Show total unread count")
	fmt.Fprintln(os.Stderr, "  send --to <id> <text...>   Send a message (optional --job <listing-id>)")
}

func buildAggregator(profileName string) (*engine.Aggregator, func(), error) {
	if err := profile.EnsureDir(profileName); err != nil {
		return nil, nil, err
	}
	cfg, err := config.LoadProfile(profile.ProfileConfigPath(profileName))
	if err != nil {
		return nil, nil, fmt.Errorf("load profile %q: %w", profileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(profile.LogPath(profileName), profileName, false)
	if err != nil {
		return nil, nil, err
	}

	client := portal.NewClient(cfg.APIBaseURL, cfg.APIToken, logger)
	agg := engine.New(cfg.ParticipantID, client, client, bus.New(), nil, logger)
	return agg, client.Close, nil
}

func cmdConversations(ctx context.Context, agg *engine.Aggregator, jsonOut bool) {
	if err := agg.Refresh(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	convs := agg.Conversations()
	if jsonOut {
		outputJSON(convs)
		return
	}

	fmt.Printf("%-28s %-22s %6s  %s\n", "NAME", "POSITION", "UNREAD", "LAST MESSAGE")
	for _, c := range convs {
		last := c.LastMessage()
		preview := last.Content
		if r := []rune(preview); len(r) > 48 {
			preview = string(r[:48])
		}
		fmt.Printf("%-28s %-22s %6d  %s\n", c.CounterpartyName, c.JobPosition, c.UnreadCount, preview)
	}
}

func cmdUnread(ctx context.Context, agg *engine.Aggregator) {
	if err := agg.Refresh(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(agg.TotalUnread())
}

func cmdSend(ctx context.Context, agg *engine.Aggregator, args []string) {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	to := fs.String("to", "", "counterparty participant id")
	job := fs.String("job", "", "job listing id to reference")
	_ = fs.Parse(args)

	content := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if *to == "" || content == "" {
		fmt.Fprintln(os.Stderr, "usage: hubctl send --to <id> [--job <listing-id>] <text...>")
		os.Exit(1)
	}
	if !identity.ValidID(*to) {
		fmt.Fprintf(os.Stderr, "error: invalid counterparty id %q\n", *to)
		os.Exit(1)
	}
	if *job != "" && !identity.ValidID(*job) {
		fmt.Fprintf(os.Stderr, "error: invalid job listing id %q\n", *job)
		os.Exit(1)
	}

	if err := agg.Send(ctx, *to, content, *job); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("sent")
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
