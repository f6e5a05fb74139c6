package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smswire/smswire/internal/config"
	"github.com/smswire/smswire/internal/domain"
	"github.com/smswire/smswire/internal/gateway"
	"github.com/smswire/smswire/internal/profile"
	"github.com/smswire/smswire/internal/state"
	"github.com/smswire/smswire/internal/status"
	intsync "github.com/smswire/smswire/internal/sync"
	"github.com/smswire/smswire/internal/watch"
)

func main() {
	_ = godotenv.Load()

	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	ownerFlag := flag.String("owner", "", "owner phone number (overrides profile)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fatal(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "watch":
		runWatch(profileName)
	case "about":
		cmdAbout(*jsonFlag)
	case "profiles":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: smswire profiles <init|list>")
			os.Exit(1)
		}
		cmdProfiles(profileName, args[1], args[2:], *jsonFlag)
	default:
		runOneShot(profileName, *ownerFlag, *jsonFlag, args)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: smswire [--profile <name>] [--owner <number>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  me                Show the signed-in account")
	fmt.Fprintln(os.Stderr, "  phones            List registered phones")
	fmt.Fprintln(os.Stderr, "  threads           List conversations for the owner phone")
	fmt.Fprintln(os.Stderr, "  open <thread-id>  Show the messages of a conversation")
	fmt.Fprintln(os.Stderr, "  send --to <number> --content <text> [--from <number>]")
	fmt.Fprintln(os.Stderr, "                    Send an SMS through the gateway")
	fmt.Fprintln(os.Stderr, "  heartbeat         Show the owner phone's last heartbeat")
	fmt.Fprintln(os.Stderr, "  use-phone <number>")
	fmt.Fprintln(os.Stderr, "                    Select and persist the active phone")
	fmt.Fprintln(os.Stderr, "  profiles init     Write a profile.toml for this profile")
	fmt.Fprintln(os.Stderr, "  profiles list     List known profiles")
	fmt.Fprintln(os.Stderr, "  watch             Run the background refresh process")
	fmt.Fprintln(os.Stderr, "  about             Show documentation and download links")
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func runWatch(profileName string) {
	app := fx.New(
		watch.Module(watch.Params{Profile: profileName}),
	)
	app.Run()
}

// runtime bundles the components a one-shot command needs. Watch mode
// builds the same graph through fx instead.
type runtime struct {
	store  *state.Store
	engine *intsync.Engine
	cfg    config.Runtime
}

func newRuntime(profileName string) (*runtime, error) {
	env, err := config.Read()
	if err != nil {
		return nil, err
	}
	prof, err := config.LoadProfile(profile.ProfilePath(profileName))
	if err != nil {
		prof = nil
	}
	cfg := config.Resolve(env, prof)
	if cfg.APIKey == "" {
		return nil, watch.ErrNoAPIKey
	}
	client, err := gateway.NewClient(cfg.APIURL, cfg.APIKey)
	if err != nil {
		return nil, err
	}
	st := state.New(nil)
	engine := intsync.NewEngine(client, st, status.NewMachine(nil), zap.NewNop())
	return &runtime{store: st, engine: engine, cfg: cfg}, nil
}

// signIn authenticates and applies the configured owner. The flag wins
// over the profile file; with neither set the account's active phone is
// kept. The override goes through the engine so it persists to the
// profile, same as watch mode.
func (r *runtime) signIn(ctx context.Context, ownerFlag string) error {
	if err := r.engine.SignIn(ctx); err != nil {
		return err
	}
	owner := ownerFlag
	if owner == "" {
		owner = r.cfg.Owner
	}
	if owner != "" && owner != r.store.Owner() {
		return r.engine.SetOwner(ctx, owner)
	}
	return nil
}

func runOneShot(profileName, owner string, jsonOut bool, args []string) {
	rt, err := newRuntime(profileName)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := rt.signIn(ctx, owner); err != nil {
		fatal(fmt.Errorf("sign in: %w", err))
	}

	switch args[0] {
	case "me":
		cmdMe(rt, jsonOut)
	case "phones":
		cmdPhones(ctx, rt, jsonOut)
	case "threads":
		cmdThreads(ctx, rt, jsonOut)
	case "open":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: smswire open <thread-id>")
			os.Exit(1)
		}
		cmdOpen(ctx, rt, args[1], jsonOut)
	case "send":
		cmdSend(ctx, rt, args[1:], jsonOut)
	case "heartbeat":
		cmdHeartbeat(ctx, rt, jsonOut)
	case "use-phone":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: smswire use-phone <number>")
			os.Exit(1)
		}
		cmdUsePhone(ctx, rt, args[1], jsonOut)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func cmdMe(rt *runtime, jsonOut bool) {
	user := rt.store.User()
	if jsonOut {
		outputJSON(user)
		return
	}
	if user == nil {
		fmt.Println("No account loaded.")
		return
	}
	fmt.Printf("Account:      %s\n", user.Email)
	fmt.Printf("Timezone:     %s\n", user.Timezone)
	fmt.Printf("Active phone: %s\n", user.ActivePhoneID)
	if owner := rt.store.Owner(); owner != "" {
		fmt.Printf("Owner:        %s\n", owner)
	}
}

func cmdPhones(ctx context.Context, rt *runtime, jsonOut bool) {
	if err := rt.engine.LoadPhones(ctx, true); err != nil {
		fatal(err)
	}
	phones := rt.store.Phones()
	if jsonOut {
		outputJSON(phones)
		return
	}
	if len(phones) == 0 {
		fmt.Println("No phones registered.")
		return
	}
	owner := rt.store.Owner()
	for _, p := range phones {
		marker := " "
		if p.PhoneNumber == owner {
			marker = "*"
		}
		fmt.Printf("%s %-16s %d msg/min\n", marker, p.PhoneNumber, p.MessagesPerMinute)
	}
}

func cmdThreads(ctx context.Context, rt *runtime, jsonOut bool) {
	if err := rt.engine.LoadThreads(ctx); err != nil {
		fatal(err)
	}
	threads := rt.store.Threads()
	if jsonOut {
		outputJSON(threads)
		return
	}
	if len(threads) == 0 {
		fmt.Println("No conversations.")
		return
	}
	for _, th := range threads {
		archived := ""
		if th.IsArchived {
			archived = " [archived]"
		}
		fmt.Printf("%-36s %-16s %s  %s%s\n",
			th.ID, th.Contact, th.LastMessageAt.Format("2006-01-02 15:04"),
			truncate(th.LastMessageContent, 40), archived)
	}
}

func cmdOpen(ctx context.Context, rt *runtime, threadID string, jsonOut bool) {
	if err := rt.engine.LoadThreads(ctx); err != nil {
		fatal(err)
	}
	if err := rt.engine.OpenThread(ctx, threadID); err != nil {
		fatal(err)
	}
	messages := rt.store.Messages()
	if jsonOut {
		outputJSON(messages)
		return
	}
	if len(messages) == 0 {
		fmt.Println("No messages.")
		return
	}
	for _, m := range messages {
		direction := "<-"
		if m.Type == domain.MessageTypeOutgoing {
			direction = "->"
		}
		fmt.Printf("%s %s %s [%s] %s\n",
			m.OrderTimestamp.Format("2006-01-02 15:04"), direction, m.Contact, m.Status, m.Content)
	}
}

func cmdSend(ctx context.Context, rt *runtime, args []string, jsonOut bool) {
	flags := flag.NewFlagSet("send", flag.ExitOnError)
	from := flags.String("from", "", "sender phone number (defaults to the owner)")
	to := flags.String("to", "", "recipient phone number")
	content := flags.String("content", "", "message text")
	_ = flags.Parse(args)

	req := domain.MessageSendRequest{From: *from, To: *to, Content: *content}
	if req.From == "" {
		req.From = rt.store.Owner()
	}

	fieldErrs, err := rt.engine.SendMessage(ctx, req)
	if err != nil {
		fatal(err)
	}
	if fieldErrs != nil && !fieldErrs.Empty() {
		for _, msg := range fieldErrs.To {
			fmt.Fprintf(os.Stderr, "to: %s\n", msg)
		}
		for _, msg := range fieldErrs.Content {
			fmt.Fprintf(os.Stderr, "content: %s\n", msg)
		}
		if n := rt.store.Notification(); n.Active {
			fmt.Fprintf(os.Stderr, "%s\n", n.Message)
		}
		os.Exit(1)
	}

	if jsonOut {
		outputJSON(rt.store.Messages())
		return
	}
	fmt.Printf("Message sent to %s.\n", req.To)
}

func cmdHeartbeat(ctx context.Context, rt *runtime, jsonOut bool) {
	if err := rt.engine.RefreshHeartbeat(ctx); err != nil {
		fatal(err)
	}
	hb := rt.store.Heartbeat()
	if jsonOut {
		outputJSON(hb)
		return
	}
	if hb == nil {
		fmt.Println("No heartbeat recorded.")
		return
	}
	fmt.Printf("Owner:     %s\n", hb.Owner)
	fmt.Printf("Last seen: %s (%s ago)\n",
		hb.Timestamp.Format(time.RFC3339), time.Since(hb.Timestamp).Round(time.Second))
}

func cmdUsePhone(ctx context.Context, rt *runtime, number string, jsonOut bool) {
	if err := rt.engine.LoadPhones(ctx, true); err != nil {
		fatal(err)
	}
	if err := rt.engine.SetOwner(ctx, number); err != nil {
		fatal(err)
	}
	if _, ok := rt.store.ActivePhone(); !ok {
		fatal(fmt.Errorf("no registered phone has number %s", number))
	}
	if jsonOut {
		outputJSON(rt.store.User())
		return
	}
	fmt.Printf("Active phone set to %s.\n", number)
}

// cmdAbout needs no API key: it only prints the informational links from
// the environment view.
func cmdAbout(jsonOut bool) {
	env, err := config.Read()
	if err != nil {
		fatal(err)
	}
	if jsonOut {
		outputJSON(map[string]string{
			"name":     env.AppName,
			"docs":     env.DocsURL,
			"download": env.DownloadURL,
			"source":   env.SourceURL,
		})
		return
	}
	fmt.Printf("%s\n", env.AppName)
	fmt.Printf("Docs:     %s\n", env.DocsURL)
	fmt.Printf("Download: %s\n", env.DownloadURL)
	fmt.Printf("Source:   %s\n", env.SourceURL)
}

func cmdProfiles(profileName, subcmd string, args []string, jsonOut bool) {
	switch subcmd {
	case "init":
		flags := flag.NewFlagSet("profiles init", flag.ExitOnError)
		apiKey := flags.String("api-key", "", "gateway API key")
		apiURL := flags.String("api-url", "", "gateway base URL (default from environment)")
		owner := flags.String("owner", "", "owner phone number")
		interval := flags.String("interval", "", "poll interval, e.g. 15s")
		_ = flags.Parse(args)

		if *apiKey == "" {
			fmt.Fprintln(os.Stderr, "usage: smswire profiles init --api-key <key> [--api-url <url>] [--owner <number>] [--interval <duration>]")
			os.Exit(1)
		}
		if *interval != "" {
			if _, err := time.ParseDuration(*interval); err != nil {
				fatal(fmt.Errorf("invalid interval: %w", err))
			}
		}

		prof := &config.Profile{
			APIURL:       *apiURL,
			APIKey:       *apiKey,
			Owner:        *owner,
			PollInterval: *interval,
		}
		if err := config.SaveProfile(profile.ProfilePath(profileName), prof); err != nil {
			fatal(err)
		}

		// First profile becomes the default.
		if _, err := config.Load(profile.ConfigPath()); err != nil {
			if err := config.Save(profile.ConfigPath(), &config.Config{DefaultProfile: profileName}); err != nil {
				fatal(err)
			}
		}
		fmt.Printf("Profile %q written to %s.\n", profileName, profile.ProfilePath(profileName))

	case "list":
		names := listProfiles()
		if jsonOut {
			outputJSON(names)
			return
		}
		if len(names) == 0 {
			fmt.Println("No profiles found. Run 'smswire profiles init' first.")
			return
		}
		def := defaultProfileName()
		for _, name := range names {
			marker := " "
			if name == def {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, name)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown profiles subcommand: %s\n", subcmd)
		os.Exit(1)
	}
}

func listProfiles() []string {
	entries, err := os.ReadDir(filepath.Join(profile.BaseDir(), "profiles"))
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func defaultProfileName() string {
	cfg, err := config.Load(profile.ConfigPath())
	if err != nil || cfg.DefaultProfile == "" {
		return profile.DefaultProfileName
	}
	return cfg.DefaultProfile
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
