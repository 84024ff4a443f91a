package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/fixpoint/repair-api/internal/domain/auth"
)

const sessionKeyPrefix = "session:"

type sessionListOptions struct {
	Email string
	Role  string
	Limit int
}

type sessionClearOptions struct {
	Email  string
	All    bool
	DryRun bool
	Yes    bool
}

type sessionEntry struct {
	Key       string
	UserID    string
	Email     string
	Role      string
	ExpiresAt time.Time
	TTL       time.Duration
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionListFlags(args)
	if err != nil {
		return err
	}

	return withRedis(cmdCtx, func(ctx context.Context, client redis.UniversalClient) error {
		entries, total, scanErr := scanSessions(ctx, client, func(entry sessionEntry) bool {
			return sessionMatchesFilters(entry, opts.Email, opts.Role)
		}, opts.Limit)
		if scanErr != nil {
			return scanErr
		}

		return printSessionEntries(entries, total, opts.Limit)
	})
}

func runClearSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionClearFlags(args)
	if err != nil {
		return err
	}

	if confirmErr := confirmAction(sessionClearConfirmOptions{opts}, "clear login sessions"); confirmErr != nil {
		return confirmErr
	}

	return withRedis(cmdCtx, func(ctx context.Context, client redis.UniversalClient) error {
		entries, total, scanErr := scanSessions(ctx, client, func(entry sessionEntry) bool {
			return sessionMatchesFilters(entry, opts.Email, "")
		}, 0)
		if scanErr != nil {
			return scanErr
		}

		if total == 0 {
			return writeln(os.Stdout, "No matching sessions found.")
		}

		if opts.DryRun {
			return writef(os.Stdout, "Dry run: %d session(s) would be deleted.\n", total)
		}

		keys := make([]string, 0, len(entries))
		for _, entry := range entries {
			keys = append(keys, entry.Key)
		}
		if delErr := client.Del(ctx, keys...).Err(); delErr != nil {
			return fmt.Errorf("delete session keys: %w", delErr)
		}

		return writef(os.Stdout, "Deleted %d session(s).\n", len(keys))
	})
}

func withRedis(cmdCtx *commandContext, f func(context.Context, redis.UniversalClient) error) error {
	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, client, err := connectInfraWithOptions(&connectInfraOptions{
		Logger:    cmdCtx.Logger,
		Config:    &cmdCtx.Config,
		WantDB:    false,
		WantRedis: true,
	})
	if err != nil {
		return err
	}
	if client == nil {
		return errors.New("redis is not configured; session commands require a redis connection")
	}
	defer func() {
		if closeErr := closeInfra(nil, client); closeErr != nil {
			cmdCtx.Logger.Warn("close redis failed", "error", closeErr)
		}
	}()

	return f(ctx, client)
}

// scanSessions walks all session keys and decodes each stored session. Keys
// holding payloads that do not decode are counted but reported as opaque.
func scanSessions(
	ctx context.Context,
	client redis.UniversalClient,
	match func(sessionEntry) bool,
	limit int,
) ([]sessionEntry, int, error) {
	var (
		entries []sessionEntry
		total   int
	)

	iter := client.Scan(ctx, 0, sessionKeyPrefix+"*", 1000).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		entry, err := loadSessionEntry(ctx, client, key)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // expired between scan and get
			}
			return nil, 0, err
		}

		if !match(entry) {
			continue
		}

		total++
		if limit > 0 && len(entries) >= limit {
			continue
		}
		entries = append(entries, entry)
	}
	if err := iter.Err(); err != nil {
		return nil, 0, fmt.Errorf("redis scan: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Email == entries[j].Email {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].Email < entries[j].Email
	})
	return entries, total, nil
}

func loadSessionEntry(ctx context.Context, client redis.UniversalClient, key string) (sessionEntry, error) {
	raw, err := client.Get(ctx, key).Result()
	if err != nil {
		return sessionEntry{}, err
	}

	ttl, err := client.TTL(ctx, key).Result()
	if err != nil {
		return sessionEntry{}, fmt.Errorf("query redis ttl for key %q: %w", key, err)
	}

	entry := sessionEntry{Key: key, TTL: ttl}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(raw), &sess); unmarshalErr != nil {
		entry.Email = "(undecodable)"
		return entry, nil
	}

	entry.UserID = sess.UserID
	entry.Email = sess.Email
	entry.Role = string(sess.Role)
	entry.ExpiresAt = sess.ExpiresAt
	return entry, nil
}

func sessionMatchesFilters(entry sessionEntry, email, role string) bool {
	if email != "" && !strings.Contains(strings.ToLower(entry.Email), strings.ToLower(email)) {
		return false
	}
	if role != "" && !strings.EqualFold(entry.Role, role) {
		return false
	}
	return true
}

func printSessionEntries(entries []sessionEntry, total, limit int) error {
	if err := writef(os.Stdout, "Active sessions"); err != nil {
		return fmt.Errorf("write session header: %w", err)
	}
	if limit > 0 {
		if err := writef(os.Stdout, " (showing up to %d)", limit); err != nil {
			return fmt.Errorf("write session limit: %w", err)
		}
	}
	if err := writeln(os.Stdout); err != nil {
		return fmt.Errorf("write session header newline: %w", err)
	}

	if len(entries) == 0 {
		return writeln(os.Stdout, "  (no sessions matched)")
	}

	if err := renderSessionTable(entries); err != nil {
		return err
	}

	if err := writef(os.Stdout, "Total sessions matched: %d\n", total); err != nil {
		return fmt.Errorf("write session total: %w", err)
	}
	if limit > 0 && total > len(entries) {
		if err := writeln(os.Stdout, "More sessions available; increase --limit to view additional entries."); err != nil {
			return fmt.Errorf("write session more message: %w", err)
		}
	}
	return nil
}

func renderSessionTable(entries []sessionEntry) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "EMAIL\tROLE\tUSER ID\tTTL\tKEY"); err != nil {
		return fmt.Errorf("write session header row: %w", err)
	}

	for _, entry := range entries {
		role := entry.Role
		if role == "" {
			role = "-"
		}
		if err := writef(
			tw,
			"%s\t%s\t%s\t%s\t%s\n",
			entry.Email,
			role,
			entry.UserID,
			formatRedisTTL(entry.TTL),
			entry.Key,
		); err != nil {
			return fmt.Errorf("write session entry: %w", err)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush session table: %w", err)
	}
	return nil
}

func formatRedisTTL(ttl time.Duration) string {
	if ttl == -1 {
		return "no expiry"
	}
	if ttl == -2 {
		return "missing"
	}
	if ttl < 0 {
		return ttl.String()
	}
	return ttl.Round(time.Millisecond).String()
}

func parseSessionListFlags(args []string) (sessionListOptions, error) {
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts sessionListOptions
	fs.StringVar(&opts.Email, "email", "", "Filter by email substring (case-insensitive)")
	fs.StringVar(&opts.Role, "role", "", "Filter by role (admin, employee, user, guest)")
	fs.IntVar(&opts.Limit, "limit", 20, "Maximum sessions to display (0 for unlimited)")

	if err := fs.Parse(args); err != nil {
		return sessionListOptions{}, err
	}

	opts.Email = strings.TrimSpace(opts.Email)
	opts.Role = strings.TrimSpace(opts.Role)
	return opts, nil
}

func parseSessionClearFlags(args []string) (sessionClearOptions, error) {
	fs := flag.NewFlagSet("clear-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts sessionClearOptions
	fs.StringVar(&opts.Email, "email", "", "Clear sessions whose email contains this substring (required unless --all)")
	fs.BoolVar(&opts.All, "all", false, "Clear all sessions")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Print actions without executing")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return sessionClearOptions{}, err
	}

	opts.Email = strings.TrimSpace(opts.Email)
	if !opts.All && opts.Email == "" {
		return sessionClearOptions{}, errors.New("--email is required unless --all is set")
	}
	return opts, nil
}

type sessionClearConfirmOptions struct {
	opts sessionClearOptions
}

func (s sessionClearConfirmOptions) IsDryRun() bool { return s.opts.DryRun }
func (s sessionClearConfirmOptions) IsYes() bool    { return s.opts.Yes }
func (s sessionClearConfirmOptions) GetWarning() string {
	return "WARNING: this will remove all login sessions; every signed-in user will be logged out."
}

func (s sessionClearConfirmOptions) GetTarget() string {
	if s.opts.All {
		return ""
	}
	return fmt.Sprintf("email %q", s.opts.Email)
}
