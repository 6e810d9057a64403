// replyctl is an operator tool for the replies API. It lists pending
// replies or confirms reply ids by hand, using the same configuration as
// the relay.
//
// Usage:
//
//	replyctl [flags] check
//	replyctl [flags] confirm ID...
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/samvad-hq/replies-relay/internal/config"
	"github.com/samvad-hq/replies-relay/pkg/jsoncodec"
	"github.com/samvad-hq/replies-relay/pkg/replies"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var (
		baseURI string
		timeout time.Duration
		async   bool
	)

	flagSet := pflag.NewFlagSet("replyctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&baseURI, "base-uri", "", "replies API base URI (overrides REPLIES_BASE_URI)")
	flagSet.DurationVar(&timeout, "timeout", 0, "request timeout (overrides REPLIES_TIMEOUT_SECONDS)")
	flagSet.BoolVar(&async, "async", false, "issue the call through the callback API")
	flagSet.Usage = func() {
		fmt.Fprintf(stderr, "Usage: replyctl [flags] check | confirm ID...\n\nFlags:\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	rest := flagSet.Args()
	if len(rest) == 0 {
		flagSet.Usage()
		return errors.New("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	clientCfg := cfg.RepliesConfig()
	if baseURI != "" {
		clientCfg.BaseURI = baseURI
	}
	if timeout > 0 {
		clientCfg.Timeout = timeout
	}

	client, err := replies.NewClient(clientCfg)
	if err != nil {
		return fmt.Errorf("init replies client: %w", err)
	}

	ctx := context.Background()
	switch cmd := rest[0]; cmd {
	case "check":
		if len(rest) > 1 {
			return fmt.Errorf("check takes no arguments")
		}
		resp, err := checkReplies(ctx, client, async)
		if err != nil {
			return describe(err, stderr)
		}
		return writeJSON(stdout, resp)
	case "confirm":
		ids := rest[1:]
		if len(ids) == 0 {
			return fmt.Errorf("confirm needs at least one reply id")
		}
		out, err := confirmReplies(ctx, client, ids, async)
		if err != nil {
			return describe(err, stderr)
		}
		fmt.Fprintf(stderr, "confirmed %d replies\n", len(ids))
		if out == nil {
			return nil
		}
		return writeJSON(stdout, out)
	default:
		flagSet.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func checkReplies(ctx context.Context, client *replies.Client, async bool) (*replies.CheckRepliesResponse, error) {
	if !async {
		return client.CheckReplies(ctx)
	}
	return client.CheckRepliesAsync(ctx, nil).Wait(ctx)
}

func confirmReplies(ctx context.Context, client *replies.Client, ids []string, async bool) (any, error) {
	req := replies.ConfirmRepliesRequest{ReplyIDs: ids}
	if !async {
		return client.ConfirmRepliesAsReceived(ctx, req)
	}
	return client.ConfirmRepliesAsReceivedAsync(ctx, req, nil).Wait(ctx)
}

// describe prints the raw service body for rejected requests.
func describe(err error, stderr io.Writer) error {
	var clientErr *replies.ClientError
	if errors.As(err, &clientErr) && len(clientErr.ErrorResponse) > 0 {
		fmt.Fprintf(stderr, "service response: %s\n", clientErr.ErrorResponse)
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	raw, err := jsoncodec.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", raw)
	return err
}
