package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/tether"
	"github.com/aretw0/tether/internal/presentation/tui"
	"github.com/aretw0/tether/pkg/domain"
)

// WatchOptions carries the watch command's flags.
type WatchOptions struct {
	URL      string // base URL of a running feed server
	NoBanner bool
}

// RunWatch tails a feed server's SSE endpoint and renders each event as one
// line until interrupted.
func RunWatch(opts WatchOptions) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !opts.NoBanner {
		tui.PrintBanner(tether.Version)
	}

	url := strings.TrimRight(opts.URL, "/") + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("connect to %s: unexpected status %s", url, resp.Status)
	}

	renderer := tui.NewRenderer()
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		// SSE framing: we only care about data lines carrying feed
		// events; pings and heartbeats pass through silently.
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev domain.RegistryEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}
		fmt.Println(renderer.Line(ev))
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("feed closed: %w", err)
	}
	return nil
}
