// Command monitor connects to the gateway and prints every frame.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/jasperbot/jasper"
	"github.com/jasperbot/jasper/events"
	"github.com/jasperbot/jasper/model"
	"github.com/jasperbot/jasper/util"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: monitor <bot-token>")
		os.Exit(2)
	}

	c := jasper.New(os.Args[1], &jasper.WsOptions{
		Debugger: &util.StderrDebugger{Truncate: true},
	})

	c.On(events.Ready, events.OnReady(func(_ context.Context, r *model.Ready) error {
		if r.User == nil {
			fmt.Printf("ready in %d guilds\n", len(r.Guilds))
			return nil
		}
		fmt.Printf("ready as %s in %d guilds\n", r.User.Username, len(r.Guilds))
		return nil
	}))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := c.Start(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "Got an error: %s\n", err)
		os.Exit(1)
	}
}
