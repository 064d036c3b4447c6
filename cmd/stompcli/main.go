// stompcli is a small demonstration program for this module: connect to a
// broker, subscribe to a destination and print what arrives, or send a
// single message. It owns the only reconnect/backoff loop in the
// repository — the library itself has no reconnect policy (Non-goal).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/manageplaces/Stompex/bridge"
	"github.com/manageplaces/Stompex/metrics"
)

func main() {
	app := cli.NewApp()
	app.Name = "stompcli"
	app.Usage = "Demonstrates connecting to a STOMP broker with Stompex"
	app.Commands = []cli.Command{
		{
			Name:  "sub",
			Usage: "Connect and print frames delivered to a destination",
			Flags: commonFlags(),
			Action: func(c *cli.Context) error {
				return runSub(c)
			},
		},
		{
			Name:  "send",
			Usage: "Connect, send one message, then disconnect",
			Flags: append(commonFlags(),
				cli.StringFlag{Name: "message", Usage: "Message body to send"},
			),
			Action: func(c *cli.Context) error {
				return runSend(c)
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		errorf("stompcli: %v\n", err)
		os.Exit(1)
	}
}

func commonFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{Name: "host", Value: "127.0.0.1", Usage: "Broker host"},
		cli.IntFlag{Name: "port", Value: 61613, Usage: "Broker port"},
		cli.StringFlag{Name: "login", Value: "guest", Usage: "STOMP login"},
		cli.StringFlag{Name: "passcode", Value: "guest", Usage: "STOMP passcode"},
		cli.StringFlag{Name: "destination", Value: "/queue/stompcli", Usage: "Destination to use"},
		cli.BoolFlag{Name: "secure", Usage: "Connect over TLS"},
		cli.BoolFlag{Name: "compressed", Usage: "Treat the destination as gzip-compressed"},
		cli.IntFlag{Name: "max-retries", Value: 5, Usage: "Max connect attempts before giving up (0 = unlimited)"},
	}
}

func runSub(c *cli.Context) error {
	m := metrics.Noop()
	conn, err := connectWithBackoff(c, m)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	destination := c.String("destination")
	conn.RegisterCallback(destination, printFrame)

	_, err = conn.Subscribe(destination, nil, bridge.SubscribeOptions{Compressed: c.Bool("compressed")})
	if err != nil {
		return err
	}
	okf("subscribed to %s, waiting for frames (ctrl-c to exit)\n", destination)

	select {}
}

func runSend(c *cli.Context) error {
	m := metrics.Noop()
	conn, err := connectWithBackoff(c, m)
	if err != nil {
		return err
	}
	defer conn.Disconnect()

	destination := c.String("destination")
	body := c.String("message")
	if err := conn.Send(destination, []byte(body), nil); err != nil {
		return err
	}
	okf("sent %q to %s\n", body, destination)
	return nil
}

func connectWithBackoff(c *cli.Context, m *metrics.Metrics) (*bridge.Connection, error) {
	rawOpts := map[string]interface{}{
		"secure": c.Bool("secure"),
	}
	opts, err := bridge.DecodeConnectOptions(rawOpts)
	if err != nil {
		return nil, err
	}
	delay := opts.Backoff.Initial
	maxRetries := c.Int("max-retries")

	var lastErr error
	for attempt := 0; maxRetries == 0 || attempt < maxRetries; attempt++ {
		if attempt > 0 {
			m.Reconnects.Inc()
			warnf("connect attempt %d failed (%v), retrying in %s\n", attempt, lastErr, delay)
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * opts.Backoff.Multiplier)
			if delay > opts.Backoff.Max {
				delay = opts.Backoff.Max
			}
		}

		conn, err := bridge.Connect(c.String("host"), c.Int("port"), c.String("login"), c.String("passcode"), nil, rawOpts)
		if err == nil {
			conn.UseMetrics(m)
			infof("connected to %s:%d\n", c.String("host"), c.Int("port"))
			return conn, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("stompcli: giving up after %d attempts: %w", maxRetries, lastErr)
}
