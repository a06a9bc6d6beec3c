// sentryctl sends one control command to a running gateway and prints the
// reply.
//
//	sentryctl GET HEALTH
//	sentryctl GET STATS
//	sentryctl SET LOG_LEVEL=DEBUG
package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/sentinel-fabric/telemetry/internal/control"
)

var (
	host = flag.String("host", "127.0.0.1", "Control node host")
	port = flag.Uint16("port", 5100, "Control node TCP port")
)

func run() error {
	if flag.NArg() == 0 {
		return fmt.Errorf("usage: sentryctl [--host H] [--port P] <command...>")
	}
	command := strings.Join(flag.Args(), " ")

	client, err := control.Dial(*host, *port)
	if err != nil {
		return err
	}
	defer client.Close()

	reply, err := client.Send(command)
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sentryctl: %v\n", err)
		os.Exit(1)
	}
}
