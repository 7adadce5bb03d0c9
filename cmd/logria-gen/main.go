// Command logria-gen is a tiny convenience generator for sample log
// streams to pipe into `logria -e`. The sample-log generator is named
// explicitly out of core scope; this is the thin external collaborator
// that scope excludes, kept only because a terminal demo needs
// something to point `-e` at.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
)

var levels = []string{"DEBUG", "INFO", "WARN", "ERROR"}
var messages = []string{
	"request completed",
	"cache miss",
	"connection reset by peer",
	"retrying after backoff",
	"queue depth nominal",
	"slow query detected",
}

func main() {
	interval := flag.Duration("interval", 200*time.Millisecond, "delay between lines")
	count := flag.Int("count", 0, "number of lines to emit (0 = unbounded)")
	flag.Parse()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	emitted := 0
	for {
		level := levels[rng.Intn(len(levels))]
		msg := messages[rng.Intn(len(messages))]
		fmt.Fprintf(os.Stdout, "%s %s pid=%d %s\n", time.Now().Format(time.RFC3339), level, rng.Intn(60000), msg)
		emitted++
		if *count > 0 && emitted >= *count {
			return
		}
		time.Sleep(*interval)
	}
}
