// Command tagbusdemo is an interactive shell over a single in-process
// tagbus.Controller, modeled on the original SOA demo shell: get/open a
// tag, send/recv a message, awake or remove a tag, all from one terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/ehrlich-b/tagbus"
	"github.com/ehrlich-b/tagbus/internal/logging"
)

func main() {
	var (
		verbose        = flag.BoolP("verbose", "v", false, "enable debug logging")
		maxTags        = flag.Int("max-tags", 0, "override the registry's tag capacity (0 = default)")
		maxLevels      = flag.Int("max-levels", 0, "override the per-tag level capacity (0 = default)")
		maxMessageSize = flag.Int("max-message-size", 0, "override the largest message in bytes (0 = default)")
	)
	flag.Parse()

	logCfg := logging.DefaultConfig()
	if *verbose {
		logCfg.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logCfg)
	logging.SetDefault(logger)

	cfg := tagbus.DefaultConfig()
	if *maxTags > 0 {
		cfg.MaxTags = *maxTags
	}
	if *maxLevels > 0 {
		cfg.MaxLevels = *maxLevels
	}
	if *maxMessageSize > 0 {
		cfg.MaxMessageSize = *maxMessageSize
	}

	c := tagbus.New(cfg)
	c.SetLogger(logger)

	fmt.Println("***** tagbus demo *****")
	showHelp()

	statusCh := make(chan os.Signal, 1)
	signal.Notify(statusCh, syscall.SIGUSR1)
	go func() {
		for range statusCh {
			if _, err := tagbus.WriteStatus(os.Stderr, c); err != nil {
				logger.Error("status dump failed", "error", err)
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		c.Shutdown()
		os.Exit(0)
	}()

	runShell(c, logger)
}

func runShell(c *tagbus.Controller, logger *logging.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("tagbus> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := dispatch(c, line); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
	}
}

func dispatch(c *tagbus.Controller, line string) error {
	fields := strings.SplitN(line, "'", 2)
	args := strings.Fields(fields[0])
	if len(args) == 0 {
		return nil
	}

	switch args[0] {
	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: get <key> (key=0 for a private tag)")
		}
		key, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		if key == 0 {
			key = int(tagbus.PrivateSentinel)
		}
		desc, err := c.Get(int32(key), tagbus.CmdCreate, int32(os.Getuid()))
		if err != nil {
			return err
		}
		fmt.Println("tag descriptor:", desc)

	case "open":
		if len(args) != 2 {
			return fmt.Errorf("usage: open <key>")
		}
		key, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		desc, err := c.Get(int32(key), tagbus.CmdOpen, int32(os.Getuid()))
		if err != nil {
			return err
		}
		fmt.Println("tag descriptor:", desc)

	case "send":
		if len(args) != 3 || len(fields) != 2 {
			return fmt.Errorf("usage: send <tag> <level> 'message'")
		}
		desc, level, err := parseTagLevel(args[1], args[2])
		if err != nil {
			return err
		}
		return c.Send(desc, level, []byte(strings.TrimSuffix(fields[1], "'")))

	case "recv":
		if len(args) != 4 {
			return fmt.Errorf("usage: recv <tag> <level> <bufsize>")
		}
		desc, level, err := parseTagLevel(args[1], args[2])
		if err != nil {
			return err
		}
		size, err := strconv.Atoi(args[3])
		if err != nil || size <= 0 {
			return fmt.Errorf("invalid buffer size: %s", args[3])
		}
		buf := make([]byte, size)
		n, err := c.Receive(context.Background(), desc, level, buf)
		if err != nil {
			return err
		}
		fmt.Println("buffer received:", string(buf[:n]))

	case "awake":
		if len(args) != 2 {
			return fmt.Errorf("usage: awake <tag>")
		}
		desc, err := parseTag(args[1])
		if err != nil {
			return err
		}
		return c.Ctl(desc, tagbus.CmdAwakeAll)

	case "del":
		if len(args) != 2 {
			return fmt.Errorf("usage: del <tag>")
		}
		desc, err := parseTag(args[1])
		if err != nil {
			return err
		}
		return c.Ctl(desc, tagbus.CmdRemove)

	case "status":
		_, err := tagbus.WriteStatus(os.Stdout, c)
		return err

	case "help":
		showHelp()

	case "quit", "exit":
		c.Shutdown()
		os.Exit(0)

	default:
		return fmt.Errorf("unknown command %q, try 'help'", args[0])
	}
	return nil
}

func parseTag(s string) (int32, error) {
	v, err := strconv.Atoi(s)
	return int32(v), err
}

func parseTagLevel(tagStr, lvlStr string) (int32, int32, error) {
	desc, err := strconv.Atoi(tagStr)
	if err != nil {
		return 0, 0, err
	}
	lvl, err := strconv.Atoi(lvlStr)
	if err != nil {
		return 0, 0, err
	}
	return int32(desc), int32(lvl), nil
}

func showHelp() {
	fmt.Println(" ----------------------------------------------------------------------")
	fmt.Println("| get key                    - create a new tag (key 0 = private)       |")
	fmt.Println("| open key                   - open a tag by key                        |")
	fmt.Println("| send tag level 'message'   - publish a message to a tag level         |")
	fmt.Println("| recv tag level size        - block for a message on a tag level       |")
	fmt.Println("| awake tag                  - wake every receiver blocked on a tag     |")
	fmt.Println("| del tag                    - remove a tag (fails while busy)          |")
	fmt.Println("| status                     - print the live tag/level table           |")
	fmt.Println("| help                       - show this message                        |")
	fmt.Println("| quit                       - shut down and exit                       |")
	fmt.Println(" ----------------------------------------------------------------------")
	fmt.Println("Send SIGUSR1 (kill -USR1", os.Getpid(), ") to dump the status table to stderr")
}
