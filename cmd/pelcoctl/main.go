// Command pelcoctl drives a Pelco D camera from the terminal, either one
// command per invocation or as an interactive shell.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"

	"pelco-remote/internal/app"
	"pelco-remote/internal/config"
	"pelco-remote/internal/logging"
)

func main() {
	cfgFile := flag.String("config", "", "config file (default: $PELCO_CONFIG or configs/pelco.yaml)")
	port := flag.String("port", "", "serial device, overrides serial.port")
	address := flag.Int("addr", 0, "camera address, overrides camera.address")
	verbose := flag.Bool("v", false, "log every frame")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *port != "" {
		cfg.Serial.Port = *port
	}
	if *address != 0 {
		cfg.Camera.Address = *address
	}
	cfg.Logging.Level = "warn"
	if *verbose {
		cfg.Logging.Level = "debug"
	}
	cfg.Logging.File.Filename = ""

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	rig, err := app.OpenRig(cfg, logger, nil)
	if err != nil {
		logger.Fatal("open camera", zap.Error(err))
	}
	defer rig.Close()

	if flag.NArg() > 0 {
		if err := runCommand(rig, os.Stdout, flag.Arg(0), flag.Args()[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	shell(rig)
}

func shell(rig *app.Rig) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) (c []string) {
		for _, name := range commandNames() {
			if strings.HasPrefix(name, strings.ToLower(input)) {
				c = append(c, name)
			}
		}
		return
	})

	historyFile := filepath.Join(os.TempDir(), ".pelcoctl_history")
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".pelcoctl_history")
	}
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("camera %d: type \"help\" for commands, Ctrl-D to quit.\n", rig.Factory.Address())
	for {
		input, err := line.Prompt("pelco> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Println()
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "read: %v\n", err)
			break
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if input == "help" {
			for _, name := range commandNames() {
				c := cliCommands[name]
				fmt.Printf("  %-28s %s\n", c.Usage, c.Description)
			}
			continue
		}
		if input == "quit" || input == "exit" {
			break
		}

		tokens := strings.Fields(input)
		if err := runCommand(rig, os.Stdout, tokens[0], tokens[1:]); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}

	if f, err := os.Create(historyFile); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}
