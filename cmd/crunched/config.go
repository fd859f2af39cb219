package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ChamsBouzaiene/crunched/internal/config"
)

// runConfigCommand handles "crunched config show" and
// "crunched config set -provider ... -api-key ... -model ... -base-url ...".
func runConfigCommand(args []string) error {
	mgr, err := config.ManagerFromEnv()
	if err != nil {
		return err
	}

	if len(args) == 0 || args[0] == "show" {
		desc, err := mgr.Describe()
		if err != nil {
			return err
		}
		fmt.Print(desc)
		if !mgr.Exists() {
			fmt.Println()
		}
		return nil
	}
	if args[0] != "set" {
		return fmt.Errorf("unknown config command %q (use show or set)", args[0])
	}

	fs := flag.NewFlagSet("config set", flag.ExitOnError)
	var patch config.FileConfig
	fs.StringVar(&patch.LLMProvider, "provider", "", "LLM provider (anthropic, openai, ...)")
	fs.StringVar(&patch.APIKey, "api-key", "", "API key for the provider")
	fs.StringVar(&patch.Model, "model", "", "default model name")
	fs.StringVar(&patch.BaseURL, "base-url", "", "API base URL override")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	if _, err := mgr.Update(patch); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "saved %s\n", mgr.Path())
	return nil
}
