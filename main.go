package main

import (
	"fmt"
	"os"

	"teketeke/mpesa-sms/cmd/batch"
	"teketeke/mpesa-sms/cmd/categorize"
	"teketeke/mpesa-sms/cmd/parse"
	"teketeke/mpesa-sms/cmd/root"
	"teketeke/mpesa-sms/cmd/serve"
	"teketeke/mpesa-sms/internal/config"
)

func init() {
	// 1. Load .env before viper reads the environment
	config.LoadEnv()

	// 2. Initialize root command flags
	root.Init()

	// 3. Add all subcommands
	root.Cmd.AddCommand(parse.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(batch.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
