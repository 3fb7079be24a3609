package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/serranog/altair/internal/logger"
)

var (
	providerFlag string
	modelFlag    string
	profileFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "altair",
	Short: "Altair - Tool-augmented airline assistant",
	Long: `Altair is a tool-augmented AI assistant platform built around the FlightAI
customer-service demo.

It connects to OpenAI, Ollama, or any OpenAI-compatible endpoint, and lets the
model look up fares, book tickets, and search the web through registered tools.`,
}

func init() {
	cobra.OnInitialize(logger.Init)

	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "LLM provider (openai, ollama, ...)")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "Model to use (overrides config)")
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "Assistant profile to use (e.g. flightai, tutor)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
