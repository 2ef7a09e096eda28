package main

import (
	"context"
	"fmt"
	"os"

	"github.com/openpayments/isotools"
	"github.com/openpayments/isotools/cmd/isotools/commands"
	"github.com/openpayments/isotools/internal/mcpserver"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version", "-v", "--version":
		fmt.Printf("isotools v%s\n", isotools.Version())
	case "help", "-h", "--help":
		printUsage()
	case "unify":
		if err := commands.HandleUnify(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "assemble":
		if err := commands.HandleAssemble(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "envelope":
		if err := commands.HandleEnvelope(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "run":
		if err := commands.HandleRun(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		if err := mcpserver.Run(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if suggestion := suggestCommand(command); suggestion != "" {
			fmt.Fprintf(os.Stderr, "Did you mean: %s?\n", suggestion)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		os.Exit(1)
	}
}

var knownCommands = []string{"unify", "assemble", "envelope", "run", "mcp", "version", "help"}

// suggestCommand returns the known command closest to input, or "" when
// nothing is within edit distance 2.
func suggestCommand(input string) string {
	best := ""
	bestDist := 3
	for _, cmd := range knownCommands {
		if d := editDistance(input, cmd); d < bestDist {
			best = cmd
			bestDist = d
		}
	}
	return best
}

// editDistance computes the Levenshtein distance between two strings.
func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func printUsage() {
	fmt.Println(`isotools - ISO 20022 message module unification tools

Usage:
  isotools <command> [options]

Commands:
  unify       Report structurally duplicated type definitions in a generated tree
  assemble    Report the namespace hierarchy and per-directory manifests
  envelope    Report per-family document variants and discriminant collisions
  run         Unify a tree: merge duplicates, emit manifests and envelopes
  mcp         Start the MCP server over stdio
  version     Show version information
  help        Show this help message

Examples:
  isotools unify ./messages
  isotools run -o ./unified ./messages
  isotools run --placement hoisted --family incoming=pacs,head ./messages
  isotools envelope --format yaml ./messages

Run 'isotools <command> --help' for more information on a command.`)
}
