// Package main provides the ontoguardctl binary, a command-line client
// for evaluating authorization decisions against a rule fact document
// without running the HTTP service.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vpakspace/ontoguard-ai/internal/engine"
	"github.com/vpakspace/ontoguard-ai/internal/loader"
	"github.com/vpakspace/ontoguard-ai/pkg/authz"
)

const version = "1.0.0"

// exit codes: 0 allowed / ok, 1 denied, 2 usage or input error
const (
	exitAllowed = 0
	exitDenied  = 1
	exitError   = 2
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
}

func rootCmd() *cobra.Command {
	var factsPath string

	cmd := &cobra.Command{
		Use:   "ontoguardctl",
		Short: "Evaluate authorization decisions from the command line",
		Long: `ontoguardctl compiles a rule fact document (.json or .yaml) and
evaluates authorization requests against it locally.

Denied decisions exit with status 1 so the tool composes with shell
scripts and CI checks.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&factsPath, "facts", "f", "", "Path to the rule fact document (required)")

	cmd.AddCommand(validateCmd(&factsPath))
	cmd.AddCommand(suggestCmd(&factsPath))
	cmd.AddCommand(checkCmd(&factsPath))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ontoguardctl version %s\n", version)
		},
	})

	return cmd
}

func validateCmd(factsPath *string) *cobra.Command {
	var (
		role     string
		action   string
		entity   string
		entityID string
		attrs    []string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Decide whether a role may perform an action on an entity",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := compileFacts(*factsPath)
			if err != nil {
				return err
			}

			attributes, err := parseAttributes(attrs)
			if err != nil {
				return err
			}

			req := &authz.ValidationRequest{
				Action:     action,
				EntityType: entity,
				EntityID:   entityID,
				Role:       role,
				Attributes: attributes,
			}

			result := engine.DecideWithLimit(req, idx, limit)
			printJSON(result)

			if !result.Allowed {
				os.Exit(exitDenied)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Requesting role (required)")
	cmd.Flags().StringVar(&action, "action", "", "Proposed action (required)")
	cmd.Flags().StringVar(&entity, "entity", "", "Target entity type (required)")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "Target entity instance")
	cmd.Flags().StringArrayVar(&attrs, "attr", nil, "Request attribute as key=value, repeatable (e.g. --attr isOwner=true --attr amount=250)")
	cmd.Flags().IntVar(&limit, "limit", authz.DefaultSuggestionLimit, "Maximum suggested alternatives on denial")

	return cmd
}

func suggestCmd(factsPath *string) *cobra.Command {
	var (
		role   string
		action string
		entity string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "List permitted alternatives for a role near a target action",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := compileFacts(*factsPath)
			if err != nil {
				return err
			}

			req := &authz.ValidationRequest{
				Action:     action,
				EntityType: entity,
				Role:       role,
			}

			suggestions := engine.SuggestWithLimit(req, idx, limit)
			if suggestions == nil {
				suggestions = []authz.SuggestedAction{}
			}
			printJSON(suggestions)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Requesting role (required)")
	cmd.Flags().StringVar(&action, "action", "", "Action the role was denied (required)")
	cmd.Flags().StringVar(&entity, "entity", "", "Target entity type (required)")
	cmd.Flags().IntVar(&limit, "limit", authz.DefaultSuggestionLimit, "Maximum suggestions returned")

	return cmd
}

func checkCmd(factsPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compile the fact document and report errors without deciding anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := compileFacts(*factsPath)
			if err != nil {
				return err
			}
			fmt.Printf("OK: %d rules compiled\n", idx.RuleCount())
			return nil
		},
	}
}

func compileFacts(path string) (*engine.CompiledIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("--facts is required")
	}

	doc, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}

	idx, err := engine.Compile(doc.Facts, doc.Aliases, engine.NewRegistry())
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// parseAttributes converts repeated key=value flags into request
// attributes, coercing values that read as booleans or numbers
func parseAttributes(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	attrs := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid attribute %q, expected key=value", pair)
		}

		switch {
		case value == "true" || value == "false":
			attrs[key] = value == "true"
		default:
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				attrs[key] = f
			} else {
				attrs[key] = value
			}
		}
	}
	return attrs, nil
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}
	fmt.Println(string(out))
}
