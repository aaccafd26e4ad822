// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Central Command Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/unitystation/centralcommand/internal/identifier"
)

// NewValidateIdentifierCmd creates the validate-identifier subcommand.
func NewValidateIdentifierCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "validate-identifier IDENTIFIER...",
		Short: "Check account identifiers",
		Long: `Check each IDENTIFIER against the account identifier rules: at least
three characters, all of them ASCII letters, digits, '-', '_' or '.'.
The exit status is 1 when any identifier is rejected.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := identifier.NewAccountName(identifier.WithMessage(message))
			return runValidateIdentifiers(cmd, v, args)
		},
	}
	cmd.Flags().StringVar(&message, "message", "", "rejection message to report")
	return cmd
}

func runValidateIdentifiers(cmd *cobra.Command, v identifier.Validator, idents []string) error {
	rejected := 0
	for _, ident := range idents {
		outcome := v.Validate(ident)
		if outcome.OK() {
			cmd.Printf("ok\t%q\n", ident)
			continue
		}
		rejected++
		cmd.Printf("rejected\t%q\t%s\n", ident, outcome.Reason)
	}
	if rejected > 0 {
		return oops.Code("IDENTIFIER_REJECTED").
			With("rejected", rejected).
			Errorf("%d of %d identifiers rejected", rejected, len(idents))
	}
	return nil
}
