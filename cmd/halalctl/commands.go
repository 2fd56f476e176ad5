package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/ledger"
)

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: must be an unsigned integer", s)
	}
	return id, nil
}

func newInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [admin]",
		Short: "Initialise the ledger with its admin",
		Long: `Initialise the ledger. The admin is the argument, the configured admin
(HALAL_ADMIN) or the --as address, in that order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin := a.cfg.Admin
			if len(args) == 1 {
				admin = args[0]
			}
			if admin == "" {
				var err error
				if admin, err = a.caller(); err != nil {
					return err
				}
			}
			emu, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			if err := emu.Init(cmd.Context(), admin); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ledger initialised, admin %s\n", admin)
			return nil
		},
	}
}

func newUserCommand(a *app) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Register, deactivate and inspect participants",
	}

	registerCmd := &cobra.Command{
		Use:   "register <address> <name> <role>",
		Short: "Register a participant (admin only)",
		Long: `Register a participant. Roles: farmer, slaughterhouse, processor,
distributor, retailer, certifier (or jakim) and consumer.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			role, err := ledger.ParseRole(args[2])
			if err != nil {
				return err
			}
			emu, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			if err := emu.RegisterUser(cmd.Context(), caller, args[0], args[1], role); err != nil {
				return err
			}
			u, err := emu.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printUser(cmd.OutOrStdout(), u)
			return nil
		},
	}

	deactivateCmd := &cobra.Command{
		Use:   "deactivate <address>",
		Short: "Deactivate a participant (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			emu, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			if err := emu.DeactivateUser(cmd.Context(), caller, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s deactivated\n", args[0])
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <address>",
		Short: "Show a participant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			emu, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			u, err := emu.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printUser(cmd.OutOrStdout(), u)
			return nil
		},
	}

	userCmd.AddCommand(registerCmd, deactivateCmd, showCmd)
	return userCmd
}

func newBatchCommand(a *app) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Create, advance and inspect batches",
	}

	createCmd := &cobra.Command{
		Use:   "create <animalType> <quantity>",
		Short: "Create a batch (farmer only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			quantity, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			emu, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			id, err := emu.CreateBatch(cmd.Context(), caller, args[0], quantity)
			if err != nil {
				return err
			}
			b, err := emu.GetBatch(cmd.Context(), id)
			if err != nil {
				return err
			}
			printBatches(cmd.OutOrStdout(), *b)
			return nil
		},
	}

	var location string
	advanceCmd := &cobra.Command{
		Use:   "advance <batchId> <status>",
		Short: "Move a batch to its next stage",
		Long: `Move a batch to its next stage. Stages in order: slaughtered, processed,
in-transit, at-retailer, sold. Each stage is recorded by its role; processing
needs an approved halal certificate.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := ledger.ParseBatchStatus(args[1])
			if err != nil {
				return err
			}
			emu, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			if err := emu.UpdateBatchStatus(cmd.Context(), caller, id, status, location); err != nil {
				return err
			}
			b, err := emu.GetBatch(cmd.Context(), id)
			if err != nil {
				return err
			}
			printBatches(cmd.OutOrStdout(), *b)
			return nil
		},
	}
	advanceCmd.Flags().StringVarP(&location, "location", "L", "", "where the step took place")

	showCmd := &cobra.Command{
		Use:   "show <batchId>",
		Short: "Show a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			emu, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			b, err := emu.GetBatch(cmd.Context(), id)
			if err != nil {
				return err
			}
			printBatches(cmd.OutOrStdout(), *b)
			return nil
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history <batchId>",
		Short: "Show the supply chain history of a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			emu, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			history, err := emu.History(cmd.Context(), id)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), history)
			return nil
		},
	}

	var farmer string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the batches of a farmer (default: --as)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if farmer == "" {
				var err error
				if farmer, err = a.caller(); err != nil {
					return err
				}
			}
			emu, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			batches, err := emu.BatchesByFarmer(cmd.Context(), farmer)
			if err != nil {
				return err
			}
			printBatches(cmd.OutOrStdout(), batches...)
			return nil
		},
	}
	listCmd.Flags().StringVar(&farmer, "farmer", "", "farmer address")

	batchCmd.AddCommand(createCmd, advanceCmd, showCmd, historyCmd, listCmd)
	return batchCmd
}

func newCertCommand(a *app) *cobra.Command {
	certCmd := &cobra.Command{
		Use:   "cert",
		Short: "Request, decide and inspect halal certificates",
	}

	requestCmd := &cobra.Command{
		Use:   "request <batchId>",
		Short: "Request halal certification for a slaughtered batch (slaughterhouse only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := a.caller()
			if err != nil {
				return err
			}
			batchID, err := parseID(args[0])
			if err != nil {
				return err
			}
			emu, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			certID, err := emu.RequestHalalCertification(cmd.Context(), caller, batchID)
			if err != nil {
				return err
			}
			return printCertificate(cmd, a, certID)
		},
	}

	var comments string
	approveCmd := &cobra.Command{
		Use:   "approve <certId>",
		Short: "Approve a pending certificate (certifier only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return decide(cmd, a, args[0], func(caller string, certID uint64) error {
				return a.emu.ApproveCertificate(cmd.Context(), caller, certID, comments)
			})
		},
	}
	approveCmd.Flags().StringVar(&comments, "comments", "", "remarks recorded with the approval")

	var reason string
	rejectCmd := &cobra.Command{
		Use:   "reject <certId>",
		Short: "Reject a pending certificate (certifier only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return decide(cmd, a, args[0], func(caller string, certID uint64) error {
				return a.emu.RejectCertificate(cmd.Context(), caller, certID, reason)
			})
		},
	}
	rejectCmd.Flags().StringVar(&reason, "reason", "", "why the certificate is rejected")

	showCmd := &cobra.Command{
		Use:   "show <certId>",
		Short: "Show a certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			certID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.ledger(cmd.Context()); err != nil {
				return err
			}
			return printCertificate(cmd, a, certID)
		},
	}

	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "List certificates awaiting a decision",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			emu, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			certs, err := emu.PendingCertificates(cmd.Context())
			if err != nil {
				return err
			}
			printCertificates(cmd.OutOrStdout(), certs...)
			return nil
		},
	}

	certCmd.AddCommand(requestCmd, approveCmd, rejectCmd, showCmd, pendingCmd)
	return certCmd
}

func decide(cmd *cobra.Command, a *app, arg string, apply func(caller string, certID uint64) error) error {
	caller, err := a.caller()
	if err != nil {
		return err
	}
	certID, err := parseID(arg)
	if err != nil {
		return err
	}
	if _, err := a.ledger(cmd.Context()); err != nil {
		return err
	}
	if err := apply(caller, certID); err != nil {
		return err
	}
	return printCertificate(cmd, a, certID)
}

func printCertificate(cmd *cobra.Command, a *app, certID uint64) error {
	c, err := a.emu.GetCertificate(cmd.Context(), certID)
	if err != nil {
		return err
	}
	printCertificates(cmd.OutOrStdout(), *c)
	return nil
}

func newVerifyCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <batchId>",
		Short: "Show whether a batch is halal certified, with its full history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			emu, err := a.ledger(cmd.Context())
			if err != nil {
				return err
			}
			v, err := emu.Verify(cmd.Context(), id)
			if err != nil {
				return err
			}
			printVerification(cmd.OutOrStdout(), v)
			return nil
		},
	}
}
