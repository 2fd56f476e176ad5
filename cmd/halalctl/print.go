package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/emulator"
	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/ledger"
)

func formatTime(unix int64) string {
	if unix == 0 {
		return "-"
	}
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}

func render(w io.Writer, tw table.Writer) {
	fmt.Fprintln(w, tw.Render())
}

func printUser(w io.Writer, u *ledger.User) {
	tw := table.NewWriter()
	tw.AppendRows([]table.Row{
		{"Address", u.Address},
		{"Name", u.Name},
		{"Role", u.Role},
		{"Active", u.IsActive},
	})
	render(w, tw)
}

func printBatches(w io.Writer, batches ...ledger.Batch) {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Batch", "Animal", "Quantity", "Farmer", "Status", "Created"})
	for _, b := range batches {
		tw.AppendRow(table.Row{b.BatchID, b.AnimalType, b.Quantity, b.Farmer, b.Status, formatTime(b.CreatedAt)})
	}
	render(w, tw)
}

func printCertificates(w io.Writer, certs ...ledger.Certificate) {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Certificate", "Batch", "Slaughterhouse", "Status", "Certifier", "Comments", "Issued", "Decided"})
	for _, c := range certs {
		tw.AppendRow(table.Row{
			c.CertID, c.BatchID, c.Slaughterhouse, certStatus(c.Status), c.Certifier,
			text.WrapSoft(c.Comments, 40), formatTime(c.IssuedAt), formatTime(c.DecidedAt),
		})
	}
	render(w, tw)
}

func printHistory(w io.Writer, history []ledger.SupplyChainRecord) {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "Time", "Actor", "Action", "Location"})
	for i, r := range history {
		tw.AppendRow(table.Row{i + 1, formatTime(r.Timestamp), r.Actor, r.Action, r.Location})
	}
	render(w, tw)
}

func printVerification(w io.Writer, v *emulator.Verification) {
	verdict := text.FgRed.Sprint("NOT HALAL CERTIFIED")
	if v.HalalCertified {
		verdict = text.FgGreen.Sprint("HALAL CERTIFIED")
	}
	fmt.Fprintf(w, "Batch %d: %s\n", v.Batch.BatchID, verdict)
	printBatches(w, v.Batch)
	if v.Certificate != nil {
		printCertificates(w, *v.Certificate)
	}
	printHistory(w, v.History)
}

func certStatus(s ledger.CertStatus) string {
	switch s {
	case ledger.CertApproved:
		return text.FgGreen.Sprint(s)
	case ledger.CertRejected:
		return text.FgRed.Sprint(s)
	default:
		return text.FgYellow.Sprint(s)
	}
}
