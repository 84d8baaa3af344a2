package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdfgrid/pdfgrid/pdf"
)

var lookupList bool // Print every index entry

// lookup writes the mapping for ref: a global id resolves to "set/member",
// anything else is parsed as "set[/member]" and resolves to its global id.
func lookup(w io.Writer, idx *pdf.Index, ref string) error {
	if id, err := strconv.Atoi(ref); err == nil {
		set, member := idx.LookupPDF(id)
		if member < 0 {
			return &pdf.UserError{Input: ref, Msg: "no indexed set covers id"}
		}
		_, err := fmt.Fprintf(w, "%s/%d\n", set, member)
		return err
	}
	set, member, err := pdf.ParsePDFString(ref)
	if err != nil {
		return err
	}
	id := idx.LookupLHAPDFID(set, member)
	if id < 0 {
		return &pdf.UserError{Input: set, Msg: "set not in index"}
	}
	_, err = fmt.Fprintf(w, "%d\n", id)
	return err
}

func listIndex(w io.Writer, idx *pdf.Index) error {
	for _, e := range idx.Entries() {
		if _, err := fmt.Fprintf(w, "%d\t%s\n", e.ID, e.Name); err != nil {
			return err
		}
	}
	return nil
}

// lookupCmd translates between global ids and set/member pairs
var lookupCmd = &cobra.Command{
	Use:   "lookup [ID | SET[/MEMBER]]",
	Short: "Translate between global PDF ids and set/member names",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := current.env.Index(cmd.Context())
		if err != nil {
			return err
		}
		if lookupList {
			return listIndex(cmd.OutOrStdout(), idx)
		}
		if len(args) == 0 {
			return fmt.Errorf("lookup needs an id or set name, or --list")
		}
		return lookup(cmd.OutOrStdout(), idx, args[0])
	},
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupList, "list", false, "Print every entry of the merged index")
	rootCmd.AddCommand(lookupCmd)
}
