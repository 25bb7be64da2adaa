package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lachlan2k/hostsfile-webhook/hostsfile"
)

// systemHostsPath returns where the operating system keeps its hosts file.
func systemHostsPath() string {
	if runtime.GOOS == "windows" {
		root := os.Getenv("SystemRoot")
		if root == "" {
			root = `C:\Windows`
		}
		return filepath.Join(root, "System32", "drivers", "etc", "hosts")
	}
	return "/etc/hosts"
}

var (
	hostsFilePath string
	entryComment  string
)

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "Inspect or edit a hosts file directly",
	Long: `Inspect or edit a hosts file without running the webhook.

Edits only touch the entry or line they add or remove; the file is written
back only when something changed.`,
}

var hostsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadHosts(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, e := range doc.Entries() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.Address, e.HostName, e.Comment)
		}
		return w.Flush()
	},
}

var hostsLookupCmd = &cobra.Command{
	Use:   "lookup NAME",
	Short: "Print the address of a host name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadHosts(cmd.Context())
		if err != nil {
			return err
		}
		addr, ok, err := doc.Lookup(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no entry for %s", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), addr)
		return nil
	},
}

var hostsAddCmd = &cobra.Command{
	Use:   "add NAME ADDRESS",
	Short: "Append an entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := hostsfile.ParseAddress(args[1])
		if err != nil {
			return err
		}
		return editHosts(cmd.Context(), func(doc *hostsfile.Document) {
			if doc.Exists(args[0]) {
				log.Warnf("%s already has an entry, the first one wins on lookup", args[0])
			}
			doc.Append(args[0], addr, entryComment)
		})
	},
}

var hostsRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove the first entry of a host name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editHosts(cmd.Context(), func(doc *hostsfile.Document) {
			if !doc.Remove(args[0]) {
				log.Infof("No entry for %s, nothing removed", args[0])
			}
		})
	},
}

var hostsCommentCmd = &cobra.Command{
	Use:   "comment TEXT",
	Short: "Append a comment line",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editHosts(cmd.Context(), func(doc *hostsfile.Document) {
			doc.Comment(args[0])
		})
	},
}

var hostsNewLineCmd = &cobra.Command{
	Use:   "newline",
	Short: "Append an empty line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return editHosts(cmd.Context(), func(doc *hostsfile.Document) {
			doc.NewLine()
		})
	},
}

var hostsTokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Dump the lexer's view of the file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadHosts(cmd.Context())
		if err != nil {
			return err
		}
		return dumpTokens(cmd.OutOrStdout(), doc.Tokens())
	},
}

func init() {
	hostsCmd.PersistentFlags().StringVarP(&hostsFilePath, "file", "f", systemHostsPath(), "Hosts file to operate on")
	hostsAddCmd.Flags().StringVarP(&entryComment, "comment", "c", "", "Comment to write after the entry")

	hostsCmd.AddCommand(hostsListCmd, hostsLookupCmd, hostsAddCmd, hostsRemoveCmd, hostsCommentCmd, hostsNewLineCmd, hostsTokensCmd)
}

func dumpTokens(w io.Writer, tokens []hostsfile.Token) error {
	for i, tok := range tokens {
		if _, err := fmt.Fprintf(w, "%4d %s\n", i, tok); err != nil {
			return err
		}
	}
	return nil
}

func hostsPersister() *OnDiskHostsfilePersister {
	return &OnDiskHostsfilePersister{path: hostsFilePath}
}

func loadHosts(ctx context.Context) (*hostsfile.Document, error) {
	contents, err := hostsPersister().Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", hostsFilePath, err)
	}
	return hostsfile.Load(contents), nil
}

// editHosts loads the hosts file, applies edit and writes the result back
// when the document changed.
func editHosts(ctx context.Context, edit func(doc *hostsfile.Document)) error {
	doc, err := loadHosts(ctx)
	if err != nil {
		return err
	}
	edit(doc)
	if !doc.IsModified() {
		return nil
	}
	if err := hostsPersister().Write(ctx, doc.String()); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("writing %s needs elevated privileges: %w", hostsFilePath, err)
		}
		return fmt.Errorf("failed to write %s: %w", hostsFilePath, err)
	}
	return nil
}
