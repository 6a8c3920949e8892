// Command ipdis is the IPDIS administrative CLI: register or remove a
// guarantee delegation, and purge a namespace's word/dyn-path history.
// Shaped after the teacher repo's cmd/synnergy main, which builds one
// cobra root command per noun and a verb subcommand under each.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ipdis-project/ipdis/internal/config"
	"github.com/ipdis-project/ipdis/internal/keystore"
	"github.com/ipdis-project/ipdis/internal/store"
	"github.com/ipdis-project/ipdis/internal/transport"
	"github.com/ipdis-project/ipdis/pkg/client"
	"github.com/ipdis-project/ipdis/pkg/hashutil"
)

func main() {
	root := &cobra.Command{Use: "ipdis"}
	root.AddCommand(addGuaranteeCmd())
	root.AddCommand(deleteGuaranteeCmd())
	root.AddCommand(purgeWordsCmd())
	root.AddCommand(purgeDynPathsCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "ipdis:", err)
		os.Exit(1)
	}
	return cfg
}

func openStore(ctx context.Context, cfg *config.Config) *store.Store {
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ipdis:", err)
		os.Exit(1)
	}
	return st
}

// addGuaranteeCmd registers the CLI's own local signing identity as a
// guarantee delegated to --guarantor, over the wire GuaranteePut
// operation, mirroring what any client would do to onboard itself.
func addGuaranteeCmd() *cobra.Command {
	var guarantorStr, addr string
	cmd := &cobra.Command{
		Use:   "add-guarantee",
		Short: "register this identity as a guarantee delegated to --guarantor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			signer, err := keystore.LoadOrGenerate(cfg.KeystorePath, cfg.KeystorePassphrase)
			if err != nil {
				return err
			}
			guarantor, err := hashutil.DecodeAccount(guarantorStr)
			if err != nil {
				return fmt.Errorf("ipdis: parse --guarantor: %w", err)
			}

			tp := transport.NewTCPTransport(signer.Account(), 10*time.Second, 30*time.Second)
			pool := transport.NewPool(tp, cfg.MaxIdleConnsPerPeer, cfg.IdleConnTTL)
			defer pool.Close()

			c := client.New(signer, pool, nil)
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if _, err := c.PutGuarantee(ctx, addr, guarantor); err != nil {
				return err
			}
			fmt.Printf("registered %s as a guarantee of %s\n", hashutil.EncodeAccount(signer.Account()), guarantorStr)
			return nil
		},
	}
	cmd.Flags().StringVar(&guarantorStr, "guarantor", "", "guarantor account (base58)")
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:9081", "guarantor server address")
	_ = cmd.MarkFlagRequired("guarantor")
	return cmd
}

// deleteGuaranteeCmd removes every delegation row from --guarantee to
// --guarantor directly from storage (spec
// §4.6): an administrative operation, never exposed over the RPC surface.
func deleteGuaranteeCmd() *cobra.Command {
	var guaranteeStr, guarantorStr string
	cmd := &cobra.Command{
		Use:   "delete-guarantee",
		Short: "remove a guarantee's delegation to a guarantor",
		RunE: func(cmd *cobra.Command, args []string) error {
			guarantee, err := hashutil.DecodeAccount(guaranteeStr)
			if err != nil {
				return fmt.Errorf("ipdis: parse --guarantee: %w", err)
			}
			guarantor, err := hashutil.DecodeAccount(guarantorStr)
			if err != nil {
				return fmt.Errorf("ipdis: parse --guarantor: %w", err)
			}

			ctx := context.Background()
			cfg := loadConfig()
			st := openStore(ctx, cfg)
			defer st.Close()

			if err := st.DeleteGuaranteeUnchecked(ctx, guarantee, guarantor); err != nil {
				return err
			}
			fmt.Printf("removed delegation %s -> %s\n", guaranteeStr, guarantorStr)
			return nil
		},
	}
	cmd.Flags().StringVar(&guaranteeStr, "guarantee", "", "guarantee account (base58)")
	cmd.Flags().StringVar(&guarantorStr, "guarantor", "", "guarantor account (base58)")
	_ = cmd.MarkFlagRequired("guarantee")
	_ = cmd.MarkFlagRequired("guarantor")
	return cmd
}

// purgeWordsCmd deletes every word occurrence (and the namespace's counter
// rows) under --namespace for --guarantor.
func purgeWordsCmd() *cobra.Command {
	var guarantorStr, namespace string
	cmd := &cobra.Command{
		Use:   "purge-words",
		Short: "delete every word occurrence under a namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			guarantor, err := hashutil.DecodeAccount(guarantorStr)
			if err != nil {
				return fmt.Errorf("ipdis: parse --guarantor: %w", err)
			}

			ctx := context.Background()
			cfg := loadConfig()
			st := openStore(ctx, cfg)
			defer st.Close()

			if err := st.DeleteWordAllUnchecked(ctx, guarantor, hashutil.SumString(namespace)); err != nil {
				return err
			}
			fmt.Printf("purged words under namespace %q for guarantor %s\n", namespace, guarantorStr)
			return nil
		},
	}
	cmd.Flags().StringVar(&guarantorStr, "guarantor", "", "guarantor account (base58)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "namespace literal")
	_ = cmd.MarkFlagRequired("guarantor")
	_ = cmd.MarkFlagRequired("namespace")
	return cmd
}

// purgeDynPathsCmd deletes every dyn_paths binding under --namespace for
// --guarantor.
func purgeDynPathsCmd() *cobra.Command {
	var guarantorStr, namespace string
	cmd := &cobra.Command{
		Use:   "purge-dyn-paths",
		Short: "delete every dynamic path binding under a namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			guarantor, err := hashutil.DecodeAccount(guarantorStr)
			if err != nil {
				return fmt.Errorf("ipdis: parse --guarantor: %w", err)
			}

			ctx := context.Background()
			cfg := loadConfig()
			st := openStore(ctx, cfg)
			defer st.Close()

			if err := st.DeleteDynPathAllUnchecked(ctx, guarantor, hashutil.SumString(namespace)); err != nil {
				return err
			}
			fmt.Printf("purged dyn_paths under namespace %q for guarantor %s\n", namespace, guarantorStr)
			return nil
		},
	}
	cmd.Flags().StringVar(&guarantorStr, "guarantor", "", "guarantor account (base58)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "namespace literal")
	_ = cmd.MarkFlagRequired("guarantor")
	_ = cmd.MarkFlagRequired("namespace")
	return cmd
}
