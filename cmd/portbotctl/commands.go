package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/macports/portbot/internal/registry"
	"github.com/macports/portbot/internal/store"
)

type opener func(ctx context.Context, driver string) (store.KV, error)

type registryFunc func(ctx context.Context, cmd *cobra.Command, reg *registry.Registry, kv store.KV, args []string) error

// keyLister is implemented by stores that can enumerate keys.
type keyLister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

func newRootCmd(open opener) *cobra.Command {
	var driver string

	root := &cobra.Command{
		Use:           "portbotctl",
		Short:         "Manage portbot's profile store",
		Long:          "Reads and edits the nick profiles and herald state the IRC bot keeps.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&driver, "store", "", "store driver (sqlite|redis|postgres); defaults to STORE_DRIVER")

	// withRegistry opens the store for the duration of one command.
	withRegistry := func(fn registryFunc) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			kv, err := open(ctx, driver)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer kv.Close()
			return fn(ctx, cmd, registry.New(kv), kv, args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "remember <nick> <email|timezone|location> <value...>",
			Short: "Set a profile field",
			Args:  cobra.MinimumNArgs(3),
			RunE: withRegistry(func(ctx context.Context, cmd *cobra.Command, reg *registry.Registry, _ store.KV, args []string) error {
				value := strings.Join(args[2:], " ")
				if err := reg.SetField(ctx, args[0], args[1], value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", args[0], args[1], value)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "forget <nick> [field]",
			Short: "Clear one profile field, or all of them",
			Args:  cobra.RangeArgs(1, 2),
			RunE: withRegistry(func(ctx context.Context, cmd *cobra.Command, reg *registry.Registry, _ store.KV, args []string) error {
				if len(args) == 2 {
					return reg.ClearField(ctx, args[0], args[1])
				}
				return reg.ClearAll(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "show <nick>",
			Short: "Print a nick's profile and last herald time",
			Args:  cobra.ExactArgs(1),
			RunE: withRegistry(func(ctx context.Context, cmd *cobra.Command, reg *registry.Registry, _ store.KV, args []string) error {
				return showProfile(ctx, cmd, reg, args[0])
			}),
		},
		&cobra.Command{
			Use:       "herald [enable|disable]",
			Short:     "Show or switch heralding",
			Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
			ValidArgs: []string{"enable", "disable"},
			RunE: withRegistry(func(ctx context.Context, cmd *cobra.Command, reg *registry.Registry, _ store.KV, args []string) error {
				if len(args) == 1 {
					if err := reg.SetHeraldEnabled(ctx, args[0] == "enable"); err != nil {
						return err
					}
				}
				on, err := reg.HeraldEnabled(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "herald enabled: %t\n", on)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list [prefix]",
			Short: "List stored keys (sqlite only)",
			Args:  cobra.MaximumNArgs(1),
			RunE: withRegistry(func(ctx context.Context, cmd *cobra.Command, _ *registry.Registry, kv store.KV, args []string) error {
				l, ok := kv.(keyLister)
				if !ok {
					return errors.New("this store cannot list keys")
				}
				prefix := ""
				if len(args) == 1 {
					prefix = args[0]
				}
				keys, err := l.Keys(ctx, prefix)
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			}),
		},
	)
	root.AddCommand(profileCommands(withRegistry)...)
	return root
}

func showProfile(ctx context.Context, cmd *cobra.Command, reg *registry.Registry, nick string) error {
	known := false
	for _, f := range registry.Fields {
		v, ok, err := reg.GetField(ctx, nick, f)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		known = true
		fmt.Fprintf(cmd.OutOrStdout(), "%-9s %s\n", f, v)

		if f != registry.FieldEmail {
			continue
		}
		last, err := reg.LastNotified(ctx, v)
		if err != nil {
			return err
		}
		if last != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%-9s %s\n", "heralded", last.Format(time.RFC3339))
		}
	}
	if !known {
		fmt.Fprintf(cmd.OutOrStdout(), "nothing known about %s\n", nick)
	}
	return nil
}
