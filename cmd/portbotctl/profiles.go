package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/macports/portbot/internal/registry"
	"github.com/macports/portbot/internal/store"
)

// profile is one nick's entry in a YAML profile file.
type profile struct {
	Email    string `yaml:"email,omitempty"`
	Timezone string `yaml:"timezone,omitempty"`
	Location string `yaml:"location,omitempty"`
}

func (p profile) fields() map[string]string {
	return map[string]string{
		registry.FieldEmail:    p.Email,
		registry.FieldTimezone: p.Timezone,
		registry.FieldLocation: p.Location,
	}
}

// importProfiles writes every non-empty field in the file; existing
// values are overwritten and fields missing from the file are kept.
func importProfiles(ctx context.Context, reg *registry.Registry, r io.Reader) (int, error) {
	var profiles map[string]profile
	if err := yaml.NewDecoder(r).Decode(&profiles); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("decode profiles: %w", err)
	}
	n := 0
	for nick, p := range profiles {
		for field, v := range p.fields() {
			if v == "" {
				continue
			}
			if err := reg.SetField(ctx, nick, field, v); err != nil {
				return n, fmt.Errorf("%s %s: %w", nick, field, err)
			}
		}
		n++
	}
	return n, nil
}

// exportProfiles collects every stored profile.
func exportProfiles(ctx context.Context, reg *registry.Registry, l keyLister) (map[string]profile, error) {
	nicks := map[string]struct{}{}
	for _, f := range registry.Fields {
		keys, err := l.Keys(ctx, f+"_")
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			nicks[strings.TrimPrefix(k, f+"_")] = struct{}{}
		}
	}

	names := make([]string, 0, len(nicks))
	for n := range nicks {
		names = append(names, n)
	}
	sort.Strings(names)

	res := make(map[string]profile, len(names))
	for _, nick := range names {
		var p profile
		for _, f := range registry.Fields {
			v, _, err := reg.GetField(ctx, nick, f)
			if err != nil {
				return nil, err
			}
			switch f {
			case registry.FieldEmail:
				p.Email = v
			case registry.FieldTimezone:
				p.Timezone = v
			case registry.FieldLocation:
				p.Location = v
			}
		}
		res[nick] = p
	}
	return res, nil
}

func profileCommands(withRegistry func(fn registryFunc) func(*cobra.Command, []string) error) []*cobra.Command {
	return []*cobra.Command{
		{
			Use:   "import <file.yaml>",
			Short: "Load profiles from a YAML file (\"-\" for stdin)",
			Args:  cobra.ExactArgs(1),
			RunE: withRegistry(func(ctx context.Context, cmd *cobra.Command, reg *registry.Registry, _ store.KV, args []string) error {
				var r io.Reader = cmd.InOrStdin()
				if args[0] != "-" {
					f, err := os.Open(args[0])
					if err != nil {
						return err
					}
					defer f.Close()
					r = f
				}
				n, err := importProfiles(ctx, reg, r)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d profiles\n", n)
				return nil
			}),
		},
		{
			Use:   "export",
			Short: "Write all profiles as YAML to stdout (sqlite only)",
			Args:  cobra.NoArgs,
			RunE: withRegistry(func(ctx context.Context, cmd *cobra.Command, reg *registry.Registry, kv store.KV, _ []string) error {
				l, ok := kv.(keyLister)
				if !ok {
					return errors.New("this store cannot list keys")
				}
				profiles, err := exportProfiles(ctx, reg, l)
				if err != nil {
					return err
				}
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(profiles); err != nil {
					return err
				}
				return enc.Close()
			}),
		},
	}
}
