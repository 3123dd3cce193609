package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/berfenger/sunspec2mqtt/pkg/sunspec"
	"github.com/berfenger/sunspec2mqtt/pkg/sunspec_modbus"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var planCmd = &cobra.Command{
	Use:   "plan [table...]",
	Short: "Print the bundle read plan of register tables",
	Long:  "Print how the registers of each table are grouped into block reads. Without arguments every table is printed.",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		tables, err := tablesByName(args)
		if err != nil {
			return err
		}
		return writeYAML(cmd.OutOrStdout(), planOutput(tables, !all))
	},
}

var readCmd = &cobra.Command{
	Use:   "read <table>",
	Short: "Read and decode one register table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		offset, _ := cmd.Flags().GetUint16("offset")
		table, ok := sunspec.TableByName(args[0])
		if !ok {
			return fmt.Errorf("unknown table %q", args[0])
		}

		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		payload, err := readTable(client, table, !all, offset)
		if err != nil {
			return err
		}
		return writeYAML(cmd.OutOrStdout(), readOutput{
			Table:     table.Name(),
			Offset:    offset,
			Registers: payloadOutput(payload),
		})
	},
}

var writeCmd = &cobra.Command{
	Use:   "write <table> <register> <value>",
	Short: "Encode and write one register",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, _ := cmd.Flags().GetUint16("offset")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		table, ok := sunspec.TableByName(args[0])
		if !ok {
			return fmt.Errorf("unknown table %q", args[0])
		}
		r, ok := table.Register(args[1])
		if !ok {
			return fmt.Errorf("table %s has no register %q", table.Name(), args[1])
		}
		value, err := parseValue(r, args[2])
		if err != nil {
			return err
		}
		words, err := r.Encode(value)
		if err != nil {
			return err
		}
		out := writeOutput{
			Table:    table.Name(),
			Register: r.ID(),
			Address:  r.Address() + offset,
			Words:    words,
		}
		if dryRun {
			return writeYAML(cmd.OutOrStdout(), out)
		}

		client, err := openClient()
		if err != nil {
			return err
		}
		defer client.Close()

		device := sunspec_modbus.NewDevice(client, sunspec_modbus.AllDevices(), logger)
		if err := device.WriteRegister(table, r.ID(), value, offset); err != nil {
			return err
		}
		logger.Info("register written", zap.String("register", r.ID()), zap.Uint16("address", out.Address))
		return writeYAML(cmd.OutOrStdout(), out)
	},
}

func init() {
	planCmd.Flags().Bool("all", false, "include optional registers")
	readCmd.Flags().Bool("all", false, "include optional registers")
	readCmd.Flags().Uint16("offset", 0, "address offset of a sub-device (meter or battery)")
	writeCmd.Flags().Uint16("offset", 0, "address offset of a sub-device (meter or battery)")
	writeCmd.Flags().Bool("dry-run", false, "only print the encoded words")
}

type registerOutput struct {
	ID       string `yaml:"id"`
	Address  uint16 `yaml:"address"`
	Type     string `yaml:"type"`
	Length   uint16 `yaml:"length"`
	Required bool   `yaml:"required"`
}

type bundleOutput struct {
	Address   uint16           `yaml:"address"`
	Span      uint16           `yaml:"span"`
	Registers []registerOutput `yaml:"registers"`
}

type tableOutput struct {
	Table     string         `yaml:"table"`
	WordOrder string         `yaml:"word_order"`
	Bundles   []bundleOutput `yaml:"bundles"`
}

type readOutput struct {
	Table     string         `yaml:"table"`
	Offset    uint16         `yaml:"offset,omitempty"`
	Registers map[string]any `yaml:"registers"`
}

type writeOutput struct {
	Table    string   `yaml:"table"`
	Register string   `yaml:"register"`
	Address  uint16   `yaml:"address"`
	Words    []uint16 `yaml:"words,flow"`
}

func tablesByName(names []string) ([]*sunspec.Table, error) {
	if len(names) == 0 {
		return sunspec.Tables(), nil
	}
	tables := make([]*sunspec.Table, 0, len(names))
	for _, name := range names {
		t, ok := sunspec.TableByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown table %q", name)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func planOutput(tables []*sunspec.Table, requiredOnly bool) []tableOutput {
	out := make([]tableOutput, 0, len(tables))
	for _, t := range tables {
		to := tableOutput{Table: t.Name(), WordOrder: t.WordOrder().String()}
		for _, b := range t.Bundles(requiredOnly) {
			bo := bundleOutput{Address: b.Address(), Span: b.Span()}
			for _, r := range b.Registers() {
				bo.Registers = append(bo.Registers, registerOutput{
					ID:       r.ID(),
					Address:  r.Address(),
					Type:     r.Type().String(),
					Length:   r.Length(),
					Required: r.Required(),
				})
			}
			to.Bundles = append(to.Bundles, bo)
		}
		out = append(out, to)
	}
	return out
}

func readTable(transport sunspec_modbus.RegisterTransport, table *sunspec.Table, requiredOnly bool, offset uint16) (sunspec.Payload, error) {
	reads := map[uint16][]uint16{}
	for _, b := range table.Bundles(requiredOnly) {
		raw, err := transport.ReadRegisters(b.Address()+offset, b.Span())
		if err != nil {
			return nil, fmt.Errorf("read %s at %d: %w", table.Name(), b.Address()+offset, err)
		}
		reads[b.Address()] = raw
	}
	return table.Decode(requiredOnly, reads)
}

func payloadOutput(p sunspec.Payload) map[string]any {
	out := make(map[string]any, len(p))
	for id, v := range p {
		switch x := v.(type) {
		case sunspec.Bool:
			out[id] = bool(x)
		case sunspec.Int:
			out[id] = int64(x)
		case sunspec.Uint:
			out[id] = uint64(x)
		case sunspec.Float:
			out[id] = float64(x)
		case sunspec.Text:
			out[id] = string(x)
		}
	}
	return out
}

// parseValue converts a command line argument to a value of the register's
// kind. Integer registers also accept true and false.
func parseValue(r *sunspec.Register, s string) (sunspec.Value, error) {
	switch r.Type().Kind() {
	case sunspec.KindText:
		return sunspec.Text(s), nil
	case sunspec.KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.ID(), err)
		}
		return sunspec.Float(f), nil
	}
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return sunspec.Bool(b), nil
	}
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		return sunspec.Int(n), nil
	}
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.ID(), err)
	}
	return sunspec.Uint(n), nil
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
