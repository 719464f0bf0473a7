// Command ndls inspects ndstore container files.
package main

import (
	"fmt"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/ndkit/ndstore/ndstore"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type entry struct {
	Path       string   `json:"path"`
	Dtype      string   `json:"dtype,omitempty"`
	Shape      []uint64 `json:"shape,omitempty"`
	Size       uint64   `json:"size"`
	Extensible bool     `json:"extensible"`
	Error      string   `json:"error,omitempty"`
}

func main() {
	root := &cobra.Command{
		Use:           "ndls",
		Short:         "inspect ndstore container files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(lsCmd(), dumpCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ndls:", err)
		os.Exit(1)
	}
}

func lsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ls <file>",
		Short: "list every dataset in a container file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ndstore.Open(args[0], ndstore.ReadOnly)
			if err != nil {
				return err
			}
			defer f.Close()

			var entries []entry
			err = f.Walk("/", func(path string, ds *ndstore.Dataset, err error) error {
				switch {
				case err != nil:
					entries = append(entries, entry{Path: path, Error: err.Error()})
				case ds != nil:
					entries = append(entries, entry{
						Path:       path,
						Dtype:      ds.Dtype().String(),
						Shape:      ds.Shape(),
						Size:       ds.Size(),
						Extensible: ds.Extensible(),
					})
				}
				return nil
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			for _, e := range entries {
				if e.Error != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t[%s]\n", e.Path, e.Error)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tx%d\n", e.Path, e.Dtype, e.Size)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON")
	return cmd
}

func dumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <file> <path>",
		Short: "print the contents of one dataset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ndstore.Open(args[0], ndstore.ReadOnly)
			if err != nil {
				return err
			}
			defer f.Close()

			ds, err := f.OpenDataset(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s, %d object(s)\n", ds.Path(), ds.Dtype(), ds.Size())
			for i := uint64(0); i < ds.Size(); i++ {
				a, err := ds.ReadArray(i)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  [%d] %s\n", i, formatArray(a))
			}
			return nil
		},
	}
	return cmd
}

// formatArray renders the element values of a flat row-major array.
func formatArray(a *ndstore.Array) string {
	var vals []string
	switch a.Dtype.Kind {
	case ndstore.KindFloat64:
		for _, v := range mustSlice[float64](a) {
			vals = append(vals, fmt.Sprintf("%g", v))
		}
	case ndstore.KindFloat32:
		for _, v := range mustSlice[float32](a) {
			vals = append(vals, fmt.Sprintf("%g", v))
		}
	case ndstore.KindInt8:
		vals = intStrings(mustSlice[int8](a))
	case ndstore.KindInt16:
		vals = intStrings(mustSlice[int16](a))
	case ndstore.KindInt32:
		vals = intStrings(mustSlice[int32](a))
	case ndstore.KindInt64:
		vals = intStrings(mustSlice[int64](a))
	case ndstore.KindUint8:
		vals = intStrings(mustSlice[uint8](a))
	case ndstore.KindUint16:
		vals = intStrings(mustSlice[uint16](a))
	case ndstore.KindUint32:
		vals = intStrings(mustSlice[uint32](a))
	case ndstore.KindUint64:
		vals = intStrings(mustSlice[uint64](a))
	case ndstore.KindComplex64:
		for _, v := range mustSlice[complex64](a) {
			vals = append(vals, fmt.Sprintf("%v", v))
		}
	case ndstore.KindComplex128:
		for _, v := range mustSlice[complex128](a) {
			vals = append(vals, fmt.Sprintf("%v", v))
		}
	default:
		return fmt.Sprintf("<%d bytes>", len(a.Data))
	}
	return strings.Join(vals, " ")
}

func mustSlice[T ndstore.Scalar](a *ndstore.Array) []T {
	vals, err := ndstore.SliceOf[T](a)
	if err != nil {
		return nil
	}
	return vals
}

func intStrings[T int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64](vals []T) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprintf("%d", v)
	}
	return out
}
