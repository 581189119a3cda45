package main

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"io89/asm"
)

var (
	listingPath string
	outputPath  string
	dumpSymbols bool
)

var rootCmd = &cobra.Command{
	Use:   "io89 sourcefile",
	Short: "Two-pass assembler for the 8089-style I/O channel processor",
	Long: `io89 assembles I/O channel processor source into a binary image.
The image is written as Intel-HEX records; an optional listing shows
each line's address and encoded bytes followed by the symbol table.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&listingPath, "listing", "l", "", "write listing and symbol table to `file`")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write Intel-HEX output to `file`")
	rootCmd.Flags().BoolVarP(&dumpSymbols, "dump", "d", false, "pretty-print the symbol table after assembly")
	// glog's -v and friends
	rootCmd.Flags().AddGoFlagSet(goflag.CommandLine)
}

func run(cmd *cobra.Command, args []string) error {
	a := asm.New()
	a.Listing = listingPath != ""

	if err := a.AssembleFile(args[0]); err != nil {
		return err
	}

	if listingPath != "" {
		fd, err := os.Create(listingPath)
		if err != nil {
			return err
		}
		err = a.WriteListing(fd)
		if err2 := fd.Close(); err == nil {
			err = err2
		}
		if err != nil {
			return err
		}
	}

	if outputPath != "" {
		fd, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		err = a.WriteHex(fd)
		if err2 := fd.Close(); err == nil {
			err = err2
		}
		if err != nil {
			return err
		}
	}

	if dumpSymbols {
		symbols := map[string]int{}
		for _, name := range a.Symbols.Names() {
			symbols[name], _ = a.Symbols.Get(name)
		}
		pp.Println(symbols)
	}
	return nil
}

func main() {
	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		glog.Flush()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
