package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	wofftools "github.com/runarbu/woffTools"
	"github.com/sirupsen/logrus"
	"github.com/tdewolff/argp"
	"golang.org/x/image/font/sfnt"
)

type InfoCmd struct {
	Input     string `index:"0" desc:"WOFF file"`
	Checksums bool   `short:"c" desc:"Verify table checksums while reading"`
}

type ValidateCmd struct {
	Input string `index:"0" desc:"WOFF file"`
}

type PackCmd struct {
	Input    string `index:"0" desc:"TTF or OTF file"`
	Output   string `short:"o" desc:"Output filename"`
	Meta     string `short:"m" desc:"File with XML metadata to embed"`
	Private  string `short:"p" desc:"File with private data to embed"`
	Level    int    `short:"l" default:"9" desc:"zlib compression level (1-9)"`
	NoRecalc bool   `desc:"Do not recalculate the head table checkSumAdjustment"`
	Verbose  bool   `short:"v" desc:"Print progress messages"`
}

type UnpackCmd struct {
	Input  string `index:"0" desc:"WOFF file"`
	Output string `short:"o" desc:"Output filename"`
}

func main() {
	root := argp.New("Toolkit for WOFF files")
	root.AddCmd(&InfoCmd{}, "info", "Show the WOFF header and table directory")
	root.AddCmd(&ValidateCmd{}, "validate", "Check the wrapped SFNT font for conformance")
	root.AddCmd(&PackCmd{}, "pack", "Wrap a TTF or OTF font into a WOFF file")
	root.AddCmd(&UnpackCmd{}, "unpack", "Extract the TTF or OTF font from a WOFF file")
	root.Parse()
	root.PrintHelp()
}

func (cmd *InfoCmd) Run() error {
	if cmd.Input == "" {
		return fmt.Errorf("must pass one WOFF file")
	}
	b, err := os.ReadFile(cmd.Input)
	if err != nil {
		return err
	}
	policy := wofftools.ChecksumIgnore
	if cmd.Checksums {
		policy = wofftools.ChecksumWarn
	}
	r, err := wofftools.NewReader(b, policy)
	if err != nil {
		return err
	}

	flavor := "TrueType"
	if r.Flavor == wofftools.FlavorCFF {
		flavor = "CFF"
	}
	fmt.Printf("flavor:        %s\n", flavor)
	fmt.Printf("version:       %d.%d\n", r.MajorVersion, r.MinorVersion)
	fmt.Printf("numTables:     %d\n", r.NumTables)
	fmt.Printf("totalSFNTSize: %d\n", r.TotalSFNTSize)
	if meta, err := r.Metadata(); err != nil {
		return err
	} else if meta != nil {
		fmt.Printf("metadata:      %d bytes\n", len(meta))
	}
	if priv, err := r.PrivateData(); err != nil {
		return err
	} else if priv != nil {
		fmt.Printf("private data:  %d bytes\n", len(priv))
	}

	fmt.Printf("\ntag   offset    compLength  origLength  origChecksum\n")
	for _, tag := range r.Tags() {
		entry, _ := r.Entry(tag)
		fmt.Printf("%-4s  %-8d  %-10d  %-10d  %08X\n", tag, entry.Offset, entry.CompLength, entry.OrigLength, entry.OrigChecksum)
		if cmd.Checksums {
			if _, err := r.Table(tag); err != nil {
				return err
			}
		}
	}

	sfntData, err := wofftools.ToSFNT(b)
	if err != nil {
		return err
	}
	font, err := sfnt.Parse(sfntData)
	if err == nil {
		if family, err := font.Name(nil, sfnt.NameIDFamily); err == nil {
			fmt.Printf("\nfamily name:   %s\n", family)
		}
	}
	return nil
}

func (cmd *ValidateCmd) Run() error {
	if cmd.Input == "" {
		return fmt.Errorf("must pass one WOFF file")
	}
	b, err := os.ReadFile(cmd.Input)
	if err != nil {
		return err
	}
	sfntData, err := wofftools.ToSFNT(b)
	if err != nil {
		return err
	}
	findings, err := wofftools.CheckSFNTConformance(sfntData)
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		fmt.Println("conformant")
		return nil
	}
	for _, finding := range findings {
		fmt.Println(finding)
	}
	return fmt.Errorf("%d conformance errors", len(findings))
}

func (cmd *PackCmd) Run() error {
	if cmd.Input == "" {
		return fmt.Errorf("must pass one TTF or OTF file")
	}
	if cmd.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	b, err := os.ReadFile(cmd.Input)
	if err != nil {
		return err
	}
	font, err := wofftools.ReadSFNT(b)
	if err != nil {
		return err
	}
	if cmd.Meta != "" {
		meta, err := os.ReadFile(cmd.Meta)
		if err != nil {
			return err
		}
		font.SetMetadata(meta)
	}
	if cmd.Private != "" {
		priv, err := os.ReadFile(cmd.Private)
		if err != nil {
			return err
		}
		font.SetPrivateData(priv)
	}

	opts := wofftools.DefaultSaveOptions()
	opts.CompressionLevel = cmd.Level
	if cmd.NoRecalc || font.Has("DSIG") {
		opts.ReorderTables = false
		opts.RecalcHeadChecksum = false
	}

	output := cmd.Output
	if output == "" {
		output = strings.TrimSuffix(cmd.Input, filepath.Ext(cmd.Input)) + ".woff"
	}
	w, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := font.Save(w, &opts); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (cmd *UnpackCmd) Run() error {
	if cmd.Input == "" {
		return fmt.Errorf("must pass one WOFF file")
	}
	b, err := os.ReadFile(cmd.Input)
	if err != nil {
		return err
	}
	r, err := wofftools.NewReader(b, wofftools.ChecksumIgnore)
	if err != nil {
		return err
	}
	sfntData, err := wofftools.ToSFNT(b)
	if err != nil {
		return err
	}

	output := cmd.Output
	if output == "" {
		ext := ".ttf"
		if r.Flavor == wofftools.FlavorCFF {
			ext = ".otf"
		}
		output = strings.TrimSuffix(cmd.Input, filepath.Ext(cmd.Input)) + ext
	}
	return os.WriteFile(output, sfntData, 0o644)
}
