// Command mkfsxfs is the §6.1 command-line front end: it wires pflag's
// flag parsing to the option/topology/geometry engine and, unless -N was
// given, drives internal/writer to actually format the device.
package main

import (
	"fmt"
	"os"

	units "github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/jtulak/xfsprogs-dev/internal/device"
	"github.com/jtulak/xfsprogs-dev/internal/geometry"
	"github.com/jtulak/xfsprogs-dev/internal/mkfserr"
	"github.com/jtulak/xfsprogs-dev/internal/option"
	"github.com/jtulak/xfsprogs-dev/internal/topology"
	"github.com/jtulak/xfsprogs-dev/internal/writer"
)

// version is the one piece of release metadata -V prints; it is not
// derived from build info since this core has no release process of its
// own.
const version = "mkfs.xfs (go rewrite) 0.1"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := pflag.NewFlagSet("mkfs.xfs", pflag.ContinueOnError)
	sch := option.BuildSchema()
	ctx := option.NewContext(sch)

	for _, grp := range []byte{'b', 'd', 'i', 'l', 'n', 'r', 's', 'm'} {
		gv := &option.GroupValue{Ctx: ctx, Group: grp}
		fs.VarP(gv, string(grp), string(grp), "")
	}
	label := fs.StringP("L", "L", "", "")
	protofile := fs.StringP("p", "p", "", "")
	dryRun := fs.BoolP("N", "N", false, "")
	noDiscard := fs.BoolP("K", "K", false, "")
	force := fs.BoolP("f", "f", false, "")
	forceAlt := fs.BoolP("C", "C", false, "")
	quiet := fs.BoolP("q", "q", false, "")
	showVersion := fs.BoolP("V", "V", false, "")
	_ = protofile // prototype-file parsing is an out-of-scope collaborator (§1)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: mkfs.xfs [options] device\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(argv); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fs.Usage()
		return 1
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if *quiet {
		logger.SetLevel(logrus.ErrorLevel)
	}
	log := logrus.NewEntry(logger)

	if *showVersion {
		fmt.Println(version)
		return 0
	}

	devicePath := ""
	if fs.NArg() > 0 {
		devicePath = fs.Arg(0)
	}
	if devicePath == "" && !ctx.Seen('d', "name") {
		fmt.Fprintln(os.Stderr, "mkfs.xfs: no device specified")
		fs.Usage()
		return 1
	}
	if devicePath != "" && !ctx.Seen('d', "name") {
		if err := option.ParseGroup(ctx, 'd', "name="+devicePath); err != nil {
			return reportErr(log, err)
		}
	}

	overwriteForced := *force || *forceAlt

	// §1 names block-device probing/signature scanning as an out-of-scope
	// collaborator; this front end supplies the always-empty Info and the
	// always-permissive NoScanner, leaving real hardware introspection to
	// whatever binary wires this core into a production mkfs.xfs.
	topo, err := geometry.FillDefaults(ctx, topology.Info{})
	if err != nil {
		return reportErr(log, err)
	}
	if err := option.CheckAll(ctx); err != nil {
		return reportErr(log, err)
	}
	for _, w := range topo.Warnings {
		log.Warn(w)
	}

	dataTarget := device.Target{
		Path:   ctx.String('d', "name"),
		IsFile: ctx.Bool('d', "file"),
	}
	scanner := device.NoScanner{}
	if has, _ := scanner.HasForeignSignature(dataTarget.Path); has && !overwriteForced {
		return reportErr(log, mkfserr.New(mkfserr.OverwriteRefused, "existing filesystem signature found; use -f to overwrite"))
	}

	dataDev, err := device.Open(device.RoleData, dataTarget, overwriteForced)
	if err != nil {
		return reportErr(log, err)
	}
	defer dataDev.Close()

	var logDev, rtDev *device.Device
	logExternal := ctx.Seen('l', "logdev") || ctx.Seen('l', "name")
	if logExternal {
		logTarget := device.Target{
			Path:      firstNonEmpty(ctx.String('l', "logdev"), ctx.String('l', "name")),
			IsFile:    ctx.Bool('l', "file"),
			Requested: true,
		}
		logDev, err = device.Open(device.RoleLog, logTarget, overwriteForced)
		if err != nil {
			return reportErr(log, err)
		}
		defer logDev.Close()
	}

	rtRequested := ctx.Bool('r', "file") || ctx.Seen('r', "name") || ctx.Seen('r', "rtdev")
	if rtRequested {
		rtTarget := device.Target{
			Path:      firstNonEmpty(ctx.String('r', "rtdev"), ctx.String('r', "name")),
			IsFile:    ctx.Bool('r', "file"),
			Requested: true,
		}
		rtDev, err = device.Open(device.RoleRealtime, rtTarget, overwriteForced)
		if err != nil {
			return reportErr(log, err)
		}
		defer rtDev.Close()
	}

	sizes := geometry.DeviceSizes{}
	if sizes.DataBytes, err = dataDev.Size(); err != nil {
		return reportErr(log, err)
	}
	if logDev != nil {
		if sizes.LogBytes, err = logDev.Size(); err != nil {
			return reportErr(log, err)
		}
	}
	if rtDev != nil {
		if sizes.RtBytes, err = rtDev.Size(); err != nil {
			return reportErr(log, err)
		}
	}

	g, err := geometry.Solve(ctx, topo, sizes, *label)
	if err != nil {
		return reportErr(log, err)
	}
	for _, w := range g.Warnings {
		log.Warn(w)
	}

	if *dryRun {
		printSummary(g)
		return 0
	}

	opts := []writer.Option{writer.WithLogger(log)}
	if *noDiscard {
		opts = append(opts, writer.WithDiscardSkipped())
	}
	wr := writer.New(g, dataDev, logDev, rtDev, opts...)

	if err := wr.Write(); err != nil {
		return reportErr(log, err)
	}
	return 0
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func reportErr(log *logrus.Entry, err error) int {
	if me, ok := mkfserr.As(err); ok && !me.Kind.Fatal() {
		log.Warn(me.Error())
		return 0
	}
	fmt.Fprintln(os.Stderr, "mkfs.xfs: "+err.Error())
	return 1
}

func printSummary(g *geometry.Geometry) {
	fmt.Printf("meta-data   bsize=%s  agcount=%d, agsize=%d blks\n",
		units.BytesSize(float64(g.BlockSize)), g.AGCount, g.AGSize)
	fmt.Printf("data        bsize=%s  blocks=%d\n",
		units.BytesSize(float64(g.BlockSize)), g.DataBlocks)
	fmt.Printf("naming      version 2  bsize=%s\n", units.BytesSize(float64(g.DirBlockSize)))
	logKind := "internal"
	if !g.LogInternal {
		logKind = "external"
	}
	fmt.Printf("log         =%-8s bsize=%s  blocks=%d\n", logKind, units.BytesSize(float64(g.BlockSize)), g.LogBlocks)
	if g.RtBlocks > 0 {
		fmt.Printf("realtime    extsz=%d blocks=%d, rtextents=%d\n", g.RtExtBlocks, g.RtBlocks, g.RtExtents)
	}
}
